// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package strength

import (
	"math"
	"unicode/utf8"
)

// Weights of the complexity heuristic.
const (
	baseScore     = 1.0
	lengthWeight  = 4.0
	lowerWeight   = 1.0
	upperWeight   = 1.2
	digitWeight   = 1.3
	specialWeight = 1.5
	categoryBonus = 2.0
	maxScore      = 100.0
)

// Policy thresholds for recommendations.
const (
	minComplexity = 60.0
	minEntropy    = 60.0
	goodLength    = 12
	shortLength   = 8
)

const (
	RecommendCategories = "use 4 or more character categories"
	RecommendLength     = "increase length to 16+ characters"
	RecommendSpecial    = "add special characters"
	RecommendEntropy    = "increase overall entropy"
	RecommendMinimum    = "use at least 12 characters"
)

// Report is the strength evaluation of a single password. Entropy and complexity are computed
// independently and can disagree.
type Report struct {
	Length          int      `json:"length"`
	Profile         Profile  `json:"charset"`
	EntropyBits     float64  `json:"entropy_bits"`
	ComplexityScore float64  `json:"complexity_score"`
	Recommendations []string `json:"recommendations"`
}

// Length counts runes, not bytes.
func Length(password string) int {
	return utf8.RuneCountInString(password)
}

// Entropy is length * log2(alphabet). It is an upper bound under a uniform random model over
// the detected alphabet, not a measurement of the actual string.
func Entropy(password string) float64 {
	return EntropyOf(Length(password), Classify(password))
}

func EntropyOf(length int, p Profile) float64 {
	size := p.AlphabetSize()
	if size == 0 {
		size = 1
	}

	return float64(length) * math.Log2(float64(size))
}

// Complexity is a weighted heuristic bounded to [0, 100].
func Complexity(password string) float64 {
	return ComplexityOf(Length(password), Classify(password))
}

func ComplexityOf(length int, p Profile) float64 {
	score := baseScore + float64(length)*lengthWeight
	score += categoryBonus * (weight(p.HasLower, lowerWeight) +
		weight(p.HasUpper, upperWeight) +
		weight(p.HasDigit, digitWeight) +
		weight(p.HasSpecial, specialWeight))

	return math.Min(score, maxScore)
}

func weight(present bool, w float64) float64 {
	if present {
		return w
	}
	return 0
}

// Recommendations runs every check independently, the result keeps evaluation order.
func Recommendations(length int, p Profile, entropy, complexity float64) []string {
	recs := make([]string, 0, 5)
	if complexity < minComplexity {
		recs = append(recs, RecommendCategories)
	}
	if length < goodLength {
		recs = append(recs, RecommendLength)
	}
	if !p.HasSpecial {
		recs = append(recs, RecommendSpecial)
	}
	if entropy < minEntropy {
		recs = append(recs, RecommendEntropy)
	}
	// Never fires when callers enforce the 8 character minimum.
	if length < shortLength {
		recs = append(recs, RecommendMinimum)
	}

	return recs
}

// Evaluate never fails: an empty or unclassifiable password gets a degenerate report.
func Evaluate(password string) Report {
	length := Length(password)
	profile := Classify(password)
	entropy := EntropyOf(length, profile)
	complexity := ComplexityOf(length, profile)

	return Report{
		Length:          length,
		Profile:         profile,
		EntropyBits:     entropy,
		ComplexityScore: complexity,
		Recommendations: Recommendations(length, profile, entropy, complexity),
	}
}
