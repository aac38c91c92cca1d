// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package strength

import "unicode"

// Alphabet sizes used for every detected category. Detection is presence based, a single
// occurrence of a category counts its full size.
const (
	LowerSize   = 26
	UpperSize   = 26
	DigitSize   = 10
	SpecialSize = 33
)

// Profile holds the character categories present in a password.
type Profile struct {
	HasLower   bool `json:"has_lower"`
	HasUpper   bool `json:"has_upper"`
	HasDigit   bool `json:"has_digit"`
	HasSpecial bool `json:"has_special"`
}

// Classify inspects the password in a single pass. Any rune that is neither a letter nor a
// digit counts as special, so whitespace and symbols outside ASCII are special too.
func Classify(password string) Profile {
	var p Profile
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			p.HasLower = true
		case unicode.IsUpper(r):
			p.HasUpper = true
		case unicode.IsDigit(r):
			p.HasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			p.HasSpecial = true
		}
	}

	return p
}

// AlphabetSize is the sum of the sizes of the present categories. Zero when nothing matched.
func (p Profile) AlphabetSize() int {
	size := 0
	if p.HasLower {
		size += LowerSize
	}
	if p.HasUpper {
		size += UpperSize
	}
	if p.HasDigit {
		size += DigitSize
	}
	if p.HasSpecial {
		size += SpecialSize
	}

	return size
}

func (p Profile) Categories() int {
	n := 0
	for _, present := range []bool{p.HasLower, p.HasUpper, p.HasDigit, p.HasSpecial} {
		if present {
			n++
		}
	}

	return n
}
