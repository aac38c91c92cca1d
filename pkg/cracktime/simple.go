package cracktime

import (
	"fmt"
	"math/big"

	"zpassword/pkg/strength"
)

const (
	CannotEstimate        = "cannot estimate"
	UnsupportedCharacters = "unsupported characters"
)

const defaultSimpleRate = 1_000_000

// Guesses per second for the simple model.
var simpleRates = map[Mode]int64{
	Online:          15,
	OfflineFastHash: 1_000_000,
	OfflineSlowHash: 100,
	"md5":           1_000_000,
	"bcrypt":        100,
}

// Simple estimates alphabet^length combinations over a fixed guess rate and reports whole
// minutes, hours or days.
type Simple struct{}

func (Simple) Name() string {
	return "simple"
}

func (s Simple) Estimate(password string, mode Mode) string {
	if password == "" {
		return CannotEstimate
	}

	alphabet := strength.Classify(password).AlphabetSize()
	if alphabet == 0 {
		return UnsupportedCharacters
	}

	return formatMinutes(s.minutes(alphabet, strength.Length(password), mode))
}

// Seconds is the estimate before formatting. It can be +Inf for very large keyspaces.
func (s Simple) Seconds(alphabet, length int, mode Mode) float64 {
	sec, _ := s.seconds(alphabet, length, mode).Float64()
	return sec
}

func (s Simple) seconds(alphabet, length int, mode Mode) *big.Float {
	combinations := new(big.Int).Exp(big.NewInt(int64(alphabet)), big.NewInt(int64(length)), nil)
	return new(big.Float).Quo(new(big.Float).SetInt(combinations), big.NewFloat(s.Rate(mode)))
}

// minutes truncates to whole minutes, keeping arbitrary precision for huge keyspaces.
func (s Simple) minutes(alphabet, length int, mode Mode) *big.Int {
	m := new(big.Float).Quo(s.seconds(alphabet, length, mode), big.NewFloat(60))
	whole, _ := m.Int(nil)
	return whole
}

func formatMinutes(minutes *big.Int) string {
	if !minutes.IsInt64() {
		days := new(big.Int).Quo(minutes, big.NewInt(1440))
		return fmt.Sprintf("~%s days", days.String())
	}

	m := minutes.Int64()
	switch {
	case m < 1:
		return "< 1 minute"
	case m < 60:
		return fmt.Sprintf("~%d minutes", m)
	case m < 1440:
		return fmt.Sprintf("~%d hours", m/60)
	default:
		return fmt.Sprintf("~%d days", m/1440)
	}
}

// Rate is the guesses per second used for mode.
func (Simple) Rate(mode Mode) float64 {
	if rate, ok := simpleRates[mode]; ok {
		return float64(rate)
	}
	return defaultSimpleRate
}
