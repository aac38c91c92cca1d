package cracktime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	Instantly = "instantly"
	Forever   = "effectively forever"
)

const year = 3.154e7

type unit struct {
	one     string
	many    string
	seconds float64
}

var units = []unit{
	{"century", "centuries", 100 * year},
	{"year", "years", year},
	{"month", "months", 2.628e6},
	{"day", "days", 86400},
	{"hour", "hours", 3600},
	{"minute", "minutes", 60},
	{"second", "seconds", 1},
}

func (u unit) label(count float64) string {
	if count == 1 {
		return u.one
	}
	return u.many
}

// FormatDuration picks the two largest non-zero calendar units, "2 years 1 day".
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 1 {
		return Instantly
	}
	if math.IsInf(seconds, 1) {
		return Forever
	}

	parts := make([]string, 0, 2)
	for _, u := range units {
		if seconds < u.seconds {
			continue
		}

		value := math.Floor(seconds / u.seconds)
		seconds = math.Mod(seconds, u.seconds)
		parts = append(parts, fmt.Sprintf("%s %s", formatCount(value), u.label(value)))
		if len(parts) == 2 {
			break
		}
	}

	return strings.Join(parts, " ")
}

func formatCount(v float64) string {
	if v < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'e', 1, 64)
}
