package generator

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits    = "0123456789"
	Symbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?/~"
)

var categories = []string{Lowercase, Uppercase, Digits, Symbols}

// AllowedLengths are the lengths offered to users. History storage is sized for them.
var AllowedLengths = []int{8, 10, 12}

var ErrLength = errors.New("password length must be at least 4")

// Generate builds a password with at least one character of every category: one pick per
// category, the rest from the union, then a shuffle.
func Generate(length int) (string, error) {
	if length < len(categories) {
		return "", ErrLength
	}

	all := Lowercase + Uppercase + Digits + Symbols
	out := make([]byte, 0, length)
	for _, set := range categories {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

// Allowed reports whether length is one of AllowedLengths.
func Allowed(length int) bool {
	for _, l := range AllowedLengths {
		if l == length {
			return true
		}
	}
	return false
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
