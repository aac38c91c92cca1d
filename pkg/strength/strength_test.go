package strength

import (
	"math"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		password string
		want     Profile
		size     int
	}{
		{"", Profile{}, 0},
		{"password", Profile{HasLower: true}, 26},
		{"PASSWORD", Profile{HasUpper: true}, 26},
		{"12345678", Profile{HasDigit: true}, 10},
		{"!@#$%^&*", Profile{HasSpecial: true}, 33},
		{"aB3$", Profile{true, true, true, true}, 95},
		{"pass word", Profile{HasLower: true, HasSpecial: true}, 59},
		{"中文", Profile{}, 0},
	}

	for _, tc := range cases {
		got := Classify(tc.password)
		if got != tc.want {
			t.Errorf("Classify(%q): %+v, want: %+v", tc.password, got, tc.want)
		}
		if got.AlphabetSize() != tc.size {
			t.Errorf("AlphabetSize(%q): %d, want: %d", tc.password, got.AlphabetSize(), tc.size)
		}
	}
}

func TestEntropy_SingleCategory(t *testing.T) {
	cases := []struct {
		password string
		size     float64
	}{
		{"abcdefghij", 26},
		{"ABCDEFGHIJKL", 26},
		{"0123456789", 10},
		{"!@#$%^&*()", 33},
	}

	for _, tc := range cases {
		want := float64(len(tc.password)) * math.Log2(tc.size)
		if got := Entropy(tc.password); math.Abs(got-want) > 1e-9 {
			t.Errorf("Entropy(%q): %f, want: %f", tc.password, got, want)
		}
	}
}

func TestEntropy_Degenerate(t *testing.T) {
	if got := Entropy(""); got != 0 {
		t.Errorf("Entropy of empty password should be 0, got %f", got)
	}

	// No category detected, alphabet clamps to 1.
	if got := Entropy("中文中文"); got != 0 {
		t.Errorf("Entropy of unclassified password should be 0, got %f", got)
	}
}

func TestComplexity_Clamped(t *testing.T) {
	for _, n := range []int{1, 10, 24, 25, 100, 1000} {
		pwd := strings.Repeat("aB3$", n)
		if got := Complexity(pwd); got > 100 || got < 0 {
			t.Errorf("Complexity should be within [0, 100], got %f for length %d", got, len(pwd))
		}
	}
}

func TestComplexity_MonotonicInLength(t *testing.T) {
	for _, unit := range []string{"a", "A", "1", "$", "aB", "aB3$"} {
		prev := -1.0
		for n := 1; n <= 40; n++ {
			got := Complexity(strings.Repeat(unit, n))
			if got < prev {
				t.Errorf("Complexity should not decrease with length: %q x %d = %f, previous %f", unit, n, got, prev)
			}
			prev = got
		}
	}
}

func TestComplexity_Decoupled(t *testing.T) {
	// Short password with every category.
	short := "aB3$"
	want := 1 + 4*4 + 2*(1.0+1.2+1.3+1.5)
	if got := Complexity(short); math.Abs(got-want) > 1e-9 {
		t.Errorf("Complexity(%q): %f, want: %f", short, got, want)
	}

	// Long single category passwords max out complexity while entropy keeps growing.
	long := strings.Repeat("a", 30)
	if got := Complexity(long); got != 100 {
		t.Errorf("Complexity(%q): %f, want: 100", long, got)
	}
	if got := Entropy(long); got <= 100 {
		t.Errorf("Entropy(%q) should exceed 100 bits, got %f", long, got)
	}
}

func TestEvaluate_Password(t *testing.T) {
	r := Evaluate("password")

	if r.Profile.AlphabetSize() != 26 {
		t.Errorf("Alphabet should be 26, got %d", r.Profile.AlphabetSize())
	}
	if math.Abs(r.EntropyBits-37.6035) > 1e-3 {
		t.Errorf("Entropy should be about 37.6 bits, got %f", r.EntropyBits)
	}
	if r.ComplexityScore != 35 {
		t.Errorf("Complexity should be 35, got %f", r.ComplexityScore)
	}

	want := []string{RecommendCategories, RecommendLength, RecommendSpecial, RecommendEntropy}
	if len(r.Recommendations) != len(want) {
		t.Fatalf("Recommendations: %v, want: %v", r.Recommendations, want)
	}
	for i := range want {
		if r.Recommendations[i] != want[i] {
			t.Errorf("Recommendation %d: %q, want: %q", i, r.Recommendations[i], want[i])
		}
	}
}

func TestRecommendations(t *testing.T) {
	cases := []struct {
		password string
		want     []string
	}{
		{"Xk9#mQ2$vL7!pR4@", []string{}},
		{"Xk9mQ2vL7pR4wT8z", []string{RecommendSpecial}},
		{"aB3$", []string{RecommendCategories, RecommendLength, RecommendEntropy, RecommendMinimum}},
		{"Xk9#mQ2$vL", []string{RecommendCategories, RecommendLength}},
	}

	for _, tc := range cases {
		got := Evaluate(tc.password).Recommendations
		if len(got) != len(tc.want) {
			t.Errorf("Recommendations(%q): %v, want: %v", tc.password, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("Recommendations(%q)[%d]: %q, want: %q", tc.password, i, got[i], tc.want[i])
			}
		}
	}
}
