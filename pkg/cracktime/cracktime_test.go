package cracktime

import (
	"math"
	"testing"
)

func TestSimple_Estimate(t *testing.T) {
	cases := []struct {
		password string
		mode     Mode
		want     string
	}{
		{"password", Online, "~161131 days"},
		{"password", OfflineFastHash, "~2 days"},
		{"password", "md5", "~2 days"},
		{"password", OfflineSlowHash, "~24169 days"},
		{"password", "bcrypt", "~24169 days"},
		{"password", "quantum", "~2 days"},
		{"abc", OfflineFastHash, "< 1 minute"},
		{"abcdef", OfflineFastHash, "~5 minutes"},
		{"abcdefg", OfflineFastHash, "~2 hours"},
		{"", Online, CannotEstimate},
		{"中文", Online, UnsupportedCharacters},
	}

	for _, tc := range cases {
		if got := (Simple{}).Estimate(tc.password, tc.mode); got != tc.want {
			t.Errorf("Simple.Estimate(%q, %s): %q, want: %q", tc.password, tc.mode, got, tc.want)
		}
	}
}

func TestSimple_HugeKeyspace(t *testing.T) {
	got := (Simple{}).Estimate("Xk9#mQ2$vL7!pR4@Xk9#mQ2$vL7!pR4@Xk9#mQ2$vL7!pR4@Xk9#mQ2$vL7!pR4@", OfflineFastHash)
	if len(got) < 10 || got[0] != '~' {
		t.Errorf("Should format huge keyspaces in days, got %q", got)
	}
}

func TestAdvanced_Estimate(t *testing.T) {
	cases := []struct {
		mode Mode
		want string
	}{
		{Online, "88 years 3 months"},
		{OfflineFastHash, "2 hours 15 minutes"},
		{OfflineSlowHash, "6 months 18 days"},
	}

	for _, tc := range cases {
		if got := (Advanced{}).Estimate("password", tc.mode); got != tc.want {
			t.Errorf("Advanced.Estimate(password, %s): %q, want: %q", tc.mode, got, tc.want)
		}
	}
}

func TestAdvanced_UnknownFallsBack(t *testing.T) {
	a := Advanced{}
	if got, want := a.Seconds(40, "nope"), math.Pow(2, 40)/1e6; got != want {
		t.Errorf("Unknown mode should use the default rate: %f, want: %f", got, want)
	}
	if a.Online(40, "telnet") != a.Online(40, DefaultProtocol) {
		t.Errorf("Unknown protocol should fall back to %s", DefaultProtocol)
	}
	if a.Offline(40, "whirlpool") != FormatDuration(math.Pow(2, 40)/1e6) {
		t.Errorf("Unknown hash algorithm should fall back to 1e6 guesses per second")
	}
	if a.Offline(40, "md5") != a.Offline(40, "MD5") {
		t.Errorf("Hash algorithm lookup should be case-insensitive")
	}
}

func TestAdvanced_MonotonicInEntropy(t *testing.T) {
	a := Advanced{}
	for _, mode := range Modes {
		prev := -1.0
		for bits := 0.0; bits <= 200; bits += 0.5 {
			got := a.Seconds(bits, mode)
			if got < prev {
				t.Errorf("Seconds should not decrease with entropy, mode %s at %f bits", mode, bits)
			}
			prev = got
		}
	}
}

func TestMonotonicInRate(t *testing.T) {
	// Modes from the fastest to the slowest guess rate.
	simple := []Mode{OfflineFastHash, OfflineSlowHash, Online}
	advanced := []Mode{OfflineFastHash, OfflineSlowHash, Online}

	for _, bits := range []float64{10, 37.6, 80} {
		prev := -1.0
		for _, mode := range advanced {
			got := (Advanced{}).Seconds(bits, mode)
			if got < prev {
				t.Errorf("Advanced seconds should grow as the guess rate drops: %s at %f bits", mode, bits)
			}
			prev = got
		}
	}

	for _, length := range []int{4, 8, 16} {
		prev := -1.0
		for _, mode := range simple {
			got := (Simple{}).Seconds(62, length, mode)
			if got < prev {
				t.Errorf("Simple seconds should grow as the guess rate drops: %s at length %d", mode, length)
			}
			prev = got
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, Instantly},
		{0.99, Instantly},
		{math.NaN(), Instantly},
		{1, "1 second"},
		{59, "59 seconds"},
		{3661, "1 hour 1 minute"},
		{7322, "2 hours 2 minutes"},
		{86405, "1 day 5 seconds"},
		{year + 86400, "1 year 1 day"},
		{100*year + 2*year, "1 century 2 years"},
		{250 * year, "2 centuries 50 years"},
		{math.Inf(1), Forever},
	}

	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%f): %q, want: %q", tc.seconds, got, tc.want)
		}
	}
}

func TestByName(t *testing.T) {
	if e, ok := ByName("Simple"); !ok || e.Name() != "simple" {
		t.Errorf("Should resolve the simple strategy")
	}
	if e, ok := ByName(""); !ok || e.Name() != "advanced" {
		t.Errorf("Should default to the advanced strategy")
	}
	if _, ok := ByName("zxcvbn"); ok {
		t.Errorf("Should not resolve unknown strategies")
	}
}
