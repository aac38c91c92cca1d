package cracktime

import (
	"math"
	"strings"

	"zpassword/pkg/strength"
)

// Online brute force rates, guesses per minute for a Hydra-style attack on each protocol.
var ProtocolRates = map[string]float64{
	"ssh":       1200,
	"http-form": 4500,
	"rdp":       800,
}

// Offline guesses per second on a commodity GPU.
var HashRates = map[string]float64{
	"MD5":     25.6e6,
	"SHA-256": 2.1e6,
	"bcrypt":  12e3,
	"NTLM":    45e6,
}

const (
	DefaultProtocol = "http-form"
	FastHash        = "MD5"
	SlowHash        = "bcrypt"

	defaultHashRate = 1e6
)

// Advanced estimates 2^entropy combinations against named attack tooling.
type Advanced struct{}

func (Advanced) Name() string {
	return "advanced"
}

func (a Advanced) Estimate(password string, mode Mode) string {
	return a.EstimateEntropy(strength.Entropy(password), mode)
}

func (a Advanced) EstimateEntropy(bits float64, mode Mode) string {
	return FormatDuration(a.Seconds(bits, mode))
}

// Seconds for the mode. Unknown modes use the default offline rate.
func (a Advanced) Seconds(bits float64, mode Mode) float64 {
	switch mode {
	case Online:
		return a.onlineSeconds(bits, DefaultProtocol)
	case OfflineFastHash:
		return a.offlineSeconds(bits, FastHash)
	case OfflineSlowHash:
		return a.offlineSeconds(bits, SlowHash)
	}

	return math.Pow(2, bits) / defaultHashRate
}

// Online uses the per minute rate of the protocol, http-form when the protocol is unknown.
func (a Advanced) Online(bits float64, protocol string) string {
	return FormatDuration(a.onlineSeconds(bits, protocol))
}

// Offline uses the GPU rate of the hash algorithm, 1e6/s when the algorithm is unknown.
func (a Advanced) Offline(bits float64, algorithm string) string {
	return FormatDuration(a.offlineSeconds(bits, algorithm))
}

func (Advanced) onlineSeconds(bits float64, protocol string) float64 {
	perMinute, ok := ProtocolRates[strings.ToLower(protocol)]
	if !ok {
		perMinute = ProtocolRates[DefaultProtocol]
	}

	return math.Pow(2, bits) / (perMinute / 60)
}

func (Advanced) offlineSeconds(bits float64, algorithm string) float64 {
	rate := defaultHashRate
	for name, r := range HashRates {
		if strings.EqualFold(name, algorithm) {
			rate = r
			break
		}
	}

	return math.Pow(2, bits) / rate
}
