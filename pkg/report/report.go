// Package report assembles the strength, crack time and breach results for one password.
package report

import (
	"context"
	"errors"
	"github.com/nbutton23/zxcvbn-go"
	"github.com/rs/zerolog/log"
	"zpassword/pkg/cracktime"
	"zpassword/pkg/hibp"
	"zpassword/pkg/strength"
)

type BreachChecker interface {
	Check(ctx context.Context, password string) (hibp.Verdict, error)
}

type Options struct {
	// Breach enables the network lookup.
	Breach bool
}

// BreachResult keeps "could not check" apart from "not found".
type BreachResult struct {
	Available bool   `json:"available"`
	Found     bool   `json:"found"`
	Count     int64  `json:"count"`
	Error     string `json:"error,omitempty"`
}

// PatternScore is the zxcvbn view of the password, dictionary and pattern aware.
type PatternScore struct {
	Score            int     `json:"score"`
	Entropy          float64 `json:"entropy"`
	CrackTimeSeconds float64 `json:"crack_time_seconds"`
	CrackTimeDisplay string  `json:"crack_time_display"`
}

type Report struct {
	Strength   strength.Report           `json:"strength"`
	Strategy   string                    `json:"strategy"`
	CrackTimes map[cracktime.Mode]string `json:"crack_times"`
	Pattern    PatternScore              `json:"pattern"`
	Breach     *BreachResult             `json:"breach,omitempty"`
}

type Composer struct {
	estimator cracktime.Estimator
	checker   BreachChecker
}

// NewComposer uses the advanced estimator when estimator is nil. checker may be nil when
// breach checks are disabled.
func NewComposer(estimator cracktime.Estimator, checker BreachChecker) *Composer {
	if estimator == nil {
		estimator = cracktime.Advanced{}
	}

	return &Composer{estimator: estimator, checker: checker}
}

func (c *Composer) Compose(ctx context.Context, password string, opts Options) Report {
	r := Report{
		Strength:   strength.Evaluate(password),
		Strategy:   c.estimator.Name(),
		CrackTimes: make(map[cracktime.Mode]string, len(cracktime.Modes)),
		Pattern:    patternScore(password),
	}

	for _, mode := range cracktime.Modes {
		r.CrackTimes[mode] = c.estimator.Estimate(password, mode)
	}

	if opts.Breach {
		b := c.CheckBreach(ctx, password)
		r.Breach = &b
	}

	return r
}

// CheckBreach runs only the breach lookup.
func (c *Composer) CheckBreach(ctx context.Context, password string) BreachResult {
	if c.checker == nil {
		return BreachResult{Error: "breach check disabled"}
	}

	v, err := c.checker.Check(ctx, password)
	if err != nil {
		if !errors.Is(err, hibp.ErrUnavailable) {
			log.Error().Err(err).Msg("unexpected breach check failure")
		} else {
			log.Warn().Err(err).Msg("breach check unavailable")
		}
		return BreachResult{Error: hibp.ErrUnavailable.Error()}
	}

	return BreachResult{Available: true, Found: v.Found, Count: v.Count}
}

// patternLimit caps the runes matched by zxcvbn, its matching cost grows faster than linearly.
// The strength report and crack times still see the whole password.
const patternLimit = 100

func patternScore(password string) PatternScore {
	if password == "" {
		return PatternScore{}
	}

	if runes := []rune(password); len(runes) > patternLimit {
		password = string(runes[:patternLimit])
	}

	m := zxcvbn.PasswordStrength(password, nil)
	return PatternScore{
		Score:            m.Score,
		Entropy:          m.Entropy,
		CrackTimeSeconds: m.CrackTime,
		CrackTimeDisplay: m.CrackTimeDisplay,
	}
}
