package cli

import (
	"context"
	"errors"
	"fmt"
	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"strings"
	"time"
	"zpassword/internal/util"
	"zpassword/pkg/cracktime"
	"zpassword/pkg/hibp"
	"zpassword/pkg/report"
	"zpassword/pkg/strength"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check [password]",
		Short: "Estimate the strength and crack time of a password",
		Args:  passwordArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				// Dummy string
				return checkCommand("")
			} else {
				return checkCommand(args[0])
			}
		},
	}
)

func init() {
	checkCmd.Flags().BoolVarP(&interactive, "interactive", "n", false, "Interactive mode.")
	checkCmd.Flags().BoolVarP(&breach, "breach", "b", false, "Also check the password against the Pwned Passwords range API.")
	checkCmd.Flags().StringVar(&strategy, "strategy", "advanced", "Crack time estimation strategy, one of [simple advanced].")
	checkCmd.Flags().StringVar(&protocol, "protocol", "", "Also estimate an online attack against this protocol, one of [ssh http-form rdp].")
	checkCmd.Flags().StringVar(&hashAlgorithm, "hash", "", "Also estimate an offline attack on this hash algorithm, one of [MD5 SHA-256 bcrypt NTLM].")
	addBreachFlags(checkCmd)

	rootCmd.AddCommand(checkCmd)
}

// passwordArgs requires the password argument unless running interactively.
func passwordArgs(cmd *cobra.Command, args []string) error {
	if !interactive {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return err
		}
	}

	return nil
}

func addBreachFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&hibpURL, "hibp-url", hibp.DefaultBaseURL, "Base URL of the Pwned Passwords range API.")
	cmd.Flags().BoolVar(&padding, "padding", true, "Ask the range API to pad responses so their size does not leak the prefix.")
	cmd.Flags().IntVar(&retries, "retries", 0, "Retries of a failed range request. By default a failed request ends the check.")
}

func checkCommand(password string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	estimator, ok := cracktime.ByName(strategy)
	if !ok {
		return fmt.Errorf("unknown strategy %q", strategy)
	}

	var checker report.BreachChecker
	if breach {
		c, closer, err := newBreachChecker(interactive)
		if err != nil {
			return err
		}
		defer closer()
		checker = c
	}

	composer := report.NewComposer(estimator, checker)
	opts := report.Options{Breach: breach}
	handle := func(input string) {
		printReport(composer.Compose(context.Background(), input, opts))
		for _, line := range toolEstimates(input, protocol, hashAlgorithm) {
			log.Info().Msg(line)
		}
	}

	if !interactive {
		handle(password)
		return nil
	}

	return runInteractiveSession(maskedPrompt(), handle)
}

// toolEstimates runs the advanced model against a specific protocol and hash algorithm.
// Empty names are skipped.
func toolEstimates(password, protocol, algorithm string) []string {
	var lines []string
	bits := strength.Entropy(password)
	a := cracktime.Advanced{}

	if protocol != "" {
		if _, ok := cracktime.ProtocolRates[strings.ToLower(protocol)]; !ok {
			log.Warn().Msgf("unknown protocol %s, using %s", protocol, cracktime.DefaultProtocol)
		}
		lines = append(lines, fmt.Sprintf("Crack time (online, %s): %s", protocol, a.Online(bits, protocol)))
	}
	if algorithm != "" {
		lines = append(lines, fmt.Sprintf("Crack time (offline, %s): %s", algorithm, a.Offline(bits, algorithm)))
	}

	return lines
}

// newBreachChecker builds a checker for command line use. Interactive sessions keep ranges
// in memory so a repeated prefix is not fetched twice.
func newBreachChecker(cached bool) (*hibp.Checker, func(), error) {
	opts := []hibp.Option{hibp.WithBaseURL(hibpURL), hibp.WithPadding(padding)}
	closer := func() {}

	if cached {
		cache, err := hibp.NewMemoryCache(16<<20, time.Hour)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, hibp.WithCache(cache))
		closer = cache.Close
	}

	return hibp.NewChecker(hibp.NewHttpClient(10*time.Second, retries), opts...), closer, nil
}

func maskedPrompt() promptui.Prompt {
	return promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if len(input) == 0 {
				return errors.New("please enter a valid password")
			}
			return nil
		},
	}
}

func runInteractiveSession(prompt promptui.Prompt, handle func(input string)) error {
	log.Info().Msgf("Running interactive session. ^C to exit")
	for {
		result, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				log.Info().Msgf("Goodbye")
			} else {
				log.Error().Err(err).Msgf("Error during interactive session")
			}
			// No return to avoid the default cobra error message
			return nil
		}

		handle(result)
	}
}

func printReport(r report.Report) {
	s := r.Strength
	log.Info().Msgf("Length: %d, character categories: %d", s.Length, s.Profile.Categories())
	log.Info().Msgf("Entropy: %.2f bits, complexity: %.0f/100", s.EntropyBits, s.ComplexityScore)

	for _, mode := range cracktime.Modes {
		log.Info().Msgf("Crack time (%s, %s): %s", r.Strategy, mode, r.CrackTimes[mode])
	}
	log.Info().Msgf("Pattern score: %d/4, crack time %s", r.Pattern.Score, r.Pattern.CrackTimeDisplay)

	for _, rec := range s.Recommendations {
		log.Info().Msgf("Recommendation: %s", rec)
	}

	if r.Breach != nil {
		printBreach(*r.Breach)
	}
}

func printBreach(b report.BreachResult) {
	switch {
	case !b.Available:
		log.Warn().Msgf("Breach check could not be completed, try again later")
	case b.Found:
		p := message.NewPrinter(language.English)
		log.Warn().Msg(p.Sprintf("Password is present in %d breaches", b.Count))
	default:
		log.Info().Msgf("Password is not present")
	}
}
