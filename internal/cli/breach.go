package cli

import (
	"context"
	"github.com/spf13/cobra"
	"zpassword/internal/util"
	"zpassword/pkg/report"
)

var (
	breachCmd = &cobra.Command{
		Use:   "breach [password]",
		Short: "Check a password against the Pwned Passwords range API",
		Long: "Check a password against the Pwned Passwords range API. Only the first five characters " +
			"of the password's SHA-1 hash are sent",
		Args: passwordArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				// Dummy string
				return breachCommand("")
			} else {
				return breachCommand(args[0])
			}
		},
	}
)

func init() {
	breachCmd.Flags().BoolVarP(&interactive, "interactive", "n", false, "Interactive mode.")
	addBreachFlags(breachCmd)

	rootCmd.AddCommand(breachCmd)
}

func breachCommand(password string) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	checker, closer, err := newBreachChecker(interactive)
	if err != nil {
		return err
	}
	defer closer()

	composer := report.NewComposer(nil, checker)
	if !interactive {
		printBreach(composer.CheckBreach(context.Background(), password))
		return nil
	}

	return runInteractiveSession(maskedPrompt(), func(input string) {
		printBreach(composer.CheckBreach(context.Background(), input))
	})
}
