package cli

import (
	"fmt"
	"github.com/spf13/cobra"
	"zpassword/internal/util"
	"zpassword/pkg/generator"
)

var (
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate random passwords with at least one lowercase, uppercase, digit and symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateCommand(cmd)
		},
	}
)

func init() {
	generateCmd.Flags().IntVarP(&length, "length", "l", 12, fmt.Sprintf("Password length, one of %v.", generator.AllowedLengths))
	generateCmd.Flags().IntVarP(&count, "count", "c", 1, "Number of passwords to generate.")

	rootCmd.AddCommand(generateCmd)
}

func generateCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	if !generator.Allowed(length) {
		return fmt.Errorf("length must be one of %v", generator.AllowedLengths)
	}

	for i := 0; i < count; i++ {
		password, err := generator.Generate(length)
		if err != nil {
			return err
		}
		// stdout, not the log, so the output can be piped
		fmt.Fprintln(cmd.OutOrStdout(), password)
	}

	return nil
}
