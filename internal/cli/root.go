// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "zpassword [COMMAND] [OPTIONS]",
		Short: "Generate passwords and check their strength and presence in the Pwned Passwords corpus",
		Long: "Generate passwords, estimate how long they would take to crack and check them against the " +
			"Pwned Passwords (haveibeenpwned.com) range API without sending the password or its full hash. " +
			"The serve command exposes the same features, plus a password history with notes, over HTTP",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print more information on the processing")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Enable the profiling server (pprof) when running commands")
	rootCmd.PersistentFlags().Uint16Var(&pprofPort, "profile-port", 6060, "The port to use for the pprof server. Only used if the profile flag is set")
}

func Execute() error {
	return rootCmd.Execute()
}
