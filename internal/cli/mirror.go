package cli

import (
	"context"
	"fmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"zpassword/internal/util"
	"zpassword/pkg/hibp"
)

// mirrorSizeGb is the free space a full mirror needs, with some headroom.
const mirrorSizeGb = 40

var (
	mirrorCmd = &cobra.Command{
		Use:   "mirror",
		Short: "Download the Pwned Passwords hashes (SHA1) to a local file, one range at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mirrorCommand()
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	mirrorCmd.Flags().StringVarP(&outFile, "out-file", "o", "./pwned-sha1.txt", "Output file path. Can be absolute or relative.")
	mirrorCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite any existing files while writing the results.")
	mirrorCmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of threads to use for the download. If omitted or less than 2, defaults to eight times the number of logical processors of the machine.")
	mirrorCmd.Flags().IntVarP(&ranges, "ranges", "r", hibp.TotalRanges, "Number of ranges to download, starting at 00000.")
	mirrorCmd.Flags().StringVar(&hibpURL, "hibp-url", hibp.DefaultBaseURL, "Base URL of the Pwned Passwords range API.")

	rootCmd.AddCommand(mirrorCmd)
}

func mirrorCommand() error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	if ranges < 1 || ranges > hibp.TotalRanges {
		return fmt.Errorf("ranges must be between 1 and %d", hibp.TotalRanges)
	}

	abs, err := filepath.Abs(outFile)
	if err != nil {
		return fmt.Errorf("could not get absolute path of file: %w", err)
	}

	if !overwrite {
		if _, err = os.Stat(abs); err == nil {
			return fmt.Errorf("file %s exists and overwrite flag is not set", abs)
		}
	}

	if ranges == hibp.TotalRanges {
		if err = util.CheckDiskSpace(abs, mirrorSizeGb); err != nil {
			return err
		}
	}

	file, err := os.Create(abs)
	if err != nil {
		return err
	}

	defer func(file *os.File) {
		if err = file.Close(); err != nil {
			log.Error().Err(err).Msg("error closing Pwned Passwords file")
		}
	}(file)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer util.Stats()()

	d := hibp.NewDownloader(file, threads, hibpURL)
	return d.Mirror(ctx, ranges)
}
