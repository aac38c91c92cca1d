package util

import (
	"fmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
	"net/http"
	_ "net/http/pprof"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode"
)

// Stats logs the elapsed time and memory use when the returned func runs.
func Stats() func() {
	start := time.Now()
	return func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		log.Debug().Msgf("time to run %v", time.Since(start))
		log.Debug().Msgf("Alloc: %d MB, TotalAlloc: %d MB, Sys: %d MB",
			ms.Alloc/1024/1024, ms.TotalAlloc/1024/1024, ms.Sys/1024/1024)
		log.Debug().Msgf("HeapAlloc: %d MB, HeapObjects: %d, GC: %d", ms.HeapAlloc/1024/1024, ms.HeapObjects, ms.NumGC)
	}
}

func ApplyCliSettings(verbose bool, profile bool, pprofPort uint16) {
	if verbose {
		log.Warn().Msgf("verbosity up")
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if profile {
		log.Info().Msgf("profiling is enabled for this session. Server will listen on port %d", pprofPort)
		go func() {
			if err := http.ListenAndServe(fmt.Sprintf("localhost:%d", pprofPort), nil); err != nil {
				log.Error().Err(err).Msgf("error starting profiling server on port %d", pprofPort)
				return
			}
		}()
	}
}

// CheckDiskSpace fails when the partition holding fileName has less than sizeGb free. When the
// partition can't be found it only warns.
func CheckDiskSpace(fileName string, sizeGb int) error {
	abs, err := filepath.Abs(fileName)
	if err != nil {
		return err
	}

	parts, err := disk.Partitions(false)
	if err != nil {
		log.Debug().Err(err).Msgf("error getting current storage sizes")
		return nil
	}

	// The longest matching mountpoint is the partition the file lives in.
	mount := ""
	for _, part := range parts {
		if strings.HasPrefix(abs, part.Mountpoint) && len(part.Mountpoint) > len(mount) {
			mount = part.Mountpoint
		}
	}

	if mount == "" {
		log.Warn().Msgf("IMPORTANT: the breach corpus is very large, please ensure you have at least %d GiB free.", sizeGb)
		return nil
	}

	usage, err := disk.Usage(mount)
	if err != nil {
		log.Debug().Err(err).Msgf("error getting current storage sizes")
		return nil
	}

	log.Debug().Msgf("%s has %.2f GiB free", mount, float64(usage.Free)/(1024*1024*1024))
	if required := uint64(sizeGb) * 1024 * 1024 * 1024; required > usage.Free {
		return fmt.Errorf("drive %s does not have %d GiB free for the download", mount, sizeGb)
	}
	return nil
}

// ToScreamingSnakeCase turns Go field names into env names: TLSCert -> TLS_CERT. Space
// separated lists, as found in validator params, are converted word by word.
func ToScreamingSnakeCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = screamingSnake(w)
	}
	return strings.Join(words, ", ")
}

func screamingSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
