package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"zpassword/internal/config"
	"zpassword/pkg/cracktime"
	"zpassword/pkg/hibp"
	"zpassword/pkg/strength"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	out, err := run(t, "generate", "-l", "10", "-c", "3")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 3)
	for _, password := range lines {
		require.Len(t, password, 10)
		require.Equal(t, 4, strength.Classify(password).Categories(), password)
	}
}

func TestGenerateCommand_Length(t *testing.T) {
	_, err := run(t, "generate", "-l", "9", "-c", "1")
	require.ErrorContains(t, err, "length must be one of")
}

func TestCheckCommand_Strategy(t *testing.T) {
	_, err := run(t, "check", "--strategy", "rainbow", "Tr0ub4dor&3")
	require.ErrorContains(t, err, "unknown strategy")

	_, err = run(t, "check", "--strategy", "simple", "Tr0ub4dor&3")
	require.NoError(t, err)
}

func TestCheckCommand_Args(t *testing.T) {
	_, err := run(t, "check", "--strategy", "advanced")
	require.Error(t, err)
}

func TestMirrorCommand_Ranges(t *testing.T) {
	_, err := run(t, "mirror", "-r", "0", "-o", t.TempDir()+"/pwned.txt")
	require.ErrorContains(t, err, "ranges must be between")
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Config{Port: 3100, Strategy: "advanced", TLSCert: "cert.pem", TLSKey: "key.pem"}

	require.NoError(t, serveCmd.Flags().Set("port", "8443"))
	require.NoError(t, serveCmd.Flags().Set("self-tls", "true"))
	applyFlags(serveCmd, &cfg)

	require.EqualValues(t, 8443, cfg.Port)
	require.True(t, cfg.SelfTLS)
	require.Equal(t, "advanced", cfg.Strategy)
	require.Equal(t, "cert.pem", cfg.TLSCert)
}

func unavailableServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestBreachChecker_NoRetryByDefault(t *testing.T) {
	srv, requests := unavailableServer(t)

	_, err := run(t, "breach", "--hibp-url", srv.URL, "Tr0ub4dor&3")
	require.NoError(t, err)
	require.EqualValues(t, 1, requests.Load())

	checker, closer, err := newBreachChecker(false)
	require.NoError(t, err)
	defer closer()

	_, err = checker.Check(context.Background(), "Tr0ub4dor&3")
	require.ErrorIs(t, err, hibp.ErrUnavailable)
	require.EqualValues(t, 2, requests.Load())
}

func TestToolEstimates(t *testing.T) {
	require.Empty(t, toolEstimates("password", "", ""))

	bits := strength.Entropy("password")
	lines := toolEstimates("password", "ssh", "MD5")
	require.Equal(t, []string{
		"Crack time (online, ssh): " + cracktime.Advanced{}.Online(bits, "ssh"),
		"Crack time (offline, MD5): 2 hours 15 minutes",
	}, lines)
	require.NotEqual(t, cracktime.Advanced{}.Online(bits, "ssh"), cracktime.Advanced{}.Online(bits, "http-form"))
}
