package hibp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	passwordPrefix = "5BAA6"
	passwordSuffix = "1E4C9B93F3F0682250B6CF8331B7EE68FD8"
)

func rangeServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != "/range/"+passwordPrefix {
			t.Errorf("Should only query the prefix, got path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestHashPassword(t *testing.T) {
	prefix, suffix := HashPassword("password")
	if prefix != passwordPrefix || suffix != passwordSuffix {
		t.Errorf("HashPassword(password): %s %s, want: %s %s", prefix, suffix, passwordPrefix, passwordSuffix)
	}
	if len(prefix) != 5 || len(suffix) != 35 {
		t.Errorf("Prefix and suffix should be 5 and 35 characters")
	}
}

func TestChecker_Found(t *testing.T) {
	body := "003D68EB55068C33ACE09247EE4C639306B:3\r\n" +
		passwordSuffix + ":3861493\r\n" +
		"012C192B2F16F82EA0EB9EF18D9D539B0DD:1\r\n"
	srv := rangeServer(t, http.StatusOK, body, nil)

	checker := NewChecker(NewHttpClient(2*time.Second, 0), WithBaseURL(srv.URL))
	v, err := checker.Check(context.Background(), "password")
	if err != nil {
		t.Fatalf("Check should not fail: %s", err)
	}
	if !v.Found || v.Count != 3861493 {
		t.Errorf("Check(password): %+v, want found with 3861493", v)
	}
}

func TestChecker_NotFound(t *testing.T) {
	srv := rangeServer(t, http.StatusOK, "003D68EB55068C33ACE09247EE4C639306B:3\r\n", nil)

	v, err := NewChecker(srv.Client(), WithBaseURL(srv.URL)).Check(context.Background(), "password")
	if err != nil {
		t.Fatalf("Check should not fail: %s", err)
	}
	if v.Found || v.Count != 0 {
		t.Errorf("Check(password): %+v, want not found", v)
	}
}

func TestChecker_ServiceUnavailable(t *testing.T) {
	srv := rangeServer(t, http.StatusServiceUnavailable, "", nil)

	_, err := NewChecker(NewHttpClient(2*time.Second, 0), WithBaseURL(srv.URL)).Check(context.Background(), "password")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("A 503 should be unavailable, got %v", err)
	}

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Should surface the status code, got %v", err)
	}
}

func TestChecker_NetworkFailure(t *testing.T) {
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("dial tcp: connection refused")
	})

	v, err := NewChecker(doer).Check(context.Background(), "password")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Network failures should be unavailable, got %v", err)
	}
	if v.Found {
		t.Errorf("Verdict should be empty on failure")
	}
}

func TestChecker_EmptyBody(t *testing.T) {
	srv := rangeServer(t, http.StatusOK, "\r\n", nil)

	_, err := NewChecker(srv.Client(), WithBaseURL(srv.URL)).Check(context.Background(), "password")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("An empty range should be unavailable, got %v", err)
	}
}

func TestChecker_MalformedLines(t *testing.T) {
	body := "garbage\r\n" +
		"003D68EB55068C33ACE09247EE4C639306B:lots\r\n" +
		"\r\n" +
		"ABC:-4\r\n" +
		passwordSuffix + ":12\r\n"
	srv := rangeServer(t, http.StatusOK, body, nil)

	v, err := NewChecker(srv.Client(), WithBaseURL(srv.URL)).Check(context.Background(), "password")
	if err != nil {
		t.Fatalf("Malformed lines should not abort the scan: %s", err)
	}
	if !v.Found || v.Count != 12 {
		t.Errorf("Check(password): %+v, want found with 12", v)
	}
}

func TestChecker_CaseSensitiveSuffix(t *testing.T) {
	srv := rangeServer(t, http.StatusOK, strings.ToLower(passwordSuffix)+":9\r\n", nil)

	v, err := NewChecker(srv.Client(), WithBaseURL(srv.URL)).Check(context.Background(), "password")
	if err != nil {
		t.Fatalf("Check should not fail: %s", err)
	}
	if v.Found {
		t.Errorf("Lowercase suffixes should not match")
	}
}

func TestChecker_Padding(t *testing.T) {
	var padded bool
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		padded = req.Header.Get("Add-Padding") == "true"
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(passwordSuffix + ":0\r\n")),
		}, nil
	})

	v, err := NewChecker(doer, WithPadding(true)).Check(context.Background(), "password")
	if err != nil {
		t.Fatalf("Check should not fail: %s", err)
	}
	if !padded {
		t.Errorf("Should request padding")
	}
	if v.Found {
		t.Errorf("Zero count padding entries are not breaches")
	}
}

func TestChecker_OnlyPrefixLeaves(t *testing.T) {
	var seen *http.Request
	doer := doerFunc(func(req *http.Request) (*http.Response, error) {
		seen = req
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("AAAA:1"))}, nil
	})

	const plaintext = "Tr0ub4dor&3"
	prefix, suffix := HashPassword(plaintext)
	if _, err := NewChecker(doer).Check(context.Background(), plaintext); err != nil {
		t.Fatalf("Check should not fail: %s", err)
	}

	outbound := seen.URL.String()
	for k, v := range seen.Header {
		outbound += k + strings.Join(v, "")
	}
	if !strings.HasSuffix(seen.URL.Path, "/range/"+prefix) {
		t.Errorf("Should query by prefix, got %s", seen.URL.Path)
	}
	if seen.Body != nil {
		t.Errorf("Range requests should not carry a body")
	}
	if strings.Contains(outbound, suffix) || strings.Contains(outbound, plaintext) {
		t.Errorf("Suffix or plaintext leaked in the request: %s", outbound)
	}
}

func TestChecker_Cache(t *testing.T) {
	var hits int32
	srv := rangeServer(t, http.StatusOK, passwordSuffix+":7\r\n", &hits)

	cache, err := NewMemoryCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("Should not fail creating the cache: %s", err)
	}
	t.Cleanup(cache.Close)

	checker := NewChecker(srv.Client(), WithBaseURL(srv.URL), WithCache(cache))
	for i := 0; i < 3; i++ {
		v, err := checker.Check(context.Background(), "password")
		if err != nil {
			t.Fatalf("Check should not fail: %s", err)
		}
		if !v.Found || v.Count != 7 {
			t.Errorf("Check(password): %+v, want found with 7", v)
		}
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Range should be fetched once, fetched %d times", n)
	}
}

func TestChecker_Concurrent(t *testing.T) {
	srv := rangeServer(t, http.StatusOK, passwordSuffix+":42\r\n", nil)
	checker := NewChecker(srv.Client(), WithBaseURL(srv.URL))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := checker.Check(context.Background(), "password")
			if err != nil || !v.Found || v.Count != 42 {
				t.Errorf("Concurrent checks should agree, got %+v %v", v, err)
			}
		}()
	}
	wg.Wait()
}
