// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"crypto/sha1"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.pwnedpasswords.com"
	userAgent      = "zpassword-hibp-client/1.0"
	prefixLen      = 5
)

// ErrUnavailable means the breach check could not be completed. It never means "not found".
var ErrUnavailable = errors.New("breach check unavailable")

// StatusError is returned for any non 200 response of the range API.
type StatusError struct {
	Prefix     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("range %s failed with status %d", e.Prefix, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}

// Doer executes the outbound range request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HashPassword returns the uppercase hex SHA-1 of the password split in the 5 character
// prefix sent to the API and the 35 character suffix that stays local.
func HashPassword(password string) (prefix string, suffix string) {
	sum := sha1.Sum([]byte(password))
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:prefixLen], h[prefixLen:]
}

// NewHttpClient builds the default Doer. Retries are off unless retries > 0, a failed or
// non 200 round trip ends the check right away.
func NewHttpClient(timeout time.Duration, retries int) *http.Client {
	client := retryablehttp.NewClient()
	// The default logger writes every attempt to stderr.
	client.Logger = nil
	client.RetryMax = retries
	// Hand back the last response so the status code reaches the caller.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
			MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
		},
	}

	return client.StandardClient()
}

func newRangeRequest(ctx context.Context, baseURL string, prefix string, padding bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/range/%s", strings.TrimRight(baseURL, "/"), prefix),
		nil,
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	if padding {
		req.Header.Set("Add-Padding", "true")
	}
	return req, nil
}
