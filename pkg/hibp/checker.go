package hibp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"github.com/rs/zerolog/log"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Verdict of a completed breach check.
type Verdict struct {
	Found bool  `json:"found"`
	Count int64 `json:"count"`
}

// Checker queries the Pwned Passwords range API using k-anonymity: only the first five hex
// characters of the SHA-1 hash leave the process.
type Checker struct {
	doer    Doer
	baseURL string
	padding bool
	cache   RangeCache
}

type Option func(*Checker)

func WithBaseURL(url string) Option {
	return func(c *Checker) {
		c.baseURL = url
	}
}

// WithPadding asks the API to pad responses with zero count entries.
func WithPadding(padding bool) Option {
	return func(c *Checker) {
		c.padding = padding
	}
}

func WithCache(cache RangeCache) Option {
	return func(c *Checker) {
		c.cache = cache
	}
}

func NewChecker(doer Doer, opts ...Option) *Checker {
	c := &Checker{
		doer:    doer,
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check returns the verdict for password, or an error wrapping ErrUnavailable when the range
// could not be fetched.
func (c *Checker) Check(ctx context.Context, password string) (Verdict, error) {
	prefix, suffix := HashPassword(password)

	body, err := c.fetchRange(ctx, prefix)
	if err != nil {
		return Verdict{}, err
	}

	return scanRange(prefix, suffix, body)
}

func (c *Checker) fetchRange(ctx context.Context, prefix string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, prefix)
		if err != nil {
			log.Warn().Err(err).Msgf("range cache lookup failed for %s", prefix)
		} else if ok {
			log.Debug().Msgf("range %s served from cache", prefix)
			return body, nil
		}
	}

	req, err := newRangeRequest(ctx, c.baseURL, prefix, c.padding)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w: %w", prefix, ErrUnavailable, err)
	}

	res, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w: %w", prefix, ErrUnavailable, err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn().Err(err).Msgf("error closing body for range %s", prefix)
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		return nil, &StatusError{Prefix: prefix, StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("range %s: %w: %w", prefix, ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("range %s: %w: empty response", prefix, ErrUnavailable)
	}

	if c.cache != nil {
		if err = c.cache.Set(ctx, prefix, body); err != nil {
			log.Warn().Err(err).Msgf("range cache store failed for %s", prefix)
		}
	}

	return body, nil
}

// scanRange looks for the exact suffix in SUFFIX:COUNT lines. Malformed lines are skipped.
func scanRange(prefix, suffix string, body []byte) (Verdict, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if text == "" {
			continue
		}

		hashSuffix, rawCount, ok := strings.Cut(text, ":")
		if !ok {
			log.Warn().Msgf("skipping line %d of range %s: missing delimiter", line, prefix)
			continue
		}

		count, err := strconv.ParseInt(strings.TrimSpace(rawCount), 10, 64)
		if err != nil || count < 0 {
			log.Warn().Msgf("skipping line %d of range %s: invalid count %q", line, prefix, rawCount)
			continue
		}

		if strings.TrimSpace(hashSuffix) == suffix {
			// Padding entries carry a zero count and are not real breaches.
			return Verdict{Found: count > 0, Count: count}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return Verdict{}, fmt.Errorf("range %s: %w: %w", prefix, ErrUnavailable, err)
	}

	return Verdict{}, nil
}
