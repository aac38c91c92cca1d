// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"github.com/thinhdanggroup/executor"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"
)

// TotalRanges is the number of 5 hex character prefixes, 00000 to FFFFF.
const TotalRanges = 1 << 20

// Downloader mirrors the breach corpus into a local HASH:COUNT file, one range at a time.
type Downloader struct {
	parallelism int
	baseURL     string
	stat        *status
	wm          sync.Mutex
	writer      *bufio.Writer
	http        *retryablehttp.Client
	ctx         context.Context
	failed      []string
}

func NewDownloader(out io.Writer, parallelism int, baseURL string) *Downloader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Downloader{
		parallelism: parallelism,
		baseURL:     baseURL,
		writer:      bufio.NewWriter(out),
		http:        mirrorClient(),
	}
}

// mirrorClient retries hard, a mirror run issues a million requests.
func mirrorClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	// Too much garbage in the logs, it slowed the download too much.
	client.Logger = nil
	client.RetryMax = 10
	client.HTTPClient.Timeout = 30 * time.Second
	return client
}

// Mirror downloads the first ranges prefixes. Ranges that keep failing after the retries are
// reported in the returned error, everything else is written.
func (d *Downloader) Mirror(ctx context.Context, ranges int) error {
	if ranges <= 0 || ranges > TotalRanges {
		ranges = TotalRanges
	}

	threads := d.parallelism
	if threads <= 0 {
		threads = runtime.NumCPU() * 8
	}

	// This is a bounded thread pool. I just didn't want to implement it myself...
	tasks, err := executor.New(executor.Config{
		ReqPerSeconds: 0,
		QueueSize:     2 * threads,
		NumWorkers:    threads,
	})
	if err != nil {
		return err
	}
	defer tasks.Close()

	d.ctx = ctx
	log.Info().Msgf("mirroring %d ranges with %d threads, ^C to stop the process", ranges, threads)
	d.stat = newStatus(ranges)
	d.stat.BeginProgress()

	for i := 0; i < ranges; i++ {
		if ctx.Err() != nil {
			break
		}
		if err = tasks.Publish(d.processRange, RangePrefix(i)); err != nil {
			log.Panic().Err(err).Msgf("there is a programming error here.")
		}
	}

	tasks.Wait()
	d.stat.Done()

	if err = d.writer.Flush(); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if len(d.failed) > 0 {
		return fmt.Errorf("%d ranges failed to download, first: %s", len(d.failed), d.failed[0])
	}
	return nil
}

// RangePrefix formats i as the 5 character uppercase hex prefix.
func RangePrefix(i int) string {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(i))
	return strings.ToUpper(hex.EncodeToString(buf)[3:])
}

func (d *Downloader) processRange(prefix string) {
	data, err := d.downloadRange(d.ctx, prefix)
	if err != nil {
		log.Error().Err(err).Msgf("error downloading range %s", prefix)
		d.wm.Lock()
		d.failed = append(d.failed, prefix)
		d.wm.Unlock()
		return
	}

	if err = d.writeRange(prefix, data); err != nil {
		log.Fatal().Err(err).Msgf("error during file write for range %s. Stopping process", prefix)
	}
	d.stat.RangeDownloaded()
}

func (d *Downloader) downloadRange(ctx context.Context, prefix string) ([]byte, error) {
	timer := time.Now()
	req, err := newRangeRequest(ctx, d.baseURL, prefix, false)
	if err != nil {
		return nil, err
	}

	retryable, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}

	res, err := d.http.Do(retryable)
	if err != nil {
		return nil, err
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
		return nil, err
	}

	d.stat.RequestComplete(res, time.Since(timer).Milliseconds())
	return body, nil
}

func (d *Downloader) writeRange(prefix string, r []byte) error {
	// Synchronize file writes, we don't want intersected or incomplete lines written to the file.
	d.wm.Lock()
	defer d.wm.Unlock()

	scanner := bufio.NewScanner(bytes.NewReader(r))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(d.writer, "%s%s\r\n", prefix, line); err != nil {
			return err
		}
		d.stat.HashDownloaded()
	}

	return scanner.Err()
}
