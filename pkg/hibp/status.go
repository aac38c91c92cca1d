package hibp

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"net/http"
	"sync/atomic"
	"time"
)

type status struct {
	rangesDownloaded uint64
	hashesDownloaded uint64
	requests         uint64
	edgeHits         uint64
	requestTimeTotal uint64
	start            time.Time
	ticker           *time.Ticker
	progress         chan bool
	totalRanges      int
}

func newStatus(totalRanges int) *status {
	return &status{
		start:       time.Now(),
		ticker:      time.NewTicker(10 * time.Second),
		progress:    make(chan bool),
		totalRanges: totalRanges,
	}
}

// BeginProgress reports the progress of the mirror every 10 seconds.
func (s *status) BeginProgress() {
	go func() {
		for {
			select {
			case <-s.progress:
				return
			case <-s.ticker.C:
				done := float64(atomic.LoadUint64(&s.rangesDownloaded))
				log.Info().Msgf("%.2f%% ranges mirrored. %.0f hashes/s", done*100/float64(s.totalRanges), s.hashesPerSecond())
			}
		}
	}()
}

func (s *status) RangeDownloaded() {
	atomic.AddUint64(&s.rangesDownloaded, 1)
}

func (s *status) HashDownloaded() {
	atomic.AddUint64(&s.hashesDownloaded, 1)
}

// RequestComplete records the latency and whether the CDN served the range from its cache.
func (s *status) RequestComplete(res *http.Response, millis int64) {
	atomic.AddUint64(&s.requestTimeTotal, uint64(millis))
	atomic.AddUint64(&s.requests, 1)

	if res.Header.Get("CF-Cache-Status") == "HIT" {
		atomic.AddUint64(&s.edgeHits, 1)
	}
}

func (s *status) hashesPerSecond() float64 {
	hashes := float64(atomic.LoadUint64(&s.hashesDownloaded))
	if elapsed := time.Since(s.start); elapsed > 0 {
		return hashes / elapsed.Seconds()
	}
	return hashes
}

func (s *status) Done() {
	s.ticker.Stop()
	s.progress <- true

	requests := atomic.LoadUint64(&s.requests)
	p := message.NewPrinter(language.English)
	log.Info().Msgf("mirrored %s ranges (%s hashes) in %v",
		p.Sprintf("%d", atomic.LoadUint64(&s.rangesDownloaded)), p.Sprintf("%d", atomic.LoadUint64(&s.hashesDownloaded)), time.Since(s.start))

	if requests == 0 {
		return
	}
	log.Debug().Msgf("made %s requests. Average response time %.2f ms, edge cache hits %.2f%%",
		p.Sprintf("%d", requests),
		float64(s.requestTimeTotal)/float64(requests),
		float64(s.edgeHits*100)/float64(requests))
}
