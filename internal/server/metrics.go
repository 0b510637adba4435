package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Metrics holds application counters.
type Metrics struct {
	mu sync.RWMutex

	uploadsTotal        int64
	uploadBytesTotal    int64
	uploadErrorsTotal   int64
	uploadDurationTotal time.Duration

	downloadsTotal      int64
	downloadBytesTotal  int64
	downloadErrorsTotal int64

	thumbnailsTotal      int64
	thumbnailErrorsTotal int64

	backfillRunsTotal    int64
	backfillDerivedTotal int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) RecordUpload(bytes int64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadBytesTotal += bytes
	m.uploadDurationTotal += duration
}

func (m *Metrics) RecordUploadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErrorsTotal++
}

func (m *Metrics) RecordDownload(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadsTotal++
	m.downloadBytesTotal += bytes
}

func (m *Metrics) RecordDownloadError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrorsTotal++
}

func (m *Metrics) RecordThumbnail() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thumbnailsTotal++
}

func (m *Metrics) RecordThumbnailError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thumbnailErrorsTotal++
}

func (m *Metrics) RecordThumbnailErrors(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thumbnailErrorsTotal += n
}

func (m *Metrics) RecordBackfillRun(derived int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backfillRunsTotal++
	m.backfillDerivedTotal += derived
	m.thumbnailsTotal += derived
}

// Snapshot returns the counters as a name→value map.
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int64{
		"uploads_total":          m.uploadsTotal,
		"upload_bytes_total":     m.uploadBytesTotal,
		"upload_errors_total":    m.uploadErrorsTotal,
		"upload_duration_ms":     m.uploadDurationTotal.Milliseconds(),
		"downloads_total":        m.downloadsTotal,
		"download_bytes_total":   m.downloadBytesTotal,
		"download_errors_total":  m.downloadErrorsTotal,
		"thumbnails_total":       m.thumbnailsTotal,
		"thumbnail_errors_total": m.thumbnailErrorsTotal,
		"backfill_runs_total":    m.backfillRunsTotal,
		"backfill_derived_total": m.backfillDerivedTotal,
	}
}

// metricsHandler serves the counters as plain key=value lines, plus the
// current image count from the metadata store.
func (cfg Config) metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		if n, err := cfg.Meta.Count(r.Context()); err == nil {
			fmt.Fprintf(w, "images_total %d\n", n)
		}

		snap := GetMetrics().Snapshot()
		keys := []string{
			"uploads_total", "upload_bytes_total", "upload_errors_total",
			"upload_duration_ms", "downloads_total", "download_bytes_total",
			"download_errors_total", "thumbnails_total",
			"thumbnail_errors_total", "backfill_runs_total",
			"backfill_derived_total",
		}
		for _, k := range keys {
			fmt.Fprintf(w, "%s %d\n", k, snap[k])
		}
	})
}
