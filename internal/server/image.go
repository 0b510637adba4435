package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"image-drop/internal/blob"
)

// imageHandler handles GET /{id}: it streams the original image bytes
// straight from the blob store, never buffering the whole file.
func (cfg Config) imageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id < 1 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		rc, size, err := cfg.Blobs.ReadOriginal(id)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				GetMetrics().RecordDownloadError()
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			GetMetrics().RecordDownloadError()
			log.Printf("rid=%s msg=%q id=%d err=%v",
				RequestIDFromContext(r.Context()), "blob_open_failed", id, err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename=%s`, blob.OriginalName(id)))
		if size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}
		w.WriteHeader(http.StatusOK)

		n, _ := io.Copy(w, rc)
		GetMetrics().RecordDownload(n)
	})
}
