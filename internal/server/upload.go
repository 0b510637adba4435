package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"image-drop/internal/blob"
)

func isMaxBytesError(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// uploadHandler handles POST /upload requests carrying a multipart body
// with exactly two parts: "tags" (free text) and "image" (binary).
//
// The pipeline is strictly ordered: metadata insert, then original blob
// write, then asynchronous thumbnail dispatch. The response is sent as
// soon as the blob is committed; the client never waits for derivation.
// There is no transaction spanning both stores, so a blob-write failure
// leaves an orphan metadata row. That window is accepted: retrieval
// returns 404 for it and backfill skips it.
func (cfg Config) uploadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := RequestIDFromContext(r.Context())

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}

		var (
			tags      string
			tagsSeen  bool
			imageSeen bool
			imageData []byte
		)

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				if isMaxBytesError(err) {
					http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, "bad multipart", http.StatusBadRequest)
				return
			}

			switch part.FormName() {
			case "tags":
				b, err := io.ReadAll(part)
				part.Close()
				if err != nil {
					http.Error(w, "bad multipart", http.StatusBadRequest)
					return
				}
				tags = string(b)
				tagsSeen = true
			case "image":
				b, err := io.ReadAll(part)
				part.Close()
				if err != nil {
					if isMaxBytesError(err) {
						http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
						return
					}
					http.Error(w, "bad multipart", http.StatusBadRequest)
					return
				}
				imageData = b
				imageSeen = true
			default:
				part.Close()
				http.Error(w, "unexpected field: "+part.FormName(), http.StatusBadRequest)
				return
			}
		}

		if !tagsSeen || !imageSeen {
			http.Error(w, "missing tags or image field", http.StatusBadRequest)
			return
		}

		id, err := cfg.Meta.Insert(r.Context(), tags)
		if err != nil {
			GetMetrics().RecordUploadError()
			log.Printf("rid=%s msg=%q err=%v", rid, "metadata_insert_failed", err)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		if err := cfg.Blobs.WriteOriginal(id, bytes.NewReader(imageData)); err != nil {
			GetMetrics().RecordUploadError()
			log.Printf("rid=%s msg=%q id=%d err=%v", rid, "blob_write_failed", id, err)
			if errors.Is(err, blob.ErrConflict) {
				// Should not happen for a freshly minted id; checked anyway.
				http.Error(w, "conflict", http.StatusConflict)
				return
			}
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}

		GetMetrics().RecordUpload(int64(len(imageData)), time.Since(start))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "Ok")

		// Derivation runs after the response on the worker pool. The
		// request context is about to die, so dispatch on Background;
		// a failure here is logged and left for the backfill job.
		if err := cfg.Pool.Submit(context.Background(), func() {
			if err := cfg.deriveThumbnail(id); err != nil {
				Error("thumbnail derivation failed", map[string]any{"id": id}, err)
				GetMetrics().RecordThumbnailError()
				return
			}
			GetMetrics().RecordThumbnail()
		}); err != nil {
			Error("thumbnail dispatch failed", map[string]any{"id": id}, err)
		}
	})
}
