package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"image-drop/internal/store"
)

func TestUploadHappyPath(t *testing.T) {
	cfg := newTestConfig(t)
	img := jpegBytes(t, 200, 50)

	rr := doUpload(t, cfg, "cat,orange", img)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "Ok" {
		t.Errorf("body = %q, want Ok", rr.Body.String())
	}

	mem := cfg.Meta.(*store.Memory)
	tags, ok := mem.Tags(1)
	if !ok {
		t.Fatal("no metadata row for id 1")
	}
	if tags != "cat,orange" {
		t.Errorf("tags = %q", tags)
	}

	if _, _, err := cfg.Blobs.ReadOriginal(1); err != nil {
		t.Fatalf("original not committed: %v", err)
	}

	// Thumbnail derivation is async; drain the pool before checking.
	cfg.Pool.Wait()
	if !cfg.Blobs.HasThumbnail(1) {
		t.Error("thumbnail missing after pool drain")
	}
}

func TestUploadIDsIncrease(t *testing.T) {
	cfg := newTestConfig(t)
	img := jpegBytes(t, 20, 20)

	for want := int64(1); want <= 3; want++ {
		rr := doUpload(t, cfg, "t", img)
		if rr.Code != http.StatusOK {
			t.Fatalf("upload %d: status %d", want, rr.Code)
		}
		if _, _, err := cfg.Blobs.ReadOriginal(want); err != nil {
			t.Errorf("original for id %d missing: %v", want, err)
		}
	}
	cfg.Pool.Wait()
}

func TestUploadMissingImageField(t *testing.T) {
	cfg := newTestConfig(t)
	body, contentType := multipartBody(t,
		map[string][]byte{"tags": []byte("only-tags")}, "tags")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if n, _ := cfg.Meta.Count(context.Background()); n != 0 {
		t.Errorf("metadata rows committed on malformed request: %d", n)
	}
}

func TestUploadMissingTagsField(t *testing.T) {
	cfg := newTestConfig(t)
	body, contentType := multipartBody(t,
		map[string][]byte{"image": jpegBytes(t, 10, 10)}, "image")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if n, _ := cfg.Meta.Count(context.Background()); n != 0 {
		t.Errorf("metadata rows committed on malformed request: %d", n)
	}
	if _, _, err := cfg.Blobs.ReadOriginal(1); err == nil {
		t.Error("blob committed on malformed request")
	}
}

func TestUploadUnexpectedField(t *testing.T) {
	cfg := newTestConfig(t)
	body, contentType := multipartBody(t,
		map[string][]byte{
			"tags":  []byte("t"),
			"evil":  []byte("x"),
			"image": jpegBytes(t, 10, 10),
		}, "tags", "evil", "image")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "unexpected field") {
		t.Errorf("body = %q", rr.Body.String())
	}
	if n, _ := cfg.Meta.Count(context.Background()); n != 0 {
		t.Errorf("metadata rows committed on malformed request: %d", n)
	}
}

func TestUploadNotMultipart(t *testing.T) {
	cfg := newTestConfig(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain body"))
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUploadBodyTooLarge(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.MaxUploadBytes = 256

	rr := doUpload(t, cfg, "t", jpegBytes(t, 200, 200))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestUploadNonImagePayloadStillAccepted(t *testing.T) {
	// The upload pipeline does not decode; format problems surface
	// later in derivation, which is logged and left for backfill.
	cfg := newTestConfig(t)

	rr := doUpload(t, cfg, "t", []byte("not an image"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	cfg.Pool.Wait()
	if cfg.Blobs.HasThumbnail(1) {
		t.Error("thumbnail derived from undecodable payload")
	}
	if _, _, err := cfg.Blobs.ReadOriginal(1); err != nil {
		t.Errorf("original should still be committed: %v", err)
	}
}

func TestConcurrentUploadsGetDistinctIDs(t *testing.T) {
	cfg := newTestConfig(t)
	img := jpegBytes(t, 30, 30)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = doUpload(t, cfg, "c", img).Code
		}(i)
	}
	wg.Wait()
	cfg.Pool.Wait()

	for i, code := range codes {
		if code != http.StatusOK {
			t.Fatalf("upload %d: status %d", i, code)
		}
	}

	// Both identifiers must exist and be retrievable independently.
	for id := int64(1); id <= 2; id++ {
		rc, _, err := cfg.Blobs.ReadOriginal(id)
		if err != nil {
			t.Errorf("id %d: %v", id, err)
			continue
		}
		rc.Close()
	}
}
