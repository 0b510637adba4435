package server

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"image-drop/internal/blob"
	"image-drop/internal/imgproc"
	"image-drop/internal/store"
)

// newTestConfig builds a Config over an in-memory metadata store and a
// temp-dir filesystem blob store.
func newTestConfig(t *testing.T) Config {
	t.Helper()
	blobs, err := blob.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	return Config{
		Addr:  ":0",
		Build: BuildInfo{Version: "test", Commit: "none"},
		Meta:  store.NewMemory(),
		Blobs: blobs,
		Pool:  imgproc.NewPool(2),
	}
}

// jpegBytes encodes a w×h image as JPEG.
func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a multipart body from named fields. Field order
// follows the order of names.
func multipartBody(t *testing.T, fields map[string][]byte, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		var (
			fw  io.Writer
			err error
		)
		if name == "image" {
			fw, err = mw.CreateFormFile(name, "upload.jpg")
		} else {
			fw, err = mw.CreateFormField(name)
		}
		if err != nil {
			t.Fatalf("create part %q: %v", name, err)
		}
		if _, err := fw.Write(fields[name]); err != nil {
			t.Fatalf("write part %q: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// doUpload posts a multipart upload to cfg's upload handler.
func doUpload(t *testing.T, cfg Config, tags string, img []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t,
		map[string][]byte{"tags": []byte(tags), "image": img},
		"tags", "image")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	cfg.uploadHandler().ServeHTTP(rr, req)
	return rr
}
