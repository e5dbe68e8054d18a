package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildFileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(64 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMediaServiceSavesImageWithDimensions(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(dir, "/static/uploads/")

	media, err := svc.Save(buildFileHeader(t, "map.png", "image/png", pngBytes(t, 32, 18)))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if media.Type != MediaTypeImage || media.Width != 32 || media.Height != 18 {
		t.Fatalf("unexpected media %+v", media)
	}
	if !strings.HasPrefix(media.URL, "/static/uploads/") || !strings.HasSuffix(media.URL, ".png") {
		t.Fatalf("unexpected url %q", media.URL)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.Base(media.URL))); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
}

func TestMediaServiceRejectsUnsupported(t *testing.T) {
	svc := NewMediaService(t.TempDir(), "")

	if _, err := svc.Save(buildFileHeader(t, "run.exe", "application/octet-stream", []byte("MZ"))); !errors.Is(err, ErrMediaUnsupported) {
		t.Fatalf("expected unsupported extension, got %v", err)
	}
	if _, err := svc.Save(buildFileHeader(t, "fake.png", "image/png", []byte("not an image"))); !errors.Is(err, ErrMediaUnsupported) {
		t.Fatalf("expected undecodable image to be rejected, got %v", err)
	}
	if _, err := svc.Save(buildFileHeader(t, "clip.mp4", "image/png", []byte("x"))); !errors.Is(err, ErrMediaUnsupported) {
		t.Fatalf("expected mismatched content type, got %v", err)
	}
	if _, err := svc.Save(nil); !errors.Is(err, ErrMediaMissing) {
		t.Fatalf("expected missing media, got %v", err)
	}
}

func TestMediaServiceEnforcesImageSize(t *testing.T) {
	svc := NewMediaService(t.TempDir(), "")
	header := buildFileHeader(t, "big.png", "image/png", pngBytes(t, 2, 2))
	header.Size = MaxImageSize + 1

	if _, err := svc.Save(header); !errors.Is(err, ErrStrategyMediaTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
}

func TestMediaServiceAcceptsVideo(t *testing.T) {
	svc := NewMediaService(t.TempDir(), "/media")
	media, err := svc.Save(buildFileHeader(t, "Boss.MP4", "video/mp4", []byte("0000ftypisom")))
	if err != nil {
		t.Fatalf("save video failed: %v", err)
	}
	if media.Type != MediaTypeVideo || media.Width != 0 || !strings.HasSuffix(media.URL, ".mp4") {
		t.Fatalf("unexpected video media %+v", media)
	}
}
