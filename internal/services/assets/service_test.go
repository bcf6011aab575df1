package assets

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/webatelier/platform/internal/errors"
	"github.com/webatelier/platform/internal/media"
)

func TestUploadAndGet(t *testing.T) {
	svc := New(media.NewMemory(), nil)
	ctx := context.Background()

	key, err := svc.Upload(ctx, "profiles", "image/jpeg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(key, "profiles/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}

	obj, err := svc.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected body %q", data)
	}
	if obj.ContentType != "image/jpeg" {
		t.Fatalf("unexpected content type %q", obj.ContentType)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := New(media.NewMemory(), nil)

	_, err := svc.Upload(context.Background(), "profiles", "application/pdf", strings.NewReader("%PDF"))
	if !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	store := media.NewMemory()
	svc := New(store, nil)
	ctx := context.Background()

	// One byte over the cap: nothing must be stored.
	big := io.LimitReader(zeroReader{}, maxUploadBytes+1)
	_, err := svc.Upload(ctx, "profiles", "image/jpeg", big)
	if !errors.Is(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	// Exactly at the cap is accepted and stored whole.
	key, err := svc.Upload(ctx, "profiles", "image/jpeg", io.LimitReader(zeroReader{}, maxUploadBytes))
	if err != nil {
		t.Fatalf("upload at limit: %v", err)
	}
	obj, err := svc.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer obj.Body.Close()
	n, err := io.Copy(io.Discard, obj.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != maxUploadBytes {
		t.Fatalf("stored %d bytes, want %d", n, maxUploadBytes)
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestGetMissingAsset(t *testing.T) {
	svc := New(media.NewMemory(), nil)

	_, err := svc.Get(context.Background(), "profiles/missing.jpg")
	if !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := New(media.NewMemory(), nil)
	ctx := context.Background()

	key, err := svc.Upload(ctx, "producers", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, key); !errors.Is(err, errors.CodeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
