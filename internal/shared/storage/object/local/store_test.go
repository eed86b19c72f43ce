package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"careermap-backend/internal/shared/storage/object"
)

func TestSaveAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	info, err := store.Save(ctx, "guest:abc", object.KindResume, "cv.txt", strings.NewReader("Go developer, 5 years"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !object.OwnedBy(info.Key, "guest:abc") {
		t.Fatalf("expected key in user namespace, got %q", info.Key)
	}
	if !strings.HasPrefix(info.ContentType, "text/plain") {
		t.Fatalf("expected text/plain, got %q", info.ContentType)
	}
	if info.SizeBytes != int64(len("Go developer, 5 years")) {
		t.Fatalf("unexpected size %d", info.SizeBytes)
	}

	rc, err := store.Open(ctx, info.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "Go developer, 5 years" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestSaveWithKeyRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.SaveWithKey(context.Background(), "../escape.png", "image/png", bytes.NewReader([]byte{1})); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}

func TestOpenMissingReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "exports/abc/missing.png")
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
