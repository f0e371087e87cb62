package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(FileConfig{Dir: filepath.Join(t.TempDir(), "frames")})
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}
	return store
}

func TestFileStore_PutGet(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	key := recording.Timestamp(1700000000.123456).Key()
	if err := store.Put(ctx, &recording.Artifact{Key: key, Data: []byte("jpeg")}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Dir(), "1700000000.123456.jpg")); err != nil {
		t.Errorf("artifact file missing: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got.Data) != "jpeg" {
		t.Errorf("Get().Data = %q, want %q", got.Data, "jpeg")
	}
	if got.Aux != nil {
		t.Errorf("Get().Aux = %q, want nil", got.Aux)
	}
}

func TestFileStore_AuxTrack(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, &recording.Artifact{Key: "10.5", Data: []byte("img"), Aux: []byte("pcm")}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := store.Get(ctx, "10.5")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got.Aux) != "pcm" {
		t.Errorf("Get().Aux = %q, want %q", got.Aux, "pcm")
	}

	// Overwrite without aux drops the stale track
	if err := store.Put(ctx, &recording.Artifact{Key: "10.5", Data: []byte("img2")}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "10.5.aux")); !os.IsNotExist(err) {
		t.Errorf("stale aux file still present: %v", err)
	}

	if err := store.Put(ctx, &recording.Artifact{Key: "10.5", Data: []byte("img"), Aux: []byte("pcm")}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := store.Delete(ctx, "10.5"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Errorf("Delete() left %d files behind", len(entries))
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store := newTestFileStore(t)

	_, err := store.Get(context.Background(), "42")
	if !errors.Is(err, recording.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	var artifactErr *recording.ArtifactError
	if !errors.As(err, &artifactErr) || artifactErr.Op != "get" || artifactErr.Key != "42" {
		t.Errorf("Get() error = %#v, want ArtifactError{Op: get, Key: 42}", err)
	}
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "1.5"); err != nil {
		t.Errorf("Delete() of missing key failed: %v", err)
	}

	if err := store.Put(ctx, &recording.Artifact{Key: "1.5", Data: []byte("x")}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Delete(ctx, "1.5"); err != nil {
			t.Errorf("Delete() #%d failed: %v", i+1, err)
		}
	}
}

func TestFileStore_List(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	for _, key := range []string{"3", "1.25", "2"} {
		if err := store.Put(ctx, &recording.Artifact{Key: key, Data: []byte(key), Aux: []byte("a")}); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	// Noise that List must ignore
	os.WriteFile(filepath.Join(store.Dir(), ".tmp-123"), []byte("partial"), 0o644)
	os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("hello"), 0o644)
	os.Mkdir(filepath.Join(store.Dir(), "sub.jpg"), 0o755)

	keys, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	sort.Strings(keys)

	want := []string{"1.25", "2", "3"}
	if len(keys) != len(want) {
		t.Fatalf("List() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "..", "../escape", `a\b`} {
		if err := store.Put(ctx, &recording.Artifact{Key: key, Data: []byte("x")}); err == nil {
			t.Errorf("Put(%q) expected error", key)
		}
	}
}

func TestFileStore_CancelledContext(t *testing.T) {
	store := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, &recording.Artifact{Key: "1", Data: []byte("x")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}

func TestNewFileStore_Validation(t *testing.T) {
	if _, err := NewFileStore(FileConfig{}); err == nil {
		t.Error("NewFileStore() expected error for empty dir")
	}
	if _, err := NewFileStore(FileConfig{Dir: t.TempDir(), Extension: ".x", AuxExtension: ".x"}); err == nil {
		t.Error("NewFileStore() expected error for equal extensions")
	}
}
