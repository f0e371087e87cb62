package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording"
)

const tempPrefix = ".tmp-"

// FileConfig contains configuration for the file store.
type FileConfig struct {
	// Dir is the frames directory. It is created if missing.
	Dir string

	// Extension is appended to every key. Default: ".jpg"
	Extension string

	// AuxExtension is appended to the key of the secondary track.
	// Default: ".aux"
	AuxExtension string
}

// FileConfigFrom builds a FileConfig from the storage section.
func FileConfigFrom(cfg *config.StorageConfig) FileConfig {
	return FileConfig{
		Dir:          cfg.FramesDir,
		Extension:    cfg.ArtifactExtension,
		AuxExtension: cfg.AuxExtension,
	}
}

// FileStore implements recording.ArtifactStore on a local directory.
type FileStore struct {
	dir    string
	ext    string
	auxExt string
	logger *slog.Logger
}

// NewFileStore creates the frames directory if needed and returns a store
// rooted at it.
func NewFileStore(cfg FileConfig) (*FileStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("frames directory is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = config.DefaultArtifactExtension
	}
	if cfg.AuxExtension == "" {
		cfg.AuxExtension = config.DefaultAuxExtension
	}
	if cfg.Extension == cfg.AuxExtension {
		return nil, fmt.Errorf("artifact and aux extensions must differ, both are %q", cfg.Extension)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	return &FileStore{
		dir:    cfg.Dir,
		ext:    cfg.Extension,
		auxExt: cfg.AuxExtension,
		logger: slog.Default().With("component", "recording.storage.file"),
	}, nil
}

// Dir returns the frames directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file path of the primary artifact for key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+s.ext)
}

func (s *FileStore) auxPath(key string) string {
	return filepath.Join(s.dir, key+s.auxExt)
}

// Put writes the artifact, replacing any existing artifact with the same key.
// A stale secondary track is removed when the new artifact has none.
func (s *FileStore) Put(ctx context.Context, artifact *recording.Artifact) error {
	if err := ctx.Err(); err != nil {
		return recording.NewArtifactError("put", artifact.Key, err)
	}
	if err := checkKey(artifact.Key); err != nil {
		return recording.NewArtifactError("put", artifact.Key, err)
	}

	if err := s.writeAtomic(s.Path(artifact.Key), artifact.Data); err != nil {
		return recording.NewArtifactError("put", artifact.Key, err)
	}

	if artifact.Aux != nil {
		if err := s.writeAtomic(s.auxPath(artifact.Key), artifact.Aux); err != nil {
			return recording.NewArtifactError("put", artifact.Key, err)
		}
	} else if err := removeIfExists(s.auxPath(artifact.Key)); err != nil {
		return recording.NewArtifactError("put", artifact.Key, err)
	}

	return nil
}

// Get loads the artifact and its secondary track, if any. A missing primary
// artifact yields an ArtifactError wrapping recording.ErrNotFound.
func (s *FileStore) Get(ctx context.Context, key string) (*recording.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, recording.NewArtifactError("get", key, err)
	}
	if err := checkKey(key); err != nil {
		return nil, recording.NewArtifactError("get", key, err)
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, recording.NewArtifactError("get", key, recording.ErrNotFound)
		}
		return nil, recording.NewArtifactError("get", key, err)
	}

	artifact := &recording.Artifact{Key: key, Data: data}

	aux, err := os.ReadFile(s.auxPath(key))
	switch {
	case err == nil:
		artifact.Aux = aux
	case !errors.Is(err, fs.ErrNotExist):
		return nil, recording.NewArtifactError("get", key, err)
	}

	return artifact, nil
}

// Delete removes the artifact and its secondary track. Missing files are
// not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return recording.NewArtifactError("delete", key, err)
	}
	if err := checkKey(key); err != nil {
		return recording.NewArtifactError("delete", key, err)
	}

	err := errors.Join(
		removeIfExists(s.Path(key)),
		removeIfExists(s.auxPath(key)),
	)
	if err != nil {
		return recording.NewArtifactError("delete", key, err)
	}
	return nil
}

// List returns the keys of all primary artifacts. Temporary files and
// secondary tracks are ignored.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, recording.NewArtifactError("list", "", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, recording.NewArtifactError("list", "", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if !strings.HasSuffix(name, s.ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, s.ext))
	}

	return keys, nil
}

func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	return nil
}
