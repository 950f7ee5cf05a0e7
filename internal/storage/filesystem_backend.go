package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// FilesystemBackend writes artifacts under a root directory of an afero
// filesystem. Absolute artifact paths bypass the root.
type FilesystemBackend struct {
	fs   afero.Fs
	root string
	now  func() time.Time
}

// NewFilesystemBackend creates a new filesystem storage backend
func NewFilesystemBackend(fs afero.Fs, root string) *FilesystemBackend {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FilesystemBackend{fs: fs, root: root, now: time.Now}
}

// resolve returns the location an artifact path is written to.
func (f *FilesystemBackend) resolve(path string) string {
	if filepath.IsAbs(path) || f.root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(f.root, path)
}

// Store writes the artifact atomically: the bytes go to a temporary file in
// the destination directory which is then renamed over the target.
func (f *FilesystemBackend) Store(ctx context.Context, artifact *Artifact) (*Reference, error) {
	if err := validate(artifact); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	location := f.resolve(artifact.Path)
	dir := filepath.Dir(location)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := afero.TempFile(f.fs, dir, "."+filepath.Base(location)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(artifact.Content); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	if err := f.fs.Rename(tmpName, location); err != nil {
		_ = f.fs.Remove(tmpName)
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}

	created := artifact.CreatedTime
	if created.IsZero() {
		created = f.now()
	}
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = ContentTypePNG
	}

	return &Reference{
		Backend:     "FS",
		Location:    location,
		ContentType: contentType,
		Size:        int64(len(artifact.Content)),
		Checksum:    Checksum(artifact.Content),
		CreatedTime: created,
	}, nil
}

// Retrieve reads an artifact from the filesystem
func (f *FilesystemBackend) Retrieve(ctx context.Context, ref *Reference) (*Artifact, error) {
	content, err := afero.ReadFile(f.fs, ref.Location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref.Location)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if ref.Checksum != "" && Checksum(content) != ref.Checksum {
		return nil, fmt.Errorf("checksum mismatch for %s", ref.Location)
	}

	return &Artifact{
		Label:       filepath.Base(ref.Location),
		Path:        ref.Location,
		ContentType: ref.ContentType,
		Content:     content,
		CreatedTime: ref.CreatedTime,
	}, nil
}

// Exists checks if an artifact exists on the filesystem
func (f *FilesystemBackend) Exists(ctx context.Context, ref *Reference) (bool, error) {
	return afero.Exists(f.fs, ref.Location)
}

// GetInfo returns filesystem backend information
func (f *FilesystemBackend) GetInfo() *BackendInfo {
	return &BackendInfo{
		Name:         "FilesystemBackend",
		Type:         "FS",
		Root:         f.root,
		Capabilities: []string{"store", "retrieve", "atomic-write"},
	}
}

// HealthCheck verifies the root directory is writable
func (f *FilesystemBackend) HealthCheck(ctx context.Context) error {
	root := f.root
	if root == "" {
		root = "."
	}
	if err := f.fs.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("filesystem not writable: %w", err)
	}

	testFile := filepath.Join(root, ".health_check")
	if err := afero.WriteFile(f.fs, testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("filesystem not writable: %w", err)
	}
	if err := f.fs.Remove(testFile); err != nil {
		return fmt.Errorf("filesystem cleanup failed: %w", err)
	}
	return nil
}
