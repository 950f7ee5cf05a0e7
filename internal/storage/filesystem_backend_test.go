package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemBackend_Store(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	backend := NewFilesystemBackend(fs, "screenshots")

	png := []byte("\x89PNG editor")
	ref, err := backend.Store(ctx, &Artifact{
		Label:   "editor",
		Path:    "campaign-content-editor.png",
		Content: png,
		RunID:   "run-1",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("screenshots", "campaign-content-editor.png"), ref.Location)
	assert.Equal(t, ContentTypePNG, ref.ContentType)
	assert.Equal(t, int64(len(png)), ref.Size)
	assert.Equal(t, Checksum(png), ref.Checksum)
	assert.False(t, ref.CreatedTime.IsZero())

	stored, err := afero.ReadFile(fs, ref.Location)
	require.NoError(t, err)
	assert.Equal(t, png, stored)

	entries, err := afero.ReadDir(fs, "screenshots")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")

	t.Run("overwrites existing artifact", func(t *testing.T) {
		ref2, err := backend.Store(ctx, &Artifact{Path: "campaign-content-editor.png", Content: []byte("second")})
		require.NoError(t, err)
		assert.Equal(t, ref.Location, ref2.Location)

		stored, err := afero.ReadFile(fs, ref.Location)
		require.NoError(t, err)
		assert.Equal(t, "second", string(stored))
	})

	t.Run("absolute paths bypass root", func(t *testing.T) {
		ref, err := backend.Store(ctx, &Artifact{Path: "/tmp/out/debug.png", Content: png})
		require.NoError(t, err)
		assert.Equal(t, "/tmp/out/debug.png", ref.Location)
	})

	t.Run("keeps supplied timestamp", func(t *testing.T) {
		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		ref, err := backend.Store(ctx, &Artifact{Path: "a.png", Content: png, CreatedTime: at})
		require.NoError(t, err)
		assert.Equal(t, at, ref.CreatedTime)
	})
}

func TestFilesystemBackend_StoreValidation(t *testing.T) {
	backend := NewFilesystemBackend(afero.NewMemMapFs(), "")

	tests := []struct {
		name     string
		artifact *Artifact
		wantErr  error
	}{
		{"nil artifact", nil, ErrEmptyPath},
		{"empty path", &Artifact{Content: []byte("x")}, ErrEmptyPath},
		{"empty content", &Artifact{Path: "a.png"}, ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := backend.Store(context.Background(), tt.artifact)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := backend.Store(ctx, &Artifact{Path: "a.png", Content: []byte("x")})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFilesystemBackend_RetrieveAndExists(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	backend := NewFilesystemBackend(fs, "out")

	ref, err := backend.Store(ctx, &Artifact{Path: "preview.png", Content: []byte("preview")})
	require.NoError(t, err)

	exists, err := backend.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)

	artifact, err := backend.Retrieve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "preview", string(artifact.Content))
	assert.Equal(t, "preview.png", artifact.Label)

	t.Run("missing", func(t *testing.T) {
		missing := &Reference{Location: "out/none.png"}
		exists, err := backend.Exists(ctx, missing)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = backend.Retrieve(ctx, missing)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, ref.Location, []byte("tampered"), 0o644))
		_, err := backend.Retrieve(ctx, ref)
		assert.ErrorContains(t, err, "checksum mismatch")
	})
}

func TestFilesystemBackend_HealthCheck(t *testing.T) {
	fs := afero.NewMemMapFs()
	backend := NewFilesystemBackend(fs, "screenshots")

	require.NoError(t, backend.HealthCheck(context.Background()))

	exists, err := afero.DirExists(fs, "screenshots")
	require.NoError(t, err)
	assert.True(t, exists)

	probe, err := afero.Exists(fs, filepath.Join("screenshots", ".health_check"))
	require.NoError(t, err)
	assert.False(t, probe)

	t.Run("read only filesystem", func(t *testing.T) {
		ro := NewFilesystemBackend(afero.NewReadOnlyFs(afero.NewMemMapFs()), "screenshots")
		assert.Error(t, ro.HealthCheck(context.Background()))
	})

	info := backend.GetInfo()
	assert.Equal(t, "FS", info.Type)
	assert.Equal(t, "screenshots", info.Root)
}
