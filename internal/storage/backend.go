// Package storage is the artifact sink that screenshots are written to.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ContentTypePNG is the content type of every screenshot.
const ContentTypePNG = "image/png"

var (
	ErrNotFound     = errors.New("artifact not found")
	ErrEmptyPath    = errors.New("artifact path is empty")
	ErrEmptyContent = errors.New("artifact content is empty")
)

// Backend defines the interface for artifact storage backends
type Backend interface {
	// Store saves an artifact and returns where it went
	Store(ctx context.Context, artifact *Artifact) (*Reference, error)

	// Retrieve reads an artifact back by reference
	Retrieve(ctx context.Context, ref *Reference) (*Artifact, error)

	// Exists checks if an artifact is present
	Exists(ctx context.Context, ref *Reference) (bool, error)

	// GetInfo returns backend information
	GetInfo() *BackendInfo

	// HealthCheck verifies the backend is writable
	HealthCheck(ctx context.Context) error
}

// Artifact is one captured file.
type Artifact struct {
	Label       string
	Path        string
	ContentType string
	Content     []byte
	RunID       string
	CreatedTime time.Time
}

// Reference points to a stored artifact
type Reference struct {
	Backend     string
	Location    string
	ContentType string
	Size        int64
	Checksum    string
	CreatedTime time.Time
}

// BackendInfo describes a storage backend
type BackendInfo struct {
	Name         string
	Type         string
	Root         string
	Capabilities []string
}

// Checksum returns the hex SHA-256 of content.
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func validate(artifact *Artifact) error {
	if artifact == nil || artifact.Path == "" {
		return ErrEmptyPath
	}
	if len(artifact.Content) == 0 {
		return ErrEmptyContent
	}
	return nil
}
