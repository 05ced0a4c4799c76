// Package service exposes the provider-agnostic file service facade.
//
// The facade is the only entry point other subsystems use: it composes
// validation, processing, storage placement, and metadata assembly behind a
// small method set, and a factory maps the configured storage provider tag
// to a concrete implementation.
package service

import (
	"context"
	"time"

	"github.com/stageupapp/stageup-server/internal/domain"
	"github.com/stageupapp/stageup-server/internal/id"
)

// UploadRequest carries one client upload into the facade.
type UploadRequest struct {
	// OriginalName is the client-supplied filename, kept for display only.
	OriginalName string
	// DeclaredMIME is the client-declared content type; the validator
	// cross-checks it against the decoded bytes.
	DeclaredMIME string
	// Data is the raw uploaded buffer.
	Data []byte
}

// FileService is the storage-provider-independent facade. All expected
// failure modes surface as typed domain errors, never panics.
type FileService interface {
	// UploadSourceImage validates, processes, and stores one uploaded
	// photograph, returning its immutable metadata.
	UploadSourceImage(ctx context.Context, userID id.UserID, req UploadRequest) (*domain.FileMetadata, error)

	// StoreGeneration persists one AI-staged variant under its source image.
	StoreGeneration(ctx context.Context, req domain.StoreGenerationRequest) (*domain.StoreGenerationResult, error)

	// ValidateFile runs the admission pipeline without storing anything.
	ValidateFile(data []byte, declaredMIME string) domain.ValidationResult

	// DeleteSourceImage removes a source image and all its variants.
	DeleteSourceImage(ctx context.Context, userID id.UserID, sourceID id.SourceImageID, ext string) error

	// DeleteGeneration removes one variant, leaving source and siblings intact.
	DeleteGeneration(ctx context.Context, userID id.UserID, sourceID id.SourceImageID, variationIndex int, genID id.GenerationID, ext string) error

	// DeleteFile removes whichever artifact a recognized relative path names.
	DeleteFile(ctx context.Context, relativePath string) error

	// GetFileURL derives the unsigned public URL for a stored path.
	GetFileURL(relativePath string) string

	// GetSignedURL derives a time-bounded signed URL authorizing userID to
	// read the path until now+TTL.
	GetSignedURL(relativePath string, userID id.UserID, now time.Time) string

	// GetFileMetadata reads back metadata for a stored artifact.
	GetFileMetadata(ctx context.Context, relativePath string) (*domain.FileMetadata, error)
}
