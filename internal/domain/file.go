// Package domain contains the core value types for the StageUp media engine.
package domain

import (
	"time"

	"github.com/stageupapp/stageup-server/internal/id"
)

// StorageProvider selects the storage backend at configuration-load time.
type StorageProvider string

// Supported provider tags. Only ProviderLocal has a complete implementation;
// the others are registered extension points.
const (
	ProviderLocal  StorageProvider = "local"
	ProviderS3     StorageProvider = "s3"
	ProviderMemory StorageProvider = "memory"
)

// LocalStorageConfig configures the local filesystem backend.
type LocalStorageConfig struct {
	// UploadPath is the root directory for all stored artifacts.
	UploadPath string
	// PublicPath is the URL base prepended to relative paths for public access.
	PublicPath string
	// CreateDirectories creates the upload root eagerly at startup.
	CreateDirectories bool
}

// S3StorageConfig configures the S3 backend. The backend itself is a
// registered extension point; these settings are validated but not used.
type S3StorageConfig struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURLBase   string
}

// StorageConfig is a discriminated union over the provider variants.
// Exactly one variant is active per deployment, selected by Provider.
type StorageConfig struct {
	Provider StorageProvider
	Local    LocalStorageConfig
	S3       S3StorageConfig
}

// Dimensions holds pixel width and height of a decoded image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessingMetadata describes the stored artifact after transcoding.
// It reflects what is actually on disk, not the bytes as uploaded.
type ProcessingMetadata struct {
	Format      string `json:"format"`
	ColorSpace  string `json:"colorSpace"`
	HasAlpha    bool   `json:"hasAlpha"`
	Orientation int    `json:"orientation,omitempty"`
	BlurHash    string `json:"blurHash,omitempty"`
	// DominantColor is a #RRGGBB placeholder color derived from the pixels.
	DominantColor string `json:"dominantColor,omitempty"`
}

// FileMetadata is created once at successful upload and immutable thereafter.
// Deletion removes it; there is no in-place mutation.
type FileMetadata struct {
	ID           id.SourceImageID    `json:"id"`
	UserID       id.UserID           `json:"userId"`
	OriginalName string              `json:"originalName"`
	MIMEType     string              `json:"mimeType"`
	Size         int64               `json:"size"`
	Dimensions   *Dimensions         `json:"dimensions,omitempty"`
	UploadedAt   time.Time           `json:"uploadedAt"`
	Processing   *ProcessingMetadata `json:"processingMetadata,omitempty"`

	// RelativePath is the database-storable path under the storage root.
	RelativePath string `json:"relativePath"`
	// PublicURL is the unsigned public URL for the stored artifact.
	PublicURL string `json:"publicUrl"`
}

// ImageInfo is what validator introspection learns from decoding the buffer.
type ImageInfo struct {
	Format   string
	Width    int
	Height   int
	HasAlpha bool
}

// ValidationResult accumulates errors across all validation stages.
// Valid is true only when Errors is empty.
type ValidationResult struct {
	Valid    bool       `json:"isValid"`
	Errors   []string   `json:"errors"`
	Metadata *ImageInfo `json:"metadata,omitempty"`
}

// AddError appends a stage error; previously detected errors are never reset.
func (r *ValidationResult) AddError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

// StoreGenerationRequest asks the storage manager to persist one AI-staged
// variant under its source image.
type StoreGenerationRequest struct {
	UserID         id.UserID
	SourceImageID  id.SourceImageID
	VariationIndex int
	Extension      string
	Data           []byte
}

// StoreGenerationResult echoes the variation index and reports the three
// path flavors for the stored variant.
type StoreGenerationResult struct {
	GenerationID   id.GenerationID
	VariationIndex int
	RelativePath   string
	AbsolutePath   string
	PublicURL      string
}
