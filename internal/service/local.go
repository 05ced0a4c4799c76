package service

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/stageupapp/stageup-server/internal/config"
	"github.com/stageupapp/stageup-server/internal/domain"
	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
	"github.com/stageupapp/stageup-server/internal/id"
	"github.com/stageupapp/stageup-server/internal/media/paths"
	"github.com/stageupapp/stageup-server/internal/media/process"
	"github.com/stageupapp/stageup-server/internal/media/signing"
	"github.com/stageupapp/stageup-server/internal/media/storage"
	"github.com/stageupapp/stageup-server/internal/media/validate"
)

// localFileService is the complete local-filesystem implementation of the
// FileService facade. Uploads progress linearly through validation,
// processing, and storage; a failure at any stage terminates the operation
// with a typed error and no internal retry.
type localFileService struct {
	validator *validate.Validator
	processor *process.Processor
	storage   *storage.Local
	signer    *signing.Signer
	signTTL   time.Duration
	logger    *slog.Logger
}

// NewLocalFileService wires the local pipeline from configuration.
func NewLocalFileService(cfg *config.Config, logger *slog.Logger) (FileService, error) {
	store, err := storage.NewLocal(cfg.Storage.Local, logger)
	if err != nil {
		return nil, err
	}

	signer, err := signing.New(cfg.Signing.Secret)
	if err != nil {
		return nil, err
	}

	validator := validate.New(validate.Config{
		AllowedMIMETypes: cfg.Upload.AllowedMIMETypes,
		MaxFileSize:      cfg.Upload.MaxFileSize,
		MaxWidth:         cfg.Upload.MaxWidth,
		MaxHeight:        cfg.Upload.MaxHeight,
		SecurityScan:     cfg.Upload.SecurityScan,
	}, logger)

	processor := process.New(process.Config{
		MaxWidth:         cfg.Processing.MaxWidth,
		MaxHeight:        cfg.Processing.MaxHeight,
		JPEGQuality:      cfg.Processing.JPEGQuality,
		PNGCompression:   cfg.Processing.PNGCompression,
		PreserveMetadata: cfg.Processing.PreserveMetadata,
	}, logger)

	return &localFileService{
		validator: validator,
		processor: processor,
		storage:   store,
		signer:    signer,
		signTTL:   cfg.Signing.TTL,
		logger:    logger,
	}, nil
}

// UploadSourceImage runs the full admission pipeline:
// validate -> process -> store -> assemble metadata.
func (s *localFileService) UploadSourceImage(ctx context.Context, userID id.UserID, req UploadRequest) (*domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "upload canceled")
	}
	if !userID.Valid() {
		return nil, domainerrors.Unauthorized("invalid user id")
	}

	result := s.validator.Validate(req.Data, req.DeclaredMIME)
	if !result.Valid {
		return nil, domainerrors.ValidationFailed("file validation failed", result.Errors)
	}

	processed, err := s.processor.Process(req.Data)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeProcessingFailed, "process image")
	}

	sourceID, err := id.NewSourceImageID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUploadFailed, "generate source image id")
	}

	ext := process.ExtensionForFormat(processed.Format)
	rel, err := s.storage.StoreSourceImage(userID, sourceID, processed.Data, ext)
	if err != nil {
		return nil, err
	}

	// Persisted metadata reflects the processed buffer, not the upload.
	metadata := &domain.FileMetadata{
		ID:           sourceID,
		UserID:       userID,
		OriginalName: req.OriginalName,
		MIMEType:     process.MIMEForFormat(processed.Format),
		Size:         processed.Size,
		Dimensions:   &domain.Dimensions{Width: processed.Width, Height: processed.Height},
		UploadedAt:   time.Now().UTC(),
		Processing: &domain.ProcessingMetadata{
			Format:        processed.Format,
			ColorSpace:    "srgb",
			HasAlpha:      processed.HasAlpha,
			BlurHash:      processed.BlurHash,
			DominantColor: processed.DominantColor,
		},
		RelativePath: rel,
		PublicURL:    s.storage.PublicURL(rel),
	}

	s.logger.Info("uploaded source image",
		"user_id", userID,
		"source_image_id", sourceID,
		"format", processed.Format,
		"size", processed.Size,
	)
	return metadata, nil
}

// StoreGeneration persists one AI-staged variant; the variant bytes arrive
// already rendered, so only storage placement happens here.
func (s *localFileService) StoreGeneration(ctx context.Context, req domain.StoreGenerationRequest) (*domain.StoreGenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "store canceled")
	}
	return s.storage.StoreGeneration(req)
}

// ValidateFile runs the admission pipeline without side effects.
func (s *localFileService) ValidateFile(data []byte, declaredMIME string) domain.ValidationResult {
	return s.validator.Validate(data, declaredMIME)
}

// DeleteSourceImage removes the source and cascades to its variants.
func (s *localFileService) DeleteSourceImage(ctx context.Context, userID id.UserID, sourceID id.SourceImageID, ext string) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "delete canceled")
	}
	return s.storage.DeleteSourceImage(userID, sourceID, ext)
}

// DeleteGeneration removes one variant.
func (s *localFileService) DeleteGeneration(ctx context.Context, userID id.UserID, sourceID id.SourceImageID, variationIndex int, genID id.GenerationID, ext string) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "delete canceled")
	}
	return s.storage.DeleteGeneration(userID, sourceID, variationIndex, genID, ext)
}

// DeleteFile removes whichever artifact the relative path names.
func (s *localFileService) DeleteFile(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "delete canceled")
	}
	return s.storage.DeleteFile(relativePath)
}

// GetFileURL derives the unsigned public URL.
func (s *localFileService) GetFileURL(relativePath string) string {
	return s.storage.PublicURL(relativePath)
}

// GetSignedURL derives a signed URL valid for the configured TTL.
func (s *localFileService) GetSignedURL(relativePath string, userID id.UserID, now time.Time) string {
	return s.signer.SignedURL(s.storage.PublicURL(relativePath), relativePath, userID, now.Add(s.signTTL))
}

// GetFileMetadata reads back metadata for a stored artifact from disk.
// Only recognized path shapes are served.
func (s *localFileService) GetFileMetadata(ctx context.Context, relativePath string) (*domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "read canceled")
	}

	var userID id.UserID
	var sourceID id.SourceImageID
	if src, ok := paths.ParseSourcePath(relativePath); ok {
		userID, sourceID = src.UserID, src.SourceImageID
	} else if gen, ok := paths.ParseGenerationPath(relativePath); ok {
		userID, sourceID = gen.UserID, gen.SourceImageID
	} else {
		return nil, domainerrors.AccessDenied("path is not a recognized artifact path")
	}

	data, err := s.storage.Read(relativePath)
	if err != nil {
		return nil, err
	}
	size, modTime, err := s.storage.Stat(relativePath)
	if err != nil {
		return nil, err
	}

	metadata := &domain.FileMetadata{
		ID:           sourceID,
		UserID:       userID,
		MIMEType:     "application/octet-stream",
		Size:         size,
		UploadedAt:   modTime.UTC(),
		RelativePath: relativePath,
		PublicURL:    s.storage.PublicURL(relativePath),
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		metadata.MIMEType = process.MIMEForFormat(format)
		metadata.Dimensions = &domain.Dimensions{Width: cfg.Width, Height: cfg.Height}
		metadata.Processing = &domain.ProcessingMetadata{Format: format, ColorSpace: "srgb"}
	}

	return metadata, nil
}
