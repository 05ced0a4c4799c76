// Package storage owns all filesystem side effects for stored artifacts.
//
// Artifacts live under a per-user hierarchy: sources/ for uploaded
// photographs and generations/{sourceImageId}/ for AI-staged variants.
// Writes are atomic (temp file + rename), artifacts are immutable once
// written, and deletes trigger a best-effort empty-directory cleanup pass
// whose failures are logged and swallowed.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/stageupapp/stageup-server/internal/domain"
	domainerrors "github.com/stageupapp/stageup-server/internal/errors"
	"github.com/stageupapp/stageup-server/internal/id"
	"github.com/stageupapp/stageup-server/internal/media/paths"
)

// Local stores artifacts on the local filesystem.
//
// No lock is held across operations: every artifact is addressed by a
// freshly generated identifier, so concurrent uploads never contend, and
// cleanup treats directories changing underneath it as benign.
type Local struct {
	root       string
	publicBase string
	logger     *slog.Logger
}

// NewLocal creates a local storage manager rooted at cfg.UploadPath.
func NewLocal(cfg domain.LocalStorageConfig, logger *slog.Logger) (*Local, error) {
	if cfg.UploadPath == "" {
		return nil, domainerrors.Configuration("upload path cannot be empty")
	}

	root, err := filepath.Abs(filepath.Clean(cfg.UploadPath))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "resolve upload path")
	}

	if cfg.CreateDirectories {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeConfiguration, "create upload root")
		}
	}

	return &Local{
		root:       root,
		publicBase: cfg.PublicPath,
		logger:     logger,
	}, nil
}

// Root returns the absolute storage root.
func (s *Local) Root() string {
	return s.root
}

// PublicURL derives the public URL for a stored relative path.
func (s *Local) PublicURL(relativePath string) string {
	return paths.PublicURL(s.publicBase, relativePath)
}

// StoreSourceImage writes an uploaded source image under
// {userId}/sources/{sourceImageId}{ext} and returns the relative path.
func (s *Local) StoreSourceImage(userID id.UserID, sourceID id.SourceImageID, data []byte, ext string) (string, error) {
	if !userID.Valid() || !sourceID.Valid() {
		return "", domainerrors.UploadFailed("invalid identifier")
	}
	if !paths.ValidExtension(ext) {
		return "", domainerrors.UploadFailedf("unsupported extension %q", ext)
	}
	if len(data) == 0 {
		return "", domainerrors.UploadFailed("empty file data")
	}

	rel := paths.SourceImageRelativePath(userID, sourceID, ext)
	abs, err := paths.ResolveWithinRoot(s.root, rel)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeUploadFailed, "resolve source path")
	}

	if err := s.writeAtomic(abs, data); err != nil {
		return "", err
	}

	s.logger.Debug("stored source image",
		"user_id", userID,
		"source_image_id", sourceID,
		"path", rel,
		"size", len(data),
	)
	return rel, nil
}

// StoreGeneration writes one AI-staged variant under the source image's
// generations subtree, naming it by variation index and a fresh GenerationID.
func (s *Local) StoreGeneration(req domain.StoreGenerationRequest) (*domain.StoreGenerationResult, error) {
	if !req.UserID.Valid() || !req.SourceImageID.Valid() {
		return nil, domainerrors.UploadFailed("invalid identifier")
	}
	if req.VariationIndex < 0 {
		return nil, domainerrors.UploadFailedf("negative variation index %d", req.VariationIndex)
	}
	if !paths.ValidExtension(req.Extension) {
		return nil, domainerrors.UploadFailedf("unsupported extension %q", req.Extension)
	}
	if len(req.Data) == 0 {
		return nil, domainerrors.UploadFailed("empty variant data")
	}

	genID, err := id.NewGenerationID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUploadFailed, "generate variant id")
	}

	rel := paths.GenerationRelativePath(req.UserID, req.SourceImageID, req.VariationIndex, genID, req.Extension)
	abs, err := paths.ResolveWithinRoot(s.root, rel)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUploadFailed, "resolve variant path")
	}

	if err := s.writeAtomic(abs, req.Data); err != nil {
		return nil, err
	}

	s.logger.Debug("stored generation variant",
		"user_id", req.UserID,
		"source_image_id", req.SourceImageID,
		"generation_id", genID,
		"variation_index", req.VariationIndex,
		"size", len(req.Data),
	)

	return &domain.StoreGenerationResult{
		GenerationID:   genID,
		VariationIndex: req.VariationIndex,
		RelativePath:   rel,
		AbsolutePath:   abs,
		PublicURL:      s.PublicURL(rel),
	}, nil
}

// DeleteSourceImage removes a source image and cascades to its entire
// generations subtree. A missing source file is FILE_NOT_FOUND; a missing
// generations subtree is not an error.
func (s *Local) DeleteSourceImage(userID id.UserID, sourceID id.SourceImageID, ext string) error {
	rel := paths.SourceImageRelativePath(userID, sourceID, ext)
	abs, err := paths.ResolveWithinRoot(s.root, rel)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeAccessDenied, "resolve source path")
	}

	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return domainerrors.NotFoundf("source image %s not found", sourceID)
		}
		return domainerrors.Wrap(err, domainerrors.CodeUploadFailed, "delete source image")
	}

	genDir, err := paths.ResolveWithinRoot(s.root, paths.SourceGenerationsDirRelativePath(userID, sourceID))
	if err == nil {
		if rmErr := os.RemoveAll(genDir); rmErr != nil {
			// The source file is already gone; the orphaned subtree is a
			// cleanup concern, not a failure of the delete.
			s.logger.Warn("failed to remove generations subtree",
				"user_id", userID,
				"source_image_id", sourceID,
				"error", rmErr,
			)
		}
	}

	s.CleanupEmptyDirectories(userID)

	s.logger.Debug("deleted source image",
		"user_id", userID,
		"source_image_id", sourceID,
	)
	return nil
}

// DeleteGeneration removes one variant file without touching the source
// image or sibling variants.
func (s *Local) DeleteGeneration(userID id.UserID, sourceID id.SourceImageID, variationIndex int, genID id.GenerationID, ext string) error {
	rel := paths.GenerationRelativePath(userID, sourceID, variationIndex, genID, ext)
	abs, err := paths.ResolveWithinRoot(s.root, rel)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeAccessDenied, "resolve variant path")
	}

	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return domainerrors.NotFoundf("generation %s not found", genID)
		}
		return domainerrors.Wrap(err, domainerrors.CodeUploadFailed, "delete generation")
	}

	s.CleanupEmptyDirectories(userID)

	s.logger.Debug("deleted generation variant",
		"user_id", userID,
		"generation_id", genID,
	)
	return nil
}

// DeleteFile removes an artifact addressed by a recognized relative path.
func (s *Local) DeleteFile(relativePath string) error {
	src, isSource := paths.ParseSourcePath(relativePath)
	if isSource {
		return s.DeleteSourceImage(src.UserID, src.SourceImageID, src.Extension)
	}
	gen, isGeneration := paths.ParseGenerationPath(relativePath)
	if isGeneration {
		return s.DeleteGeneration(gen.UserID, gen.SourceImageID, gen.VariationIndex, gen.GenerationID, gen.Extension)
	}
	return domainerrors.AccessDenied(fmt.Sprintf("path %q is not a recognized artifact path", relativePath))
}

// CleanupEmptyDirectories removes any directory under the user's tree left
// with zero entries, bottom-up. Failures are logged and swallowed: leaving
// an empty directory behind is cosmetic, and a directory becoming non-empty
// or vanishing mid-pass is a benign race.
func (s *Local) CleanupEmptyDirectories(userID id.UserID) {
	genRoot, err := paths.ResolveWithinRoot(s.root, paths.GenerationsDirRelativePath(userID))
	if err == nil {
		// Per-source subtrees first so their parents can empty out.
		entries, readErr := os.ReadDir(genRoot)
		if readErr == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					s.removeIfEmpty(filepath.Join(genRoot, entry.Name()))
				}
			}
		}
		s.removeIfEmpty(genRoot)
	}

	if srcDir, err := paths.ResolveWithinRoot(s.root, paths.SourcesDirRelativePath(userID)); err == nil {
		s.removeIfEmpty(srcDir)
	}
	if userRoot, err := paths.ResolveWithinRoot(s.root, paths.UserRootRelativePath(userID)); err == nil {
		s.removeIfEmpty(userRoot)
	}
}

// removeIfEmpty removes dir when it has zero entries. Races between the
// listing and the removal are tolerated: skip, don't fail.
func (s *Local) removeIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Already gone or unreadable; nothing to clean.
		return
	}
	if len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove empty directory", "dir", dir, "error", err)
	}
}

// Exists reports whether an artifact exists at the given relative path.
// Paths escaping the storage root report false.
func (s *Local) Exists(relativePath string) bool {
	abs, err := paths.ResolveWithinRoot(s.root, relativePath)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// Read returns the stored bytes for a relative path.
func (s *Local) Read(relativePath string) ([]byte, error) {
	abs, err := paths.ResolveWithinRoot(s.root, relativePath)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeAccessDenied, "resolve path")
	}

	data, err := os.ReadFile(abs) //#nosec G304 -- Path is resolved and root-checked above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.NotFoundf("file %s not found", relativePath)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "read file")
	}
	return data, nil
}

// Stat returns size and modification time for a stored artifact.
func (s *Local) Stat(relativePath string) (int64, time.Time, error) {
	abs, err := paths.ResolveWithinRoot(s.root, relativePath)
	if err != nil {
		return 0, time.Time{}, domainerrors.Wrap(err, domainerrors.CodeAccessDenied, "resolve path")
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, time.Time{}, domainerrors.NotFoundf("file %s not found", relativePath)
		}
		return 0, time.Time{}, domainerrors.Wrap(err, domainerrors.CodeServiceUnavailable, "stat file")
	}
	return info.Size(), info.ModTime(), nil
}

// writeAtomic writes data so a partially written file is never observable at
// the final path: write to a temp file in the destination directory, then
// rename into place.
func (s *Local) writeAtomic(abs string, data []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return classifyWriteError(err, "create directory")
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return classifyWriteError(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck // Cleanup path, write error wins
		os.Remove(tmpName)    //nolint:errcheck // Best-effort temp cleanup
		return classifyWriteError(err, "write file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Best-effort temp cleanup
		return classifyWriteError(err, "close temp file")
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Best-effort temp cleanup
		return classifyWriteError(err, "set permissions")
	}

	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Best-effort temp cleanup
		return classifyWriteError(err, "rename into place")
	}
	return nil
}

// classifyWriteError maps a filesystem write failure onto the upload error
// taxonomy. A full disk is its own code so callers can alert on it.
func classifyWriteError(err error, action string) error {
	if errors.Is(err, syscall.ENOSPC) {
		return domainerrors.Wrap(err, domainerrors.CodeStorageFull, action)
	}
	return domainerrors.Wrap(err, domainerrors.CodeUploadFailed, action)
}
