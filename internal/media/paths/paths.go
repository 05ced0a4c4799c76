// Package paths computes and parses the hierarchical storage layout.
//
// Every stored artifact has exactly one of two relative path shapes:
//
//	{userId}/sources/{sourceImageId}{ext}
//	{userId}/generations/{sourceImageId}/variation-{index}-{generationId}{ext}
//
// A legacy flat shape {userId}/{fileId}{ext} is recognized by ParseLegacyPath
// only; new writes never produce it. All functions here are pure, with no I/O.
// Relative paths always use forward slashes so they are database-storable
// and URL-safe on every platform.
package paths

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/stageupapp/stageup-server/internal/id"
)

const (
	sourcesDir     = "sources"
	generationsDir = "generations"
)

// AllowedExtensions lists the file extensions the engine will store.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

// Anchored patterns for the recognized path shapes. An identifier segment is
// NanoID's URL-safe alphabet; an extension is a dot plus lowercase alphanumerics.
var (
	sourcePattern     = regexp.MustCompile(`^([A-Za-z0-9_-]+)/sources/([A-Za-z0-9_-]+)(\.[a-z0-9]+)$`)
	generationPattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)/generations/([A-Za-z0-9_-]+)/variation-([0-9]+)-([A-Za-z0-9_-]+)(\.[a-z0-9]+)$`)
	legacyPattern     = regexp.MustCompile(`^([A-Za-z0-9_-]+)/([A-Za-z0-9_-]+)(\.[a-z0-9]+)$`)
)

// SourcePathParts are the components of a source image path.
type SourcePathParts struct {
	UserID        id.UserID
	SourceImageID id.SourceImageID
	Extension     string
}

// GenerationPathParts are the components of a generation variant path.
type GenerationPathParts struct {
	UserID         id.UserID
	SourceImageID  id.SourceImageID
	VariationIndex int
	GenerationID   id.GenerationID
	Extension      string
}

// LegacyPathParts are the components of a deprecated flat-layout path.
type LegacyPathParts struct {
	UserID    id.UserID
	FileID    id.FileID
	Extension string
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ValidExtension reports whether ext (normalized) is in the allowed set.
func ValidExtension(ext string) bool {
	ext = NormalizeExtension(ext)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SourceImageRelativePath returns the database-storable path for a source image.
func SourceImageRelativePath(userID id.UserID, sourceID id.SourceImageID, ext string) string {
	return userID.String() + "/" + sourcesDir + "/" + sourceID.String() + NormalizeExtension(ext)
}

// GenerationRelativePath returns the database-storable path for a generation variant.
func GenerationRelativePath(userID id.UserID, sourceID id.SourceImageID, variationIndex int, genID id.GenerationID, ext string) string {
	return fmt.Sprintf("%s/%s/%s/variation-%d-%s%s",
		userID, generationsDir, sourceID, variationIndex, genID, NormalizeExtension(ext))
}

// LegacyRelativePath returns the deprecated flat-layout path. Used only to
// address files written before the hierarchical layout existed.
func LegacyRelativePath(userID id.UserID, fileID id.FileID, ext string) string {
	return userID.String() + "/" + fileID.String() + NormalizeExtension(ext)
}

// UserRootRelativePath returns the per-user root directory.
func UserRootRelativePath(userID id.UserID) string {
	return userID.String()
}

// SourcesDirRelativePath returns the per-user sources directory.
func SourcesDirRelativePath(userID id.UserID) string {
	return userID.String() + "/" + sourcesDir
}

// GenerationsDirRelativePath returns the per-user generations directory.
func GenerationsDirRelativePath(userID id.UserID) string {
	return userID.String() + "/" + generationsDir
}

// SourceGenerationsDirRelativePath returns the generations subtree for one source image.
func SourceGenerationsDirRelativePath(userID id.UserID, sourceID id.SourceImageID) string {
	return userID.String() + "/" + generationsDir + "/" + sourceID.String()
}

// DiskPath joins a relative path onto the storage root using the platform separator.
func DiskPath(root, relativePath string) string {
	return filepath.Join(root, filepath.FromSlash(relativePath))
}

// PublicURL prepends the public URL base to a relative path.
func PublicURL(publicBase, relativePath string) string {
	return strings.TrimSuffix(publicBase, "/") + "/" + relativePath
}

// ParseSourcePath is the exact left inverse of SourceImageRelativePath.
// A path not matching the source shape is rejected, never guessed at.
func ParseSourcePath(relativePath string) (SourcePathParts, bool) {
	m := sourcePattern.FindStringSubmatch(relativePath)
	if m == nil {
		return SourcePathParts{}, false
	}
	return SourcePathParts{
		UserID:        id.UserID(m[1]),
		SourceImageID: id.SourceImageID(m[2]),
		Extension:     m[3],
	}, true
}

// ParseGenerationPath is the exact left inverse of GenerationRelativePath.
func ParseGenerationPath(relativePath string) (GenerationPathParts, bool) {
	m := generationPattern.FindStringSubmatch(relativePath)
	if m == nil {
		return GenerationPathParts{}, false
	}
	index, err := strconv.Atoi(m[3])
	if err != nil {
		return GenerationPathParts{}, false
	}
	return GenerationPathParts{
		UserID:         id.UserID(m[1]),
		SourceImageID:  id.SourceImageID(m[2]),
		VariationIndex: index,
		GenerationID:   id.GenerationID(m[4]),
		Extension:      m[5],
	}, true
}

// ParseLegacyPath recognizes the deprecated flat shape {userId}/{fileId}{ext}.
// The second segment must not be a reserved directory name, so a legacy path
// can never be confused with a truncated hierarchical one.
func ParseLegacyPath(relativePath string) (LegacyPathParts, bool) {
	m := legacyPattern.FindStringSubmatch(relativePath)
	if m == nil {
		return LegacyPathParts{}, false
	}
	if m[2] == sourcesDir || m[2] == generationsDir {
		return LegacyPathParts{}, false
	}
	return LegacyPathParts{
		UserID:    id.UserID(m[1]),
		FileID:    id.FileID(m[2]),
		Extension: m[3],
	}, true
}

// IsSourcePath reports whether relativePath matches the source shape.
func IsSourcePath(relativePath string) bool {
	return sourcePattern.MatchString(relativePath)
}

// IsGenerationPath reports whether relativePath matches the generation shape.
func IsGenerationPath(relativePath string) bool {
	return generationPattern.MatchString(relativePath)
}

// ResolveWithinRoot resolves relativePath against root and verifies the
// result still lives under root. This is the path-traversal guard: a
// requested path containing ../ segments that escape the storage root is
// rejected no matter how it was authorized.
func ResolveWithinRoot(root, relativePath string) (string, error) {
	cleanRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("resolve storage root: %w", err)
	}

	resolved := filepath.Clean(filepath.Join(cleanRoot, filepath.FromSlash(relativePath)))
	if resolved != cleanRoot && !strings.HasPrefix(resolved, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", relativePath)
	}
	return resolved, nil
}
