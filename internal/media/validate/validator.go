// Package validate implements the multi-stage file admission pipeline.
//
// Stages run in fixed order: basic properties, decoded introspection,
// format/MIME consistency, dimension bounds, and an optional security scan.
// Errors accumulate across every stage that ran, so the caller sees the
// complete list, not just the first failure. The one exception is a
// basic-property failure, which skips decoding: an unreadable or disallowed
// buffer cannot be safely introspected.
package validate

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/stageupapp/stageup-server/internal/domain"
)

// MinDimension rejects degenerate probe images (1x1 trackers and the like).
const MinDimension = 10

// Config bounds what the pipeline admits.
type Config struct {
	// AllowedMIMETypes is the declared-type allow-list.
	AllowedMIMETypes []string
	// MaxFileSize is the maximum accepted buffer size in bytes.
	MaxFileSize int64
	// MaxWidth and MaxHeight cap decoded dimensions to prevent
	// decompression-bomb resource exhaustion.
	MaxWidth  int
	MaxHeight int
	// SecurityScan enables the byte-pattern scan (default on).
	SecurityScan bool
}

// Validator runs the admission pipeline. It is state-free and safe for
// concurrent use.
type Validator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a validator with the given bounds.
func New(cfg Config, logger *slog.Logger) *Validator {
	return &Validator{cfg: cfg, logger: logger}
}

// formatMIME maps a Go decoder format name to its canonical MIME type.
var formatMIME = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// CanonicalMIME normalizes a declared MIME type (e.g. image/jpg -> image/jpeg).
func CanonicalMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	// Strip parameters like "; charset=...".
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/x-png":
		return "image/png"
	case "image/x-ms-bmp", "image/x-bmp":
		return "image/bmp"
	}
	return mimeType
}

// Validate runs every pipeline stage over the buffer and returns the
// accumulated result. A nil or empty buffer fails basic properties.
func (v *Validator) Validate(data []byte, declaredMIME string) domain.ValidationResult {
	result := domain.ValidationResult{Valid: true, Errors: []string{}}

	declared := CanonicalMIME(declaredMIME)

	// Stage 1: basic properties. Failure here makes introspection unsafe,
	// so the remaining stages are skipped.
	if !v.checkBasicProperties(&result, data, declared) {
		return result
	}

	// Stage 2: decoded introspection.
	info, decoded := v.introspect(&result, data)
	if decoded {
		result.Metadata = info

		// Stage 3: format/MIME consistency. Defeats MIME spoofing: the
		// bytes decide what the file is, not the declared header.
		if detectedMIME := formatMIME[info.Format]; detectedMIME != declared {
			result.AddError(fmt.Sprintf(
				"declared type %s does not match detected format %s", declared, info.Format))
		}

		// Stage 4: dimension bounds.
		v.checkDimensions(&result, info)
	}

	// Stage 5: security scan. Byte-level, so it runs even when decoding failed.
	if v.cfg.SecurityScan {
		v.scanContent(&result, data, declared)
	}

	if !result.Valid && v.logger != nil {
		v.logger.Debug("file rejected by validation",
			"declared_mime", declared,
			"size", len(data),
			"errors", len(result.Errors),
		)
	}

	return result
}

// checkBasicProperties verifies the declared type and size. Returns false
// when downstream stages must be skipped.
func (v *Validator) checkBasicProperties(result *domain.ValidationResult, data []byte, declared string) bool {
	ok := true

	allowed := false
	for _, m := range v.cfg.AllowedMIMETypes {
		if CanonicalMIME(m) == declared {
			allowed = true
			break
		}
	}
	if !allowed {
		result.AddError(fmt.Sprintf("file type %s is not allowed", declared))
		ok = false
	}

	if len(data) == 0 {
		result.AddError("file is empty")
		ok = false
	} else if v.cfg.MaxFileSize > 0 && int64(len(data)) > v.cfg.MaxFileSize {
		result.AddError(fmt.Sprintf(
			"file size %d exceeds maximum %d bytes", len(data), v.cfg.MaxFileSize))
		ok = false
	}

	return ok
}

// introspect decodes the buffer and extracts format and dimensions.
func (v *Validator) introspect(result *domain.ValidationResult, data []byte) (*domain.ImageInfo, bool) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		result.AddError("file is corrupted or not a decodable image")
		return nil, false
	}

	bounds := img.Bounds()
	info := &domain.ImageInfo{
		Format:   format,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		HasAlpha: hasAlpha(img),
	}
	return info, true
}

// checkDimensions enforces the per-axis bounds.
func (v *Validator) checkDimensions(result *domain.ValidationResult, info *domain.ImageInfo) {
	if info.Width < MinDimension || info.Height < MinDimension {
		result.AddError(fmt.Sprintf(
			"image dimensions %dx%d are below the %dpx minimum", info.Width, info.Height, MinDimension))
	}
	if v.cfg.MaxWidth > 0 && info.Width > v.cfg.MaxWidth {
		result.AddError(fmt.Sprintf(
			"image width %d exceeds maximum %d", info.Width, v.cfg.MaxWidth))
	}
	if v.cfg.MaxHeight > 0 && info.Height > v.cfg.MaxHeight {
		result.AddError(fmt.Sprintf(
			"image height %d exceeds maximum %d", info.Height, v.cfg.MaxHeight))
	}
}

// hasAlpha reports whether the decoded image can carry transparency.
func hasAlpha(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}
	return false
}
