// Package process re-encodes validated uploads into their stored form.
//
// Every accepted image is decoded once, downscaled to fit the configured
// bounds when necessary (never upscaled), and re-encoded with per-format
// settings. Two input formats are normalized for compatibility: WebP is
// re-encoded as JPEG (the WebP codec is decode-only) and BMP is re-encoded
// as PNG. Re-encoding through the standard codecs drops EXIF and ICC blocks,
// which is the default metadata-stripping behavior.
package process

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/stageupapp/stageup-server/internal/color"
)

// Config holds transcoding settings.
type Config struct {
	// MaxWidth and MaxHeight bound the stored image; larger inputs are
	// downscaled to fit, preserving aspect ratio.
	MaxWidth  int
	MaxHeight int
	// JPEGQuality is the lossy encoding quality, 1-100.
	JPEGQuality int
	// PNGCompression is the lossless compression level, 0-9.
	PNGCompression int
	// PreserveMetadata passes the original buffer through untouched when no
	// resize or format normalization is needed. Default is to strip.
	PreserveMetadata bool
}

// Result describes the processed buffer. These post-processing values, not
// the upload-time ones, are what gets persisted: they reflect what is
// actually stored on disk.
type Result struct {
	Data          []byte
	Format        string
	Width         int
	Height        int
	Size          int64
	HasAlpha      bool
	BlurHash      string
	DominantColor string
}

// Processor transcodes validated image buffers. Safe for concurrent use.
type Processor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Processor with the given settings.
func New(cfg Config, logger *slog.Logger) *Processor {
	return &Processor{cfg: cfg, logger: logger}
}

// outputFormat maps a decoded input format to its stored encoding family.
func outputFormat(inputFormat string) string {
	switch inputFormat {
	case "webp":
		return "jpeg"
	case "bmp":
		return "png"
	default:
		return inputFormat
	}
}

// ExtensionForFormat returns the storage extension for an encoding format.
func ExtensionForFormat(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	case "bmp":
		return ".bmp"
	default:
		return "." + format
	}
}

// MIMEForFormat returns the MIME type for an encoding format.
func MIMEForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// Process decodes, optionally resizes, and re-encodes the buffer.
func (p *Processor) Process(data []byte) (*Result, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	target := outputFormat(format)
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	needsResize := (p.cfg.MaxWidth > 0 && width > p.cfg.MaxWidth) ||
		(p.cfg.MaxHeight > 0 && height > p.cfg.MaxHeight)

	// Pass-through: the caller asked to keep embedded metadata and neither
	// resizing nor normalization forces a re-encode.
	if p.cfg.PreserveMetadata && !needsResize && target == format {
		hash, hashErr := computeBlurHash(img)
		if hashErr != nil {
			p.logger.Warn("blurhash computation failed", "error", hashErr)
		}
		return &Result{
			Data:          data,
			Format:        format,
			Width:         width,
			Height:        height,
			Size:          int64(len(data)),
			HasAlpha:      hasAlpha(img),
			BlurHash:      hash,
			DominantColor: color.Dominant(img),
		}, nil
	}

	if needsResize {
		img = p.resizeToFit(img)
		b := img.Bounds()
		width, height = b.Dx(), b.Dy()
	}

	encoded, err := p.encode(img, target)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", target, err)
	}

	hash, hashErr := computeBlurHash(img)
	if hashErr != nil {
		p.logger.Warn("blurhash computation failed", "error", hashErr)
	}

	p.logger.Debug("processed image",
		"input_format", format,
		"output_format", target,
		"width", width,
		"height", height,
		"input_size", len(data),
		"output_size", len(encoded),
	)

	return &Result{
		Data:          encoded,
		Format:        target,
		Width:         width,
		Height:        height,
		Size:          int64(len(encoded)),
		HasAlpha:      hasAlpha(img),
		BlurHash:      hash,
		DominantColor: color.Dominant(img),
	}, nil
}

// resizeToFit downscales img so both axes fit the configured bounds,
// preserving aspect ratio. Inputs already within bounds are returned as-is.
func (p *Processor) resizeToFit(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if p.cfg.MaxWidth > 0 && srcW > p.cfg.MaxWidth {
		scale = float64(p.cfg.MaxWidth) / float64(srcW)
	}
	if p.cfg.MaxHeight > 0 {
		if s := float64(p.cfg.MaxHeight) / float64(srcH); s < scale {
			scale = s
		}
	}
	if scale >= 1.0 {
		return img
	}

	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// encode writes img in the target format with the configured settings.
func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg":
		quality := p.cfg.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		enc := png.Encoder{CompressionLevel: pngLevel(p.cfg.PNGCompression)}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("no encoder for format %q", format)
	}

	return buf.Bytes(), nil
}

// pngLevel maps the 0-9 configuration scale onto the stdlib's levels.
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// hasAlpha reports whether the image can carry transparency.
func hasAlpha(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}
	return false
}
