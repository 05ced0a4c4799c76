package process

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func setupTestProcessor(t *testing.T, cfg Config) *Processor {
	t.Helper()
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testImage(t *testing.T, width, height int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 5), uint8(y * 9), uint8((x * y) % 251), 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(t, width, height)))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(t, width, height), nil))
	return buf.Bytes()
}

func encodeBMP(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(t, width, height)))
	return buf.Bytes()
}

func TestProcess_PreservesFormatAndSize(t *testing.T) {
	p := setupTestProcessor(t, Config{MaxWidth: 2048, MaxHeight: 2048, JPEGQuality: 85, PNGCompression: 6})

	t.Run("jpeg stays jpeg", func(t *testing.T) {
		result, err := p.Process(encodeJPEG(t, 320, 240))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", result.Format)
		assert.Equal(t, 320, result.Width)
		assert.Equal(t, 240, result.Height)
		assert.Equal(t, int64(len(result.Data)), result.Size)
	})

	t.Run("png stays png", func(t *testing.T) {
		result, err := p.Process(encodePNG(t, 320, 240))
		require.NoError(t, err)
		assert.Equal(t, "png", result.Format)

		_, format, err := image.Decode(bytes.NewReader(result.Data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})
}

func TestProcess_NormalizesBMPToPNG(t *testing.T) {
	p := setupTestProcessor(t, Config{MaxWidth: 2048, MaxHeight: 2048, PNGCompression: 6})

	result, err := p.Process(encodeBMP(t, 120, 90))
	require.NoError(t, err)
	assert.Equal(t, "png", result.Format)

	_, format, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 120, result.Width)
	assert.Equal(t, 90, result.Height)
}

func TestProcess_NeverUpscales(t *testing.T) {
	p := setupTestProcessor(t, Config{MaxWidth: 2048, MaxHeight: 2048, JPEGQuality: 85})

	result, err := p.Process(encodeJPEG(t, 100, 60))
	require.NoError(t, err)
	assert.Equal(t, 100, result.Width)
	assert.Equal(t, 60, result.Height)
}

func TestProcess_DownscalesToFit(t *testing.T) {
	t.Run("width bound", func(t *testing.T) {
		p := setupTestProcessor(t, Config{MaxWidth: 200, MaxHeight: 2048, JPEGQuality: 85})

		result, err := p.Process(encodeJPEG(t, 400, 300))
		require.NoError(t, err)
		assert.Equal(t, 200, result.Width)
		assert.Equal(t, 150, result.Height)
	})

	t.Run("height bound dominates", func(t *testing.T) {
		p := setupTestProcessor(t, Config{MaxWidth: 300, MaxHeight: 100, JPEGQuality: 85})

		result, err := p.Process(encodeJPEG(t, 400, 200))
		require.NoError(t, err)
		assert.Equal(t, 200, result.Width)
		assert.Equal(t, 100, result.Height)
	})

	t.Run("resized output decodes at the new size", func(t *testing.T) {
		p := setupTestProcessor(t, Config{MaxWidth: 64, MaxHeight: 64, PNGCompression: 6})

		result, err := p.Process(encodePNG(t, 128, 128))
		require.NoError(t, err)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(result.Data))
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Width)
		assert.Equal(t, 64, cfg.Height)
	})
}

func TestProcess_BlurHash(t *testing.T) {
	p := setupTestProcessor(t, Config{MaxWidth: 2048, MaxHeight: 2048, JPEGQuality: 85})

	result, err := p.Process(encodeJPEG(t, 100, 100))
	require.NoError(t, err)
	assert.NotEmpty(t, result.BlurHash)
	assert.Regexp(t, `^#[0-9A-F]{6}$`, result.DominantColor)
}

func TestProcess_PreserveMetadataPassthrough(t *testing.T) {
	p := setupTestProcessor(t, Config{MaxWidth: 2048, MaxHeight: 2048, JPEGQuality: 85, PreserveMetadata: true})

	t.Run("untouched buffer when nothing forces a re-encode", func(t *testing.T) {
		data := encodeJPEG(t, 100, 100)
		result, err := p.Process(data)
		require.NoError(t, err)
		assert.Equal(t, data, result.Data)
	})

	t.Run("normalization still re-encodes", func(t *testing.T) {
		data := encodeBMP(t, 50, 50)
		result, err := p.Process(data)
		require.NoError(t, err)
		assert.Equal(t, "png", result.Format)
		assert.NotEqual(t, data, result.Data)
	})

	t.Run("resize still re-encodes", func(t *testing.T) {
		small := setupTestProcessor(t, Config{MaxWidth: 32, MaxHeight: 32, JPEGQuality: 85, PreserveMetadata: true})
		data := encodeJPEG(t, 100, 100)
		result, err := small.Process(data)
		require.NoError(t, err)
		assert.Equal(t, 32, result.Width)
		assert.NotEqual(t, data, result.Data)
	})
}

func TestProcess_RejectsUndecodableInput(t *testing.T) {
	p := setupTestProcessor(t, Config{MaxWidth: 2048, MaxHeight: 2048})

	_, err := p.Process([]byte("not an image"))
	assert.Error(t, err)
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, "jpeg", outputFormat("webp"))
	assert.Equal(t, "png", outputFormat("bmp"))
	assert.Equal(t, "jpeg", outputFormat("jpeg"))
	assert.Equal(t, "png", outputFormat("png"))
	assert.Equal(t, "gif", outputFormat("gif"))
}

func TestExtensionForFormat(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionForFormat("jpeg"))
	assert.Equal(t, ".png", ExtensionForFormat("png"))
	assert.Equal(t, ".gif", ExtensionForFormat("gif"))
}

func TestMIMEForFormat(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMEForFormat("jpeg"))
	assert.Equal(t, "image/png", MIMEForFormat("png"))
	assert.Equal(t, "image/gif", MIMEForFormat("gif"))
	assert.Equal(t, "application/octet-stream", MIMEForFormat("tiff"))
}
