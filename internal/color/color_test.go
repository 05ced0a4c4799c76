package color

import (
	"image"
	stdcolor "image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solidImage(c stdcolor.RGBA, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDominant(t *testing.T) {
	t.Run("solid image returns its color", func(t *testing.T) {
		got := Dominant(solidImage(stdcolor.RGBA{R: 255, A: 255}, 32, 32))
		assert.Equal(t, "#FF0000", got)
	})

	t.Run("mixed image averages", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 2, 1))
		img.Set(0, 0, stdcolor.RGBA{R: 255, A: 255})
		img.Set(1, 0, stdcolor.RGBA{B: 255, A: 255})

		got := Dominant(img)
		assert.Equal(t, "#7F007F", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		img := solidImage(stdcolor.RGBA{R: 10, G: 20, B: 30, A: 255}, 100, 80)
		assert.Equal(t, Dominant(img), Dominant(img))
	})

	t.Run("nil image", func(t *testing.T) {
		assert.Equal(t, "", Dominant(nil))
	})

	t.Run("empty bounds", func(t *testing.T) {
		assert.Equal(t, "", Dominant(image.NewRGBA(image.Rect(0, 0, 0, 0))))
	})
}
