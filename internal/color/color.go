// Package color extracts a representative color from decoded images.
//
// The dominant color ships with the stored metadata so clients can paint a
// solid placeholder before the image (or its BlurHash) arrives.
package color

import (
	"fmt"
	"image"
)

// sampleStride bounds the number of sampled pixels. Averaging a sparse grid
// is indistinguishable from averaging every pixel for placeholder purposes.
const sampleStride = 8

// Dominant returns the average color of img as a #RRGGBB hex string.
// A nil or empty image returns the empty string.
func Dominant(img image.Image) string {
	if img == nil {
		return ""
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return ""
	}

	strideX := bounds.Dx() / sampleStride
	if strideX < 1 {
		strideX = 1
	}
	strideY := bounds.Dy() / sampleStride
	if strideY < 1 {
		strideY = 1
	}

	var sumR, sumG, sumB, count uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += strideY {
		for x := bounds.Min.X; x < bounds.Max.X; x += strideX {
			r, g, b, _ := img.At(x, y).RGBA()
			sumR += uint64(r >> 8)
			sumG += uint64(g >> 8)
			sumB += uint64(b >> 8)
			count++
		}
	}
	if count == 0 {
		return ""
	}

	return fmt.Sprintf("#%02X%02X%02X",
		uint8(sumR/count), uint8(sumG/count), uint8(sumB/count))
}
