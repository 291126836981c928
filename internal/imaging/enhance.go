package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// EnhanceOptions controls how a bubble crop is prepared for recognition.
type EnhanceOptions struct {
	// Contrast is a percentage in [-100, 100] passed to AdjustContrast.
	Contrast float64
	// Invert flips the crop so light-on-dark text becomes dark-on-light.
	Invert bool
	// MinHeight upscales crops shorter than this (Lanczos). Zero disables.
	MinHeight int
	// Threshold binarizes the result at this level (1-255). Zero disables.
	Threshold uint8
}

// Enhance converts a crop to a recognition-friendly grayscale image.
//
// Steps, in order: grayscale, optional invert, contrast boost, optional
// upscale, optional binarizing threshold. Tesseract does best with dark text
// on a light, high-contrast background at 20px or more per glyph.
func Enhance(img image.Image, opts EnhanceOptions) image.Image {
	var out image.Image = imaging.Grayscale(img)
	if opts.Invert {
		out = effect.Invert(out)
	}
	if opts.Contrast != 0 {
		out = imaging.AdjustContrast(out, opts.Contrast)
	}
	if opts.MinHeight > 0 {
		if h := out.Bounds().Dy(); h > 0 && h < opts.MinHeight {
			out = imaging.Resize(out, 0, opts.MinHeight, imaging.Lanczos)
		}
	}
	if opts.Threshold > 0 {
		out = segment.Threshold(out, opts.Threshold)
	}
	return out
}

// Downscale shrinks img so its longest side is at most maxDim, preserving the
// aspect ratio. Images already within the limit, or maxDim <= 0, are returned
// unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}
