package ocr

import (
	"context"
	"image"
)

// Character whitelists passed to the recognizer.
const (
	// TextWhitelist covers message bodies.
	TextWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz:.,'\"?!@#$%&*()-+=<>/ "
	// TimeWhitelist covers clock times such as "12:38 PM".
	TimeWhitelist = "0123456789:.APMapm "
)

// PageSegMode selects how the recognizer lays out text in an image.
type PageSegMode int

const (
	// PSMAuto lets the recognizer find blocks itself.
	PSMAuto PageSegMode = iota
	// PSMSingleBlock treats the image as one uniform block of text.
	PSMSingleBlock
	// PSMSingleLine treats the image as a single text line.
	PSMSingleLine
)

// Options configures one recognition call.
type Options struct {
	// Language overrides the engine's default language when non-empty.
	Language string
	// Whitelist restricts recognized characters. Empty allows all.
	Whitelist string
	// PageSegMode selects the layout analysis mode.
	PageSegMode PageSegMode
	// PreserveInterwordSpaces keeps runs of spaces between words.
	PreserveInterwordSpaces bool
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// BoundsFromRect converts an image.Rectangle.
func BoundsFromRect(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b back to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Offset returns b translated by (dx, dy).
func (b Bounds) Offset(dx, dy int) Bounds {
	return Bounds{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// Line is one recognized text line with its location and confidence.
type Line struct {
	// Text is the recognized content of the line.
	Text string `json:"text"`

	// Confidence is the recognizer's confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around the line in the recognized image.
	Bounds Bounds `json:"bounds"`
}

// Result contains the complete results of recognizing one image.
type Result struct {
	// Text is all recognized text with original spacing and newlines.
	Text string `json:"text"`

	// Lines holds per-line boxes. It may be empty when box extraction fails;
	// Text is still populated in that case.
	Lines []Line `json:"lines"`
}

// Engine recognizes text in images.
//
// Implementations must be safe for concurrent use and must return promptly
// with ctx.Err() once ctx is done.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, opts Options) (*Result, error)
}

// EngineFunc adapts an ordinary function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image, opts Options) (*Result, error)

// Recognize calls f(ctx, img, opts).
func (f EngineFunc) Recognize(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	return f(ctx, img, opts)
}

// ExtractTextFromRegion recognizes text inside rect of img.
//
// Line bounds in the result are translated to img's coordinates. For example,
// if the region starts at (100, 50) and a line is found at (10, 20) within the
// crop, the returned bounds start at (110, 70).
func ExtractTextFromRegion(ctx context.Context, engine Engine, img image.Image, rect image.Rectangle, opts Options) (*Result, error) {
	clipped := rect.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, errRegionOutside(rect, img.Bounds())
	}

	cropped := crop(img, clipped)
	result, err := engine.Recognize(ctx, cropped, opts)
	if err != nil {
		return nil, err
	}

	for i := range result.Lines {
		result.Lines[i].Bounds = result.Lines[i].Bounds.Offset(clipped.Min.X, clipped.Min.Y)
	}
	return result, nil
}
