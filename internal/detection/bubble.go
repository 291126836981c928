package detection

import (
	"fmt"
	"image"
)

// Bubble is a rectangular region believed to hold one chat message.
//
// Coordinates are in the source image's coordinate space. IsLeftAligned marks
// received messages; right-aligned bubbles were sent by the device owner.
type Bubble struct {
	X                int     `json:"x"`
	Y                int     `json:"y"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	IsLeftAligned    bool    `json:"is_left_aligned"`
	AverageIntensity float64 `json:"average_intensity"` // mean luma of content pixels, 0-255
}

// Rect returns the bubble as an image.Rectangle.
func (b Bubble) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Bottom returns the first row below the bubble.
func (b Bubble) Bottom() int {
	return b.Y + b.Height
}

// Alignment returns "left" or "right".
func (b Bubble) Alignment() string {
	if b.IsLeftAligned {
		return "left"
	}
	return "right"
}

// IsDark reports whether the bubble holds light text on a dark fill.
func (b Bubble) IsDark() bool {
	return b.AverageIntensity < 128
}

func (b Bubble) String() string {
	return fmt.Sprintf("%s bubble (%d,%d) %dx%d", b.Alignment(), b.X, b.Y, b.Width, b.Height)
}
