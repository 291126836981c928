// Package chattest renders synthetic chat screenshots for tests.
package chattest

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Common fills.
var (
	White     = color.RGBA{255, 255, 255, 255}
	Beige     = color.RGBA{0xE5, 0xDD, 0xD5, 255}
	SentGreen = color.RGBA{0xDC, 0xF8, 0xC6, 255}
	MidGreen  = color.RGBA{0x8B, 0xC3, 0x4A, 255}
	LightGray = color.RGBA{200, 200, 200, 255}
	DarkGray  = color.RGBA{40, 40, 40, 255}
	Black     = color.RGBA{0, 0, 0, 255}
)

// Bubble describes a filled rectangle with optional text.
type Bubble struct {
	Rect image.Rectangle
	Fill color.Color
	Text string
	Ink  color.Color
}

// Screenshot is a synthetic chat screenshot.
type Screenshot struct {
	Width, Height int
	Background    color.Color
	// HeaderRows paints a black title bar of this many rows at the top.
	HeaderRows int
	Bubbles    []Bubble
}

// Render draws s.
func (s Screenshot) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	bg := s.Background
	if bg == nil {
		bg = White
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if s.HeaderRows > 0 {
		draw.Draw(img, image.Rect(0, 0, s.Width, s.HeaderRows), image.NewUniform(Black), image.Point{}, draw.Src)
	}
	for _, b := range s.Bubbles {
		draw.Draw(img, b.Rect, image.NewUniform(b.Fill), image.Point{}, draw.Src)
		if b.Text != "" {
			ink := b.Ink
			if ink == nil {
				ink = Black
			}
			DrawText(img, b.Rect.Min.X+6, b.Rect.Min.Y+16, b.Text, ink)
		}
	}
	return img
}

// PNG renders s and encodes it.
func (s Screenshot) PNG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Render()); err != nil {
		t.Fatalf("failed to encode screenshot: %v", err)
	}
	return buf.Bytes()
}

// DrawText draws text on an image using basicfont with its baseline at y.
func DrawText(img draw.Image, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// Conversation returns a 400x800 white screenshot with three well separated
// bubbles: received, sent, received. Widths are distinct (180, 160, 140) so a
// fake recognizer can tell their crops apart.
func Conversation() Screenshot {
	return Screenshot{
		Width:  400,
		Height: 800,
		Bubbles: []Bubble{
			{Rect: image.Rect(20, 100, 200, 140), Fill: LightGray},
			{Rect: image.Rect(220, 180, 380, 220), Fill: MidGreen},
			{Rect: image.Rect(20, 260, 160, 300), Fill: LightGray},
		},
	}
}
