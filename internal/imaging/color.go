package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Hex returns the color as "#RRGGBB".
func (c RGBColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ToRGB converts any color to 8-bit RGB, dropping alpha.
func ToRGB(c color.Color) RGBColor {
	r, g, b, _ := c.RGBA()
	return RGBColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// Luma returns the perceived brightness of c on a 0-255 scale.
//
// Uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B), the same weighting
// used when converting crops to grayscale before recognition.
func Luma(c color.Color) float64 {
	rgb := ToRGB(c)
	return 0.299*float64(rgb.R) + 0.587*float64(rgb.G) + 0.114*float64(rgb.B)
}

// ReferencePixel returns the color at the image origin, used as the chat
// background reference.
func ReferencePixel(img image.Image) color.Color {
	b := img.Bounds()
	return img.At(b.Min.X, b.Min.Y)
}

// Palette is a set of bubble colors matched by perceptual (CIE Lab) distance.
//
// WhatsApp bubbles are flat fills (light green for sent, white or dark gray
// for received), so matching against known fills finds bubbles whose luma is
// close to the background.
type Palette struct {
	colors    []colorful.Color
	tolerance float64
}

// ParsePalette builds a Palette from "#RRGGBB" strings. The tolerance is a
// Lab distance; 0.05-0.1 is a tight match.
func ParsePalette(hexes []string, tolerance float64) (*Palette, error) {
	p := &Palette{tolerance: tolerance}
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("invalid palette color %q: %w", h, err)
		}
		p.colors = append(p.colors, c)
	}
	return p, nil
}

// Len returns the number of palette entries.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.colors)
}

// Matches reports whether c is within tolerance of any palette entry.
func (p *Palette) Matches(c color.Color) bool {
	if p.Len() == 0 {
		return false
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		// fully transparent pixels never match
		return false
	}
	for _, pc := range p.colors {
		if cc.DistanceLab(pc) < p.tolerance {
			return true
		}
	}
	return false
}

// Dominant returns the most common color inside rect, quantized to 16 levels
// per channel. It is used to describe a bubble's fill in diagnostics.
func Dominant(img image.Image, rect image.Rectangle) RGBColor {
	rect = rect.Intersect(img.Bounds())
	counts := make(map[RGBColor]int)
	var best RGBColor
	bestCount := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := ToRGB(img.At(x, y))
			q := RGBColor{R: c.R / 16 * 16, G: c.G / 16 * 16, B: c.B / 16 * 16}
			counts[q]++
			if n := counts[q]; n > bestCount || (n == bestCount && q.Hex() < best.Hex()) {
				best, bestCount = q, n
			}
		}
	}
	return best
}
