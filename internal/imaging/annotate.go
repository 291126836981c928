package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// Box is a rectangle to outline on an annotated copy of a screenshot.
type Box struct {
	Rect  image.Rectangle
	Color color.RGBA
	// Label is drawn at the box's top-left corner. Only digits, ':' and ','
	// have glyphs; other runes leave a gap.
	Label string
}

// Outline colors used for annotations.
var (
	ColorReceived  = mustHex("#FF8C00")
	ColorSent      = mustHex("#1E90FF")
	ColorTimestamp = mustHex("#DC143C")
)

func mustHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Annotate returns a copy of img with each box outlined (2px) and labelled.
func Annotate(img image.Image, boxes []Box) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for _, box := range boxes {
		r := box.Rect.Intersect(bounds)
		if r.Empty() {
			continue
		}
		for t := 0; t < 2; t++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				setClipped(result, x, r.Min.Y+t, box.Color)
				setClipped(result, x, r.Max.Y-1-t, box.Color)
			}
			for y := r.Min.Y; y < r.Max.Y; y++ {
				setClipped(result, r.Min.X+t, y, box.Color)
				setClipped(result, r.Max.X-1-t, y, box.Color)
			}
		}
		if box.Label != "" {
			drawLabel(result, r.Min.X+3, r.Min.Y+3, box.Label, color.RGBA{255, 255, 255, 255}, box.Color)
		}
	}
	return result
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel draws a small label with a 3x5 pixel font for digits, ':' and ','.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		':': {"000", "010", "000", "010", "000"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
