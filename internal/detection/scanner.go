package detection

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/chatshot/internal/config"
	chatimg "github.com/ironsheep/chatshot/internal/imaging"
)

// Scanner finds candidate message regions by scanning rows for pixels that
// stand out from the chat background.
type Scanner struct {
	cfg     config.Scanner
	palette *chatimg.Palette
}

// NewScanner builds a Scanner from configuration. It fails only when a
// palette entry is not a valid hex color.
func NewScanner(cfg config.Scanner) (*Scanner, error) {
	palette, err := chatimg.ParsePalette(cfg.Palette, cfg.PaletteTolerance)
	if err != nil {
		return nil, err
	}
	return &Scanner{cfg: cfg, palette: palette}, nil
}

// ScanRange returns the rows [top, bottom) the scanner examines, in image
// coordinates.
func (s *Scanner) ScanRange(img image.Image) (top, bottom int) {
	b := img.Bounds()
	h := b.Dy()
	top = int(s.cfg.TopMargin * float64(h))
	if s.cfg.DetectHeader {
		if header := DetectHeader(img); header > top {
			top = header
		}
	}
	bottom = h - int(s.cfg.BottomMargin*float64(h))
	return b.Min.Y + top, b.Min.Y + bottom
}

// region is a Bubble under construction.
type region struct {
	minX, maxX int // inclusive
	top        int
	lastRow    int
	left       bool
	lumaSum    float64
	pixels     int
}

func (r *region) bubble() Bubble {
	return Bubble{
		X:                r.minX,
		Y:                r.top,
		Width:            r.maxX - r.minX + 1,
		Height:           r.lastRow - r.top + 1,
		IsLeftAligned:    r.left,
		AverageIntensity: r.lumaSum / float64(r.pixels),
	}
}

// Scan returns raw message regions in top-to-bottom order.
//
// A pixel is content when its luma differs from the reference pixel (the
// image origin) by more than IntensityThreshold, or when it matches the
// configured bubble palette. Consecutive rows holding content with the same
// alignment grow one region; a blank row or an alignment change ends it.
// Regions shorter than MinMessageHeight are discarded. An image without
// contrast yields no regions.
func (s *Scanner) Scan(img image.Image) []Bubble {
	b := img.Bounds()
	width := b.Dx()
	if width == 0 || b.Dy() == 0 {
		return []Bubble{}
	}

	src := imaging.Clone(img)
	refLuma := chatimg.Luma(chatimg.ReferencePixel(img))

	top, bottom := s.ScanRange(img)
	margin := int(s.cfg.SideMargin * float64(width))
	colStart, colEnd := margin, width-margin
	leftLimit := s.cfg.LeftAlignRatio * float64(width)

	regions := []Bubble{}
	var cur *region
	flush := func() {
		if cur != nil && cur.lastRow-cur.top+1 >= s.cfg.MinMessageHeight {
			regions = append(regions, cur.bubble())
		}
		cur = nil
	}

	for y := top - b.Min.Y; y < bottom-b.Min.Y; y++ {
		first, last := -1, -1
		var lumaSum float64
		pixels := 0
		row := src.Pix[y*src.Stride : y*src.Stride+width*4]
		for x := colStart; x < colEnd; x++ {
			p := row[x*4 : x*4+4]
			c := color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
			luma := chatimg.Luma(c)
			if !s.isContent(c, luma, refLuma) {
				continue
			}
			if first < 0 {
				first = x
			}
			last = x
			lumaSum += luma
			pixels++
		}

		if first < 0 {
			flush()
			continue
		}

		left := float64(first) < leftLimit
		absY := y + b.Min.Y
		if cur != nil && cur.left != left {
			flush()
		}
		if cur == nil {
			cur = &region{minX: first + b.Min.X, maxX: last + b.Min.X, top: absY, left: left}
		}
		cur.minX = min(cur.minX, first+b.Min.X)
		cur.maxX = max(cur.maxX, last+b.Min.X)
		cur.lastRow = absY
		cur.lumaSum += lumaSum
		cur.pixels += pixels
	}
	flush()

	return regions
}

func (s *Scanner) isContent(c color.Color, luma, refLuma float64) bool {
	diff := luma - refLuma
	if diff < 0 {
		diff = -diff
	}
	if diff > s.cfg.IntensityThreshold {
		return true
	}
	return s.palette.Matches(c)
}
