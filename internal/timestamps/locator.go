package timestamps

import (
	"context"
	"image"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chatimg "github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/ocr"
)

// Location is a recognized clock time and where it sits in the screenshot.
type Location struct {
	X       int       `json:"x"`
	Y       int       `json:"y"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Time    time.Time `json:"time"`
	RawText string    `json:"raw_text"`
}

// Rect returns the location's bounding box.
func (l Location) Rect() image.Rectangle {
	return image.Rect(l.X, l.Y, l.X+l.Width, l.Y+l.Height)
}

// Locator finds clock times by recognizing horizontal slices of a screenshot.
type Locator struct {
	Engine ocr.Engine
	// SliceHeight is the height of each recognized slice.
	SliceHeight int
	// Stride is the distance between slice tops. It also bounds how far
	// apart two identical readings may be and still count as one.
	Stride int
	// MinRecognitionHeight upscales slices before recognition. Zero disables.
	MinRecognitionHeight int
	Language             string
	Workers              int
	CallTimeout          time.Duration
	// Now supplies the calendar date for parsed times.
	Now    func() time.Time
	Logger *zap.Logger
}

type slice struct {
	index int
	rect  image.Rectangle
}

// Locate recognizes every slice of img between rows top and bottom and
// returns the clock times found, sorted by Y then X.
//
// A slice whose recognition fails or times out is logged and contributes
// nothing. Locate returns an error only when ctx ends.
func (l *Locator) Locate(ctx context.Context, img image.Image, top, bottom int) ([]Location, error) {
	logger := l.logger()
	b := img.Bounds()
	top = max(top, b.Min.Y)
	bottom = min(bottom, b.Max.Y)

	height := l.SliceHeight
	stride := l.Stride
	if stride <= 0 {
		stride = height
	}
	if height <= 0 || stride <= 0 || top >= bottom {
		return []Location{}, nil
	}

	var slices []slice
	for y := top; y < bottom; y += stride {
		slices = append(slices, slice{
			index: len(slices),
			rect:  image.Rect(b.Min.X, y, b.Max.X, min(y+height, bottom)),
		})
	}

	day := l.now()
	found := make([][]Location, len(slices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.Workers, 1))
	for _, s := range slices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			locs, err := l.locateSlice(gctx, img, s.rect, day)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("timestamp slice recognition failed",
					zap.Int("slice", s.index),
					zap.Int("y", s.rect.Min.Y),
					zap.Error(err))
				return nil
			}
			found[s.index] = locs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Location
	for _, locs := range found {
		all = append(all, locs...)
	}
	result := dedupe(all, stride)
	logger.Debug("located timestamps",
		zap.Int("slices", len(slices)),
		zap.Int("found", len(result)))
	return result, nil
}

func (l *Locator) locateSlice(ctx context.Context, img image.Image, rect image.Rectangle, day time.Time) ([]Location, error) {
	crop := imaging.Crop(img, rect)
	prepared := chatimg.Enhance(crop, chatimg.EnhanceOptions{MinHeight: l.MinRecognitionHeight})
	scale := float64(crop.Bounds().Dy()) / float64(prepared.Bounds().Dy())

	callCtx := ctx
	if l.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.CallTimeout)
		defer cancel()
	}

	result, err := l.Engine.Recognize(callCtx, prepared, ocr.Options{
		Language:    l.Language,
		Whitelist:   ocr.TimeWhitelist,
		PageSegMode: ocr.PSMSingleBlock,
	})
	if err != nil {
		return nil, err
	}

	lines := result.Lines
	if len(lines) == 0 && strings.TrimSpace(result.Text) != "" {
		pb := prepared.Bounds()
		lines = []ocr.Line{{Text: result.Text, Bounds: ocr.Bounds{X2: pb.Dx(), Y2: pb.Dy()}}}
	}

	var locs []Location
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		box := scaleBounds(line.Bounds, scale)
		for _, m := range Find(text) {
			// Split the line box horizontally in proportion to byte offsets.
			w := box.X2 - box.X1
			x1 := box.X1 + w*m.Start/max(len(text), 1)
			x2 := box.X1 + w*m.End/max(len(text), 1)
			locs = append(locs, Location{
				X:       rect.Min.X + x1,
				Y:       rect.Min.Y + box.Y1,
				Width:   x2 - x1,
				Height:  box.Y2 - box.Y1,
				Time:    m.On(day),
				RawText: m.Text,
			})
		}
	}
	return locs, nil
}

func scaleBounds(b ocr.Bounds, scale float64) ocr.Bounds {
	if scale == 1 {
		return b
	}
	return ocr.Bounds{
		X1: int(float64(b.X1) * scale),
		Y1: int(float64(b.Y1) * scale),
		X2: int(float64(b.X2) * scale),
		Y2: int(float64(b.Y2) * scale),
	}
}

// dedupe sorts locations by Y then X and drops readings that repeat an
// earlier one's text within stride rows, as happens when a time straddles two
// overlapping slices.
func dedupe(locs []Location, stride int) []Location {
	sort.SliceStable(locs, func(i, j int) bool {
		if locs[i].Y != locs[j].Y {
			return locs[i].Y < locs[j].Y
		}
		return locs[i].X < locs[j].X
	})

	kept := make([]Location, 0, len(locs))
	for _, loc := range locs {
		dup := false
		for _, k := range kept {
			if normalizeRaw(k.RawText) == normalizeRaw(loc.RawText) && loc.Y-k.Y < stride {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, loc)
		}
	}
	return kept
}

func normalizeRaw(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

func (l *Locator) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Locator) logger() *zap.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return zap.NewNop()
}
