package extract

import (
	"context"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/chatshot/internal/detection"
	chatimg "github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/normalize"
	"github.com/ironsheep/chatshot/internal/ocr"
	"github.com/ironsheep/chatshot/internal/timestamps"
)

// Segment is the recognized, normalized content of one merged bubble.
type Segment struct {
	Bubble detection.Bubble `json:"bubble"`
	// Raw is the recognizer output before normalization.
	Raw string `json:"raw"`
	// Text is the normalized body. It may be empty.
	Text      string               `json:"text"`
	Timestamp *timestamps.Location `json:"timestamp,omitempty"`
}

// Extractor crops, enhances and recognizes merged bubbles.
type Extractor struct {
	Engine ocr.Engine
	// CropPadding grows each bubble rectangle before cropping.
	CropPadding int
	// Contrast is the contrast boost in percent.
	Contrast float64
	// Threshold binarizes crops when non-zero.
	Threshold uint8
	// MinRecognitionHeight upscales shorter crops.
	MinRecognitionHeight int
	Language             string
	Workers              int
	CallTimeout          time.Duration
	// Now supplies the calendar date for inline times.
	Now    func() time.Time
	Logger *zap.Logger
}

// Extract recognizes each bubble and returns one Segment per bubble that was
// recognized, in bubble order.
//
// Recognition runs on up to Workers goroutines. A bubble whose recognition
// fails or exceeds CallTimeout is logged and skipped. Extract returns an
// error only when ctx ends.
func (e *Extractor) Extract(ctx context.Context, img image.Image, bubbles []detection.Bubble) ([]Segment, error) {
	logger := e.logger()
	day := e.now()
	results := make([]*Segment, len(bubbles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Workers, 1))
	for i, b := range bubbles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seg, err := e.extractOne(gctx, img, b, day)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("bubble recognition failed",
					zap.Int("bubble", i),
					zap.Stringer("region", b.Rect()),
					zap.Error(err))
				return nil
			}
			results[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(bubbles))
	for _, seg := range results {
		if seg != nil {
			segments = append(segments, *seg)
		}
	}
	return segments, nil
}

func (e *Extractor) extractOne(ctx context.Context, img image.Image, b detection.Bubble, day time.Time) (*Segment, error) {
	crop, clipped, err := chatimg.CropPadded(img, b.Rect(), e.CropPadding)
	if err != nil {
		return nil, err
	}
	prepared := chatimg.Enhance(crop, chatimg.EnhanceOptions{
		Contrast:  e.Contrast,
		Invert:    b.IsDark(),
		MinHeight: e.MinRecognitionHeight,
		Threshold: e.Threshold,
	})

	callCtx := ctx
	if e.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.CallTimeout)
		defer cancel()
	}
	result, err := e.Engine.Recognize(callCtx, prepared, ocr.Options{
		Language:                e.Language,
		Whitelist:               ocr.TextWhitelist,
		PageSegMode:             ocr.PSMAuto,
		PreserveInterwordSpaces: true,
	})
	if err != nil {
		return nil, err
	}

	seg := &Segment{
		Bubble: b,
		Raw:    result.Text,
		Text:   normalize.Body(result.Text),
	}

	matches := timestamps.Find(result.Text)
	if len(matches) > 0 {
		scale := float64(crop.Bounds().Dy()) / float64(prepared.Bounds().Dy())
		seg.Timestamp = inlineLocation(matches[0], result.Lines, scale, clipped, b, day)
	}
	return seg, nil
}

// inlineLocation places a time found in a bubble's own text. The box is the
// recognized line holding it when known, otherwise the whole bubble.
func inlineLocation(m timestamps.Match, lines []ocr.Line, scale float64, clipped image.Rectangle, b detection.Bubble, day time.Time) *timestamps.Location {
	rect := b.Rect()
	for _, line := range lines {
		if strings.Contains(line.Text, m.Text) {
			r := line.Bounds.Rect()
			rect = image.Rect(
				clipped.Min.X+int(float64(r.Min.X)*scale),
				clipped.Min.Y+int(float64(r.Min.Y)*scale),
				clipped.Min.X+int(float64(r.Max.X)*scale),
				clipped.Min.Y+int(float64(r.Max.Y)*scale),
			)
			break
		}
	}
	return &timestamps.Location{
		X:       rect.Min.X,
		Y:       rect.Min.Y,
		Width:   rect.Dx(),
		Height:  rect.Dy(),
		Time:    m.On(day),
		RawText: m.Text,
	}
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Extractor) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}
