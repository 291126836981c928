package extract

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ironsheep/chatshot/internal/chattest"
	"github.com/ironsheep/chatshot/internal/detection"
	chatimg "github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/ocr"
)

var testDay = time.Date(2024, time.May, 4, 9, 0, 0, 0, time.UTC)

// conversationBubbles are the merged bubbles of chattest.Conversation.
var conversationBubbles = []detection.Bubble{
	{X: 20, Y: 100, Width: 180, Height: 40, IsLeftAligned: true, AverageIntensity: 200},
	{X: 220, Y: 180, Width: 160, Height: 40, AverageIntensity: 165},
	{X: 20, Y: 260, Width: 140, Height: 40, IsLeftAligned: true, AverageIntensity: 200},
}

// widthEngine answers by crop width, which identifies the bubble.
func widthEngine(byWidth map[int]string) ocr.Engine {
	return ocr.EngineFunc(func(ctx context.Context, img image.Image, opts ocr.Options) (*ocr.Result, error) {
		text, ok := byWidth[img.Bounds().Dx()]
		if !ok {
			return &ocr.Result{}, nil
		}
		if text == "!fail" {
			return nil, errors.New("recognition failed")
		}
		return &ocr.Result{Text: text}, nil
	})
}

func newExtractor(t *testing.T, engine ocr.Engine) *Extractor {
	return &Extractor{
		Engine:      engine,
		CropPadding: 10,
		Contrast:    40,
		Workers:     2,
		Now:         func() time.Time { return testDay },
		Logger:      zaptest.NewLogger(t),
	}
}

func TestExtract(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := widthEngine(map[int]string{
		200: "hi there\n10:02 AM",
		180: "✓✓ hello back",
		160: "Delivered",
	})
	e := newExtractor(t, engine)

	segments, err := e.Extract(context.Background(), chattest.Conversation().Render(), conversationBubbles)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "hi there", segments[0].Text)
	require.NotNil(t, segments[0].Timestamp)
	assert.Equal(t, time.Date(2024, time.May, 4, 10, 2, 0, 0, time.UTC), segments[0].Timestamp.Time)
	assert.Equal(t, conversationBubbles[0].Rect(), segments[0].Timestamp.Rect())

	assert.Equal(t, "hello back", segments[1].Text)
	assert.Nil(t, segments[1].Timestamp)

	assert.Equal(t, "", segments[2].Text)
	assert.Equal(t, conversationBubbles[2], segments[2].Bubble)
}

func TestExtract_RequestOptions(t *testing.T) {
	var mu sync.Mutex
	var seen []ocr.Options
	engine := ocr.EngineFunc(func(ctx context.Context, img image.Image, opts ocr.Options) (*ocr.Result, error) {
		mu.Lock()
		seen = append(seen, opts)
		mu.Unlock()
		return &ocr.Result{Text: "x"}, nil
	})
	e := newExtractor(t, engine)
	e.Language = "deu"

	_, err := e.Extract(context.Background(), chattest.Conversation().Render(), conversationBubbles[:1])
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, ocr.TextWhitelist, seen[0].Whitelist)
	assert.True(t, seen[0].PreserveInterwordSpaces)
	assert.Equal(t, "deu", seen[0].Language)
}

func TestExtract_FailuresSkipBubble(t *testing.T) {
	engine := widthEngine(map[int]string{
		200: "first",
		180: "!fail",
		160: "third",
	})
	e := newExtractor(t, engine)

	segments, err := e.Extract(context.Background(), chattest.Conversation().Render(), conversationBubbles)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "first", segments[0].Text)
	assert.Equal(t, "third", segments[1].Text)
}

func TestExtract_CallTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := ocr.EngineFunc(func(ctx context.Context, img image.Image, opts ocr.Options) (*ocr.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	e := newExtractor(t, engine)
	e.CallTimeout = 10 * time.Millisecond

	segments, err := e.Extract(context.Background(), chattest.Conversation().Render(), conversationBubbles)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestExtract_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newExtractor(t, widthEngine(nil))

	_, err := e.Extract(ctx, chattest.Conversation().Render(), conversationBubbles)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_InvertsDarkBubbles(t *testing.T) {
	img := chattest.Screenshot{
		Width:  400,
		Height: 400,
		Bubbles: []chattest.Bubble{
			{Rect: image.Rect(20, 100, 200, 140), Fill: chattest.DarkGray},
		},
	}.Render()
	bubble := detection.Bubble{X: 20, Y: 100, Width: 180, Height: 40, IsLeftAligned: true, AverageIntensity: 40}

	var center float64
	engine := ocr.EngineFunc(func(ctx context.Context, crop image.Image, opts ocr.Options) (*ocr.Result, error) {
		b := crop.Bounds()
		center = chatimg.Luma(crop.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2))
		return &ocr.Result{Text: "dark"}, nil
	})
	e := newExtractor(t, engine)

	_, err := e.Extract(context.Background(), img, []detection.Bubble{bubble})
	require.NoError(t, err)
	assert.Greater(t, center, 128.0, "dark bubble fill should be light after inversion")
}

func TestExtract_InlineTimestampUsesLineBox(t *testing.T) {
	engine := ocr.EngineFunc(func(ctx context.Context, img image.Image, opts ocr.Options) (*ocr.Result, error) {
		return &ocr.Result{
			Text: "lunch?\n12:15 PM",
			Lines: []ocr.Line{
				{Text: "lunch?", Bounds: ocr.Bounds{X1: 5, Y1: 5, X2: 60, Y2: 20}},
				{Text: "12:15 PM", Bounds: ocr.Bounds{X1: 120, Y1: 30, X2: 180, Y2: 45}},
			},
		}, nil
	})
	e := newExtractor(t, engine)

	segments, err := e.Extract(context.Background(), chattest.Conversation().Render(), conversationBubbles[:1])
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.NotNil(t, segments[0].Timestamp)

	// Crop origin is the bubble origin minus padding: (10, 90).
	assert.Equal(t, image.Rect(130, 120, 190, 135), segments[0].Timestamp.Rect())
	assert.Equal(t, "lunch?", segments[0].Text)
}
