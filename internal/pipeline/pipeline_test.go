package pipeline

import (
	"bytes"
	"context"
	"image"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ironsheep/chatshot/internal/chattest"
	"github.com/ironsheep/chatshot/internal/config"
	chatimg "github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/ocr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testDay = time.Date(2024, time.May, 4, 9, 0, 0, 0, time.UTC)

// fakeEngine answers body requests by crop width and timestamp requests by
// reporting timeText around any dark pixels in the slice.
type fakeEngine struct {
	bodies   map[int]string
	timeText string
	calls    atomic.Int32
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image, opts ocr.Options) (*ocr.Result, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Whitelist == ocr.TimeWhitelist {
		return f.recognizeTime(img), nil
	}
	return &ocr.Result{Text: f.bodies[img.Bounds().Dx()]}, nil
}

func (f *fakeEngine) recognizeTime(img image.Image) *ocr.Result {
	if f.timeText == "" {
		return &ocr.Result{}
	}
	b := img.Bounds()
	box := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if chatimg.Luma(img.At(x, y)) < 100 {
				box = box.Union(image.Rect(x-b.Min.X, y-b.Min.Y, x-b.Min.X+1, y-b.Min.Y+1))
			}
		}
	}
	if box.Empty() {
		return &ocr.Result{}
	}
	return &ocr.Result{
		Text:  f.timeText,
		Lines: []ocr.Line{{Text: f.timeText, Confidence: 0.9, Bounds: ocr.BoundsFromRect(box)}},
	}
}

// conversation is chattest.Conversation with a dark time mark inside the
// sent bubble.
func conversation() chattest.Screenshot {
	s := chattest.Conversation()
	s.Bubbles = append(s.Bubbles, chattest.Bubble{Rect: image.Rect(330, 205, 370, 215), Fill: chattest.Black})
	return s
}

func newEngine() *fakeEngine {
	return &fakeEngine{
		bodies: map[int]string{
			200: "hey",
			180: "hi! ✓✓",
			160: "how are you?",
			400: "Alice\nonline",
		},
		timeText: "2:15 PM",
	}
}

func newPipeline(t *testing.T, engine ocr.Engine, mutate func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Timestamps.AssociationMaxDistance = 30
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(&cfg, engine, WithLogger(zaptest.NewLogger(t)), WithClock(func() time.Time { return testDay }))
	require.NoError(t, err)
	return p
}

func timePtr(t time.Time) *time.Time { return &t }

func TestProcess(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)

	got, err := p.Process(context.Background(), conversation().Render())
	require.NoError(t, err)

	want := []Message{
		{Body: "hey", IsReceiver: true},
		{Body: "hi!", IsReceiver: false, Time: timePtr(time.Date(2024, time.May, 4, 14, 15, 0, 0, time.UTC))},
		{Body: "how are you?", IsReceiver: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Process mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	img := conversation().Render()

	first, err := p.Process(context.Background(), img)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Process(context.Background(), img)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestProcess_DoesNotModifyInput(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	img := conversation().Render()
	before := append([]byte(nil), img.Pix...)

	_, err := p.Process(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, img.Pix), "input image was modified")
}

func TestProcess_BlankImage(t *testing.T) {
	engine := newEngine()
	p := newPipeline(t, engine, nil)

	got, err := p.Process(context.Background(), chattest.Screenshot{Width: 300, Height: 600}.Render())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, engine.calls.Load(), "nothing should be recognized without bubbles")
}

func TestProcess_EmptyImage(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	_, err := p.Process(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 10)))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestProcess_TimestampsDisabled(t *testing.T) {
	p := newPipeline(t, newEngine(), func(c *config.Config) { c.Timestamps.Enabled = false })

	got, err := p.Process(context.Background(), conversation().Render())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, m := range got {
		assert.Nil(t, m.Time)
	}
}

func TestProcess_Canceled(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, conversation().Render())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_FilteredBodies(t *testing.T) {
	engine := newEngine()
	engine.bodies[200] = "null"
	engine.bodies[160] = strings.Repeat("x", 1001)
	p := newPipeline(t, engine, nil)

	got, err := p.Process(context.Background(), conversation().Render())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hi!", got[0].Body)
}

func TestProcessReader(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)

	got, err := p.ProcessReader(context.Background(), bytes.NewReader(conversation().PNG(t)))
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = p.ProcessReader(context.Background(), strings.NewReader("definitely not a png"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestProcessFile_Missing(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	_, err := p.ProcessFile(context.Background(), "/nonexistent/chat.png")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)

	a, err := p.Analyze(context.Background(), conversation().Render())
	require.NoError(t, err)
	assert.NotEmpty(t, a.RunID)
	assert.Len(t, a.Bubbles, 3)
	require.Len(t, a.Timestamps, 1)
	assert.Equal(t, "2:15 PM", a.Timestamps[0].RawText)
	assert.Len(t, a.Segments, 3)
	assert.Len(t, a.Messages, 3)
}

func TestAnalyze_DownscalesLargeImages(t *testing.T) {
	p := newPipeline(t, newEngine(), func(c *config.Config) { c.Intake.MaxDimension = 400 })

	a, err := p.Analyze(context.Background(), conversation().Render())
	require.NoError(t, err)
	for _, b := range a.Bubbles {
		assert.LessOrEqual(t, b.Y+b.Height, 400)
	}
}

func TestTranscribe(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	img := conversation().Render()

	tr, err := p.Transcribe(context.Background(), img, img)
	require.NoError(t, err)
	assert.Equal(t, "Alice", tr.ChatName)
	require.Len(t, tr.Messages, 6)
	assert.Equal(t, "hey", tr.Messages[0].Body)
	assert.Equal(t, "hey", tr.Messages[3].Body)
}

func TestTranscribe_NoImages(t *testing.T) {
	p := newPipeline(t, newEngine(), nil)
	tr, err := p.Transcribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", tr.ChatName)
	assert.NotNil(t, tr.Messages)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Recognition.Workers = 0
	_, err := New(&cfg, newEngine())
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = New(nil, nil)
	assert.Error(t, err)
}
