package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	point := fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

// createImageWithText renders text in black on white, scaled up so each glyph
// is large enough for Tesseract.
func createImageWithText(text string, scale int) *image.RGBA {
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

// requireTesseract skips the test when Tesseract cannot run here.
func requireTesseract(t *testing.T, engine *Tesseract) {
	t.Helper()
	info := engine.Info(context.Background())
	if !info.Available {
		t.Skipf("Tesseract not available: %s", info.Error)
	}
}

func TestTesseract_Recognize(t *testing.T) {
	engine := NewTesseract("eng", "")
	requireTesseract(t, engine)

	img := createImageWithText("HELLO 12:38", 4)
	result, err := engine.Recognize(context.Background(), img, Options{
		Whitelist:               TextWhitelist,
		PageSegMode:             PSMSingleBlock,
		PreserveInterwordSpaces: true,
	})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !strings.Contains(strings.ToUpper(result.Text), "HELLO") {
		t.Errorf("expected HELLO in %q", result.Text)
	}
	for _, line := range result.Lines {
		if line.Confidence < 0 || line.Confidence > 1 {
			t.Errorf("confidence out of range: %f", line.Confidence)
		}
	}
}

func TestTesseract_RecognizeTimeWhitelist(t *testing.T) {
	engine := NewTesseract("eng", "")
	requireTesseract(t, engine)

	img := createImageWithText("9:41 AM", 4)
	result, err := engine.Recognize(context.Background(), img, Options{
		Whitelist:   TimeWhitelist,
		PageSegMode: PSMSingleBlock,
	})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !strings.Contains(result.Text, "41") {
		t.Errorf("expected the minutes in %q", result.Text)
	}
}

func TestTesseract_CanceledContext(t *testing.T) {
	engine := NewTesseract("eng", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, image.NewGray(image.Rect(0, 0, 10, 10)), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Recognize error: got %v, want context.Canceled", err)
	}
}

func TestNewTesseract_DefaultLanguage(t *testing.T) {
	if got := NewTesseract("", "").Language; got != "eng" {
		t.Errorf("Language: got %q, want eng", got)
	}
	if got := NewTesseract("deu", "/opt/tessdata").TessdataPrefix; got != "/opt/tessdata" {
		t.Errorf("TessdataPrefix: got %q", got)
	}
}

func TestPageSegMode(t *testing.T) {
	if pageSegMode(PSMSingleBlock) == pageSegMode(PSMAuto) {
		t.Error("single block and auto should map to different Tesseract modes")
	}
	if pageSegMode(PageSegMode(99)) != pageSegMode(PSMAuto) {
		t.Error("unknown modes should fall back to auto")
	}
}

func TestExtractTextFromRegion_CoordinateOffset(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	var gotSize image.Point
	engine := EngineFunc(func(ctx context.Context, crop image.Image, opts Options) (*Result, error) {
		gotSize = crop.Bounds().Size()
		return &Result{
			Text:  "hi",
			Lines: []Line{{Text: "hi", Confidence: 0.9, Bounds: Bounds{X1: 10, Y1: 20, X2: 30, Y2: 40}}},
		}, nil
	})

	result, err := ExtractTextFromRegion(context.Background(), engine, img, image.Rect(100, 50, 180, 120), Options{})
	if err != nil {
		t.Fatalf("ExtractTextFromRegion failed: %v", err)
	}
	if gotSize != (image.Point{X: 80, Y: 70}) {
		t.Errorf("crop size: got %v, want 80x70", gotSize)
	}
	want := Bounds{X1: 110, Y1: 70, X2: 130, Y2: 90}
	if result.Lines[0].Bounds != want {
		t.Errorf("bounds: got %+v, want %+v", result.Lines[0].Bounds, want)
	}
}

func TestExtractTextFromRegion_Clamped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	var gotSize image.Point
	engine := EngineFunc(func(ctx context.Context, crop image.Image, opts Options) (*Result, error) {
		gotSize = crop.Bounds().Size()
		return &Result{}, nil
	})

	if _, err := ExtractTextFromRegion(context.Background(), engine, img, image.Rect(50, 50, 500, 500), Options{}); err != nil {
		t.Fatalf("ExtractTextFromRegion failed: %v", err)
	}
	if gotSize != (image.Point{X: 50, Y: 50}) {
		t.Errorf("crop size: got %v, want 50x50", gotSize)
	}

	if _, err := ExtractTextFromRegion(context.Background(), engine, img, image.Rect(300, 300, 400, 400), Options{}); err == nil {
		t.Error("ExtractTextFromRegion should fail for a region outside the image")
	}
}

func TestExtractTextFromRegion_EngineError(t *testing.T) {
	boom := errors.New("boom")
	engine := EngineFunc(func(ctx context.Context, crop image.Image, opts Options) (*Result, error) {
		return nil, boom
	})
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := ExtractTextFromRegion(context.Background(), engine, img, img.Bounds(), Options{}); !errors.Is(err, boom) {
		t.Errorf("error: got %v, want boom", err)
	}
}

func TestBounds(t *testing.T) {
	r := image.Rect(10, 20, 100, 80)
	b := BoundsFromRect(r)
	if b != (Bounds{X1: 10, Y1: 20, X2: 100, Y2: 80}) {
		t.Errorf("BoundsFromRect: got %+v", b)
	}
	if b.Rect() != r {
		t.Errorf("Rect: got %v, want %v", b.Rect(), r)
	}
	if got := b.Offset(5, -5); got != (Bounds{X1: 15, Y1: 15, X2: 105, Y2: 75}) {
		t.Errorf("Offset: got %+v", got)
	}
}

func TestTesseract_ExpiredDeadline(t *testing.T) {
	engine := NewTesseract("eng", "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	start := time.Now()
	_, err := engine.Recognize(ctx, createImageWithText("slow", 2), Options{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Recognize error: got %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Recognize did not return promptly after the deadline")
	}
}

func TestDescribe(t *testing.T) {
	fake := EngineFunc(func(ctx context.Context, img image.Image, opts Options) (*Result, error) {
		return &Result{}, nil
	})
	info := Describe(context.Background(), fake, "deu")
	if !info.Available {
		t.Error("engines without Info should be reported available")
	}
	if info.Language != "deu" {
		t.Errorf("Language: got %q, want deu", info.Language)
	}
	if !strings.Contains(info.Backend, "EngineFunc") {
		t.Errorf("Backend: got %q, want the engine type", info.Backend)
	}

	tess := NewTesseract("eng", "")
	if got := Describe(context.Background(), tess, "deu"); got.Backend != "gosseract" || got.Language != "eng" {
		t.Errorf("Describe(Tesseract): got %+v, want its own Info", got)
	}
}
