package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is an Engine backed by the Tesseract library via gosseract.
//
// Each Recognize call creates its own client and closes it on return, so a
// single Tesseract value can be shared across goroutines.
type Tesseract struct {
	// Language is the default Tesseract language code, e.g. "eng".
	Language string
	// TessdataPrefix points at a tessdata directory. Empty uses the system default.
	TessdataPrefix string
}

// NewTesseract returns a Tesseract engine. An empty language means "eng".
func NewTesseract(language, tessdataPrefix string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, TessdataPrefix: tessdataPrefix}
}

type recognition struct {
	result *Result
	err    error
}

// Recognize runs Tesseract on img.
//
// Tesseract itself cannot be interrupted, so the call runs on its own
// goroutine; when ctx ends first Recognize returns ctx.Err() immediately and
// the abandoned call releases its client when it finishes.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	done := make(chan recognition, 1)
	go func() {
		res, err := t.recognize(buf.Bytes(), opts)
		done <- recognition{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.result, r.err
	}
}

func (t *Tesseract) recognize(data []byte, opts Options) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	language := opts.Language
	if language == "" {
		language = t.Language
	}
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if opts.PreserveInterwordSpaces {
		if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
			return nil, fmt.Errorf("failed to set variable: %w", err)
		}
	}
	if err := client.SetPageSegMode(pageSegMode(opts.PageSegMode)); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		// Return just text if boxes fail
		return &Result{Text: text, Lines: []Line{}}, nil
	}

	lines := make([]Line, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		lines = append(lines, Line{
			Text:       word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     BoundsFromRect(box.Box),
		})
	}

	return &Result{Text: text, Lines: lines}, nil
}

func pageSegMode(m PageSegMode) gosseract.PageSegMode {
	switch m {
	case PSMSingleBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case PSMSingleLine:
		return gosseract.PSM_SINGLE_LINE
	default:
		return gosseract.PSM_AUTO
	}
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	Backend      string `json:"backend"`
	Language     string `json:"language"`
	TessdataPath string `json:"tessdata_path,omitempty"`
}

// Info reports whether t can recognize text, by running it on a tiny blank
// image.
func (t *Tesseract) Info(ctx context.Context) Info {
	info := Info{
		Backend:      "gosseract",
		Language:     t.Language,
		TessdataPath: t.TessdataPrefix,
		Version:      Version(),
	}
	probe := image.NewGray(image.Rect(0, 0, 32, 32))
	if _, err := t.Recognize(ctx, probe, Options{PageSegMode: PSMSingleLine}); err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	return info
}

// Describe returns engine's Info when it can describe itself, and otherwise
// assumes it is available.
func Describe(ctx context.Context, engine Engine, language string) Info {
	if d, ok := engine.(interface{ Info(context.Context) Info }); ok {
		return d.Info(ctx)
	}
	return Info{
		Available: true,
		Backend:   fmt.Sprintf("%T", engine),
		Language:  language,
	}
}

func crop(img image.Image, rect image.Rectangle) image.Image {
	return imaging.Crop(img, rect)
}

func errRegionOutside(rect, bounds image.Rectangle) error {
	return fmt.Errorf("region %v outside image bounds %v", rect, bounds)
}
