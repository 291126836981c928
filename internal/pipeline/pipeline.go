package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/config"
	"github.com/ironsheep/chatshot/internal/detection"
	"github.com/ironsheep/chatshot/internal/extract"
	chatimg "github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/logging"
	"github.com/ironsheep/chatshot/internal/ocr"
	"github.com/ironsheep/chatshot/internal/timestamps"
)

var (
	// ErrDecode wraps failures to decode input bytes as an image.
	ErrDecode = chatimg.ErrDecode
	// ErrEmptyImage is returned for images with zero width or height.
	ErrEmptyImage = errors.New("image has zero area")
)

// Message is one recovered chat message.
type Message = extract.Message

// Analysis holds every intermediate result of one run, for diagnostics and
// annotation.
type Analysis struct {
	RunID      string                `json:"run_id"`
	Bubbles    []detection.Bubble    `json:"bubbles"`
	Timestamps []timestamps.Location `json:"timestamps"`
	Segments   []extract.Segment     `json:"segments"`
	Messages   []Message             `json:"messages"`
}

// Pipeline runs region scanning, merging, timestamp location and text
// extraction over screenshots. It is safe for concurrent use.
type Pipeline struct {
	cfg       config.Config
	engine    ocr.Engine
	scanner   *detection.Scanner
	merger    *detection.Merger
	locator   *timestamps.Locator
	extractor *extract.Extractor
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logging.OrNop(logger) }
}

// WithClock sets the clock that supplies the date for recognized times.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a Pipeline from cfg using engine for recognition.
func New(cfg *config.Config, engine ocr.Engine, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, errors.New("pipeline: nil recognition engine")
	}

	scanner, err := detection.NewScanner(cfg.Scanner)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:     *cfg,
		engine:  engine,
		scanner: scanner,
		merger:  detection.NewMerger(cfg.Merger),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	clock := func() time.Time { return p.now() }
	p.locator = &timestamps.Locator{
		Engine:               engine,
		SliceHeight:          cfg.SliceHeight(),
		Stride:               cfg.Scanner.MinMessageHeight,
		MinRecognitionHeight: cfg.Extractor.MinRecognitionHeight,
		Language:             cfg.Recognition.Language,
		Workers:              cfg.Recognition.Workers,
		CallTimeout:          cfg.CallTimeout(),
		Now:                  clock,
		Logger:               p.logger,
	}
	p.extractor = &extract.Extractor{
		Engine:               engine,
		CropPadding:          cfg.Extractor.CropPadding,
		Contrast:             cfg.Extractor.Contrast,
		Threshold:            uint8(cfg.Extractor.Threshold),
		MinRecognitionHeight: cfg.Extractor.MinRecognitionHeight,
		Language:             cfg.Recognition.Language,
		Workers:              cfg.Recognition.Workers,
		CallTimeout:          cfg.CallTimeout(),
		Now:                  clock,
		Logger:               p.logger,
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Process extracts the messages in img.
//
// It returns an empty, non-nil slice when no message is found. Recognition
// failures on individual bubbles or slices degrade the result instead of
// failing it; only cancellation of ctx or an empty image is an error.
func (p *Pipeline) Process(ctx context.Context, img image.Image) ([]Message, error) {
	a, err := p.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	return a.Messages, nil
}

// ProcessReader decodes a screenshot from r and processes it.
func (p *Pipeline) ProcessReader(ctx context.Context, r io.Reader) ([]Message, error) {
	img, err := chatimg.Decode(r)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, img)
}

// ProcessFile decodes the screenshot at path and processes it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return p.ProcessReader(ctx, f)
}

// Prepare applies intake rules (downscaling) to a decoded image.
func (p *Pipeline) Prepare(img image.Image) (image.Image, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}
	return chatimg.Downscale(img, p.cfg.Intake.MaxDimension), nil
}

// Detect runs the scanner and merger only. img must already be prepared.
func (p *Pipeline) Detect(img image.Image) []detection.Bubble {
	return p.merger.Merge(p.scanner.Scan(img))
}

// Locate finds timestamps in the scanned rows of img. img must already be
// prepared.
func (p *Pipeline) Locate(ctx context.Context, img image.Image) ([]timestamps.Location, error) {
	top, bottom := p.scanner.ScanRange(img)
	return p.locator.Locate(ctx, img, top, bottom)
}

// Analyze runs the full pipeline and returns every intermediate result.
// Coordinates refer to the prepared (possibly downscaled) image.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image) (*Analysis, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	start := time.Now()

	img, err := p.Prepare(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := &Analysis{
		RunID:      runID,
		Timestamps: []timestamps.Location{},
		Segments:   []extract.Segment{},
		Messages:   []Message{},
	}
	a.Bubbles = p.Detect(img)
	logger.Debug("detected bubbles",
		zap.Int("bubbles", len(a.Bubbles)),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	if len(a.Bubbles) == 0 {
		logger.Info("no message bubbles found")
		return a, nil
	}

	if p.cfg.Timestamps.Enabled {
		locs, err := p.Locate(ctx, img)
		if err != nil {
			return nil, err
		}
		a.Timestamps = locs
	}

	segments, err := p.extractor.Extract(ctx, img, a.Bubbles)
	if err != nil {
		return nil, err
	}
	extract.Associate(segments, a.Timestamps, p.cfg.Timestamps.AssociationMaxDistance)
	a.Segments = segments
	a.Messages = extract.Assemble(segments, p.cfg.Extractor.MaxBodyLength)

	logger.Info("processed screenshot",
		zap.Int("bubbles", len(a.Bubbles)),
		zap.Int("timestamps", len(a.Timestamps)),
		zap.Int("messages", len(a.Messages)),
		zap.Duration("elapsed", time.Since(start)))
	return a, nil
}
