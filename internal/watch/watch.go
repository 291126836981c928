// Package watch processes screenshots as they are dropped into a directory.
//
// Each supported image (png, jpg, gif, webp) that settles for the debounce
// window is run through the pipeline and its transcript written beside it as
// <name>.messages.json.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ironsheep/chatshot/internal/imaging"
	"github.com/ironsheep/chatshot/internal/logging"
	"github.com/ironsheep/chatshot/internal/pipeline"
)

// OutputSuffix is appended to a screenshot's base name for its transcript.
const OutputSuffix = ".messages.json"

// DefaultDebounce is how long a file must stay quiet before it is processed.
// Screenshots are often written in several chunks.
const DefaultDebounce = 500 * time.Millisecond

// Stats counts watcher activity.
type Stats struct {
	Processed int
	Failed    int
	LastPath  string
}

// Watcher turns screenshots appearing in a directory into transcripts.
type Watcher struct {
	dir      string
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stats   Stats
}

// New creates a Watcher for dir. A debounce <= 0 uses DefaultDebounce.
func New(dir string, p *pipeline.Pipeline, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch dir: %s is not a directory", dir)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		pipeline: p,
		logger:   logging.OrNop(logger),
		debounce: debounce,
		pending:  make(map[string]time.Time),
	}, nil
}

// OutputPath returns where the transcript for the screenshot at path goes.
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + OutputSuffix
}

// Run watches the directory until ctx is canceled. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for screenshots", zap.String("dir", w.dir))

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !imaging.IsSupportedExt(event.Name) {
		return
	}
	w.logger.Debug("screenshot event", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// processSettled handles files that have been quiet for the debounce window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if ctx.Err() != nil {
			return
		}
		out, err := w.ProcessFile(ctx, path)

		w.mu.Lock()
		w.stats.LastPath = path
		if err != nil {
			w.stats.Failed++
		} else {
			w.stats.Processed++
		}
		w.mu.Unlock()

		if err != nil {
			w.logger.Warn("failed to process screenshot", zap.String("path", path), zap.Error(err))
			continue
		}
		w.logger.Info("wrote transcript", zap.String("path", path), zap.String("output", out))
	}
}

// ProcessFile transcribes one screenshot and writes the result beside it.
// It returns the output path.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(f)
	f.Close()
	if err != nil {
		return "", err
	}

	t, err := w.pipeline.Transcribe(ctx, img)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}

	out := OutputPath(path)
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return out, nil
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
