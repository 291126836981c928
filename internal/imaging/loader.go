package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is returned when input bytes cannot be decoded as an image.
var ErrDecode = errors.New("failed to decode image")

// Decode reads a PNG, JPEG, GIF or WebP screenshot from r.
//
// EXIF orientation is applied so phone screenshots that were rotated on
// export come out upright. Any failure wraps ErrDecode.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: image has zero area", ErrDecode)
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// IsSupportedExt reports whether name has an extension Decode understands.
func IsSupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

// DefaultCacheSize is the number of screenshots an ImageCache keeps.
const DefaultCacheSize = 32

type cacheEntry struct {
	img     image.Image
	format  string
	size    int64
	modTime time.Time
}

// ImageCache keeps decoded screenshots keyed by path so repeated tool calls on
// the same file (bubbles, then timestamps, then extraction) decode it once.
//
// An entry is reloaded when the file's size or modification time changes,
// which happens when a screenshot is overwritten in place. When the cache is
// full the oldest entry is dropped. ImageCache is safe for concurrent use.
type ImageCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry
	order    []string
}

// NewImageCache creates a cache holding up to DefaultCacheSize images.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheSize)
}

// NewImageCacheSize creates a cache holding up to capacity images. A capacity
// below 1 is treated as 1.
func NewImageCacheSize(capacity int) *ImageCache {
	return &ImageCache{
		capacity: max(capacity, 1),
		entries:  make(map[string]*cacheEntry),
	}
}

// Load returns the decoded image at path, from the cache when the file is
// unchanged. Decoding failures wrap ErrDecode.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (*cacheEntry, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if ok && e.size == stat.Size() && e.modTime.Equal(stat.ModTime()) {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	format := "unknown"
	if _, name, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		format = name
	}
	e = &cacheEntry{img: img, format: format, size: stat.Size(), modTime: stat.ModTime()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[path]; !exists {
		c.order = append(c.order, path)
	}
	c.entries[path] = e
	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return e, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes the image cached for path, if any.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[path]; !ok {
		return
	}
	delete(c.entries, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ImageInfo describes a screenshot on disk.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder that recognized the file contents: "png",
	// "jpeg", "gif" or "webp".
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads the screenshot at path through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch e.img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	b := e.img.Bounds()
	return &ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        e.format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: e.size,
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the size of the screenshot at path.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}
