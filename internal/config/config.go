package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Scanner contains the Region Scanner heuristics.
type Scanner struct {
	// TopMargin and BottomMargin are fractions of the image height excluded
	// from scanning (chat header and input bar).
	TopMargin    float64 `toml:"top_margin"`
	BottomMargin float64 `toml:"bottom_margin"`
	// SideMargin is the fraction of the image width excluded on each side.
	SideMargin float64 `toml:"side_margin"`
	// IntensityThreshold is the luma difference (0-255) from the reference
	// pixel above which a pixel counts as content.
	IntensityThreshold float64 `toml:"intensity_threshold"`
	// LeftAlignRatio classifies a row as left aligned when its span starts
	// before LeftAlignRatio * width.
	LeftAlignRatio   float64 `toml:"left_align_ratio"`
	MinMessageHeight int     `toml:"min_message_height"`
	// Palette lists bubble colors ("#RRGGBB"). Pixels within
	// PaletteTolerance (Lab distance) of any entry are also content.
	Palette          []string `toml:"palette"`
	PaletteTolerance float64  `toml:"palette_tolerance"`
	DetectHeader     bool     `toml:"detect_header"`
}

// Merger contains the Bubble Merger thresholds, in pixels.
type Merger struct {
	Gap     int `toml:"gap"`
	Padding int `toml:"padding"`
}

// Timestamps contains Timestamp Locator settings.
type Timestamps struct {
	Enabled bool `toml:"enabled"`
	// SliceHeight is the height of each recognized slice. Zero means the
	// scanner's MinMessageHeight.
	SliceHeight int `toml:"slice_height"`
	// AssociationMaxDistance bounds the vertical distance between a bubble
	// and the timestamp attached to it. Zero disables the bound.
	AssociationMaxDistance int `toml:"association_max_distance"`
}

// Extractor contains crop, enhancement and output filter settings.
type Extractor struct {
	CropPadding          int     `toml:"crop_padding"`
	Contrast             float64 `toml:"contrast"`
	Threshold            int     `toml:"threshold"`
	MinRecognitionHeight int     `toml:"min_recognition_height"`
	MaxBodyLength        int     `toml:"max_body_length"`
}

// Recognition contains OCR engine settings.
type Recognition struct {
	Language           string `toml:"language"`
	TessdataPrefix     string `toml:"tessdata_prefix"`
	Workers            int    `toml:"workers"`
	CallTimeoutSeconds int    `toml:"call_timeout_seconds"`
}

// Intake contains settings applied to images before they enter the pipeline.
type Intake struct {
	// MaxDimension downscales images whose longest side exceeds it. Zero disables.
	MaxDimension int `toml:"max_dimension"`
}

// HTTP contains the upload endpoint settings.
type HTTP struct {
	Bind        string `toml:"bind"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates every tunable used by chatshot.
//
// Sections by subsystem:
//   - Scanner: margins, thresholds and palette for the Region Scanner
//   - Merger: gap and padding for the Bubble Merger
//   - Timestamps: slice geometry and association bound for the Timestamp Locator
//   - Extractor: crop padding, enhancement and body filters
//   - Recognition: Tesseract language, worker count and per-call timeout
//   - Intake: downscaling of oversized uploads
//   - HTTP: bind address and upload limit
//   - Logging: log format and level
type Config struct {
	Scanner     Scanner     `toml:"scanner"`
	Merger      Merger      `toml:"merger"`
	Timestamps  Timestamps  `toml:"timestamps"`
	Extractor   Extractor   `toml:"extractor"`
	Recognition Recognition `toml:"recognition"`
	Intake      Intake      `toml:"intake"`
	HTTP        HTTP        `toml:"http"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chatshot/config.toml")
}

// Load reads the configuration at path on top of the defaults and validates
// the result. An empty path falls back to DefaultConfigPath, which may be
// absent. An explicit path that does not exist is an error.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
	} else {
		var err error
		path, err = expandPath(path)
		if err != nil {
			return nil, "", err
		}
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		path = ""
	default:
		return nil, "", fmt.Errorf("open config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// Parse decodes TOML data on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// CallTimeout returns the per-recognition-call timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Recognition.CallTimeoutSeconds) * time.Second
}

// SliceHeight returns the effective timestamp slice height.
func (c *Config) SliceHeight() int {
	if c.Timestamps.SliceHeight > 0 {
		return c.Timestamps.SliceHeight
	}
	return c.Scanner.MinMessageHeight
}

func (c *Config) applyEnv() {
	if level := strings.TrimSpace(os.Getenv("CHATSHOT_LOG_LEVEL")); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
