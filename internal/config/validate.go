package config

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateMerger(); err != nil {
		return err
	}
	if err := c.validateTimestamps(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateServing(); err != nil {
		return err
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (c *Config) validateScanner() error {
	s := c.Scanner
	if s.TopMargin < 0 || s.BottomMargin < 0 || s.TopMargin+s.BottomMargin >= 1 {
		return invalid("scanner.top_margin and scanner.bottom_margin must be >= 0 and sum below 1")
	}
	if s.SideMargin < 0 || s.SideMargin >= 0.5 {
		return invalid("scanner.side_margin must be between 0 and 0.5")
	}
	if s.IntensityThreshold < 0 || s.IntensityThreshold > 255 {
		return invalid("scanner.intensity_threshold must be between 0 and 255")
	}
	if s.LeftAlignRatio <= 0 || s.LeftAlignRatio >= 1 {
		return invalid("scanner.left_align_ratio must be between 0 and 1")
	}
	if s.MinMessageHeight < 1 {
		return invalid("scanner.min_message_height must be at least 1")
	}
	for _, hex := range s.Palette {
		if _, err := colorful.Hex(hex); err != nil {
			return invalid("scanner.palette entry %q is not a #RRGGBB color", hex)
		}
	}
	if s.PaletteTolerance < 0 {
		return invalid("scanner.palette_tolerance must be >= 0")
	}
	return nil
}

func (c *Config) validateMerger() error {
	if c.Merger.Gap < 0 {
		return invalid("merger.gap must be >= 0")
	}
	if c.Merger.Padding < 0 {
		return invalid("merger.padding must be >= 0")
	}
	return nil
}

func (c *Config) validateTimestamps() error {
	if c.Timestamps.SliceHeight < 0 {
		return invalid("timestamps.slice_height must be >= 0")
	}
	if c.Timestamps.AssociationMaxDistance < 0 {
		return invalid("timestamps.association_max_distance must be >= 0")
	}
	return nil
}

func (c *Config) validateExtractor() error {
	e := c.Extractor
	if e.CropPadding < 0 {
		return invalid("extractor.crop_padding must be >= 0")
	}
	if e.Contrast < -100 || e.Contrast > 100 {
		return invalid("extractor.contrast must be between -100 and 100")
	}
	if e.Threshold < 0 || e.Threshold > 255 {
		return invalid("extractor.threshold must be between 0 and 255")
	}
	if e.MinRecognitionHeight < 0 {
		return invalid("extractor.min_recognition_height must be >= 0")
	}
	if e.MaxBodyLength < 1 {
		return invalid("extractor.max_body_length must be at least 1")
	}
	return nil
}

func (c *Config) validateRecognition() error {
	r := c.Recognition
	if r.Language == "" {
		return invalid("recognition.language must be set")
	}
	if r.Workers < 1 {
		return invalid("recognition.workers must be at least 1")
	}
	if r.CallTimeoutSeconds < 1 {
		return invalid("recognition.call_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateServing() error {
	if c.Intake.MaxDimension < 0 {
		return invalid("intake.max_dimension must be >= 0")
	}
	if c.HTTP.MaxUploadMB < 1 {
		return invalid("http.max_upload_mb must be at least 1")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
