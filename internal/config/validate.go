package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.Root == "" {
		return errors.New("paths.root must not be empty")
	}
	switch c.Media.ImageFormat {
	case "webp", "png":
	default:
		return fmt.Errorf("media.image_format must be webp or png, got %q", c.Media.ImageFormat)
	}
	if c.Media.ThumbnailMaxPx < 16 || c.Media.ThumbnailMaxPx > 4096 {
		return fmt.Errorf("media.thumbnail_max_px out of range: %d", c.Media.ThumbnailMaxPx)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
