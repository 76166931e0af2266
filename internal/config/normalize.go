package config

import (
	"fmt"
	"strings"
)

// normalize expands and cleans user-supplied values so the rest of the
// program can rely on absolute paths and canonical enum spellings.
func (c *Config) normalize() error {
	root, err := expandPath(c.Paths.Root)
	if err != nil {
		return err
	}
	c.Paths.Root = root

	c.Paths.DBFilename = strings.TrimSpace(c.Paths.DBFilename)
	if c.Paths.DBFilename == "" {
		c.Paths.DBFilename = defaultDBFilename
	}
	if strings.ContainsAny(c.Paths.DBFilename, `/\`) {
		return fmt.Errorf("db_filename must be a bare filename, got %q", c.Paths.DBFilename)
	}

	c.Media.ImageFormat = strings.ToLower(strings.TrimSpace(c.Media.ImageFormat))
	if c.Media.ImageFormat == "" {
		c.Media.ImageFormat = defaultImageFormat
	}
	if c.Media.ThumbnailMaxPx <= 0 {
		c.Media.ThumbnailMaxPx = defaultThumbnailMaxPx
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
