package config

const (
	defaultRoot           = "~/.local/share/framekeep"
	defaultDBFilename     = "framekeep.sqlite"
	defaultThumbnailMaxPx = 384
	defaultImageFormat    = "webp"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root:       defaultRoot,
			DBFilename: defaultDBFilename,
		},
		Media: Media{
			ThumbnailMaxPx: defaultThumbnailMaxPx,
			ImageFormat:    defaultImageFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
