package testsupport

import (
	"testing"

	"framekeep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config rooted at a unique temp directory per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Paths.Root = t.TempDir()

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithThumbnailMaxPx overrides the thumbnail bound on the test config.
func WithThumbnailMaxPx(px int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.ThumbnailMaxPx = px
	}
}

// WithImageFormat overrides the stored image format on the test config.
func WithImageFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Media.ImageFormat = format
	}
}
