// Package identity generates the opaque row identifiers used across the
// store: "<kind>_<random-hex>". Identifiers are assigned once at creation
// and never reused.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh identifier for the given kind prefix, e.g.
// NewID("asset") -> "asset_9f2c...".
func NewID(kind string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", kind, raw)
}
