package regiond

import (
	"fmt"
	"time"

	"github.com/embarkmaps/regiond/router"
)

// DefaultGraceTimeout bounds how long Stop waits for in-flight requests
// before closing the remaining connections.
const DefaultGraceTimeout = 5 * time.Second

// Config carries everything a Server needs at start time. The tile
// credential and proxy URL are injected here so they can be swapped in tests.
type Config struct {
	// RegionPath is the pre-built region file to load.
	RegionPath string
	// Port to listen on; 0 picks an ephemeral port.
	Port int
	// TileCredential is the opaque map-tile provider credential. Held in
	// memory only, never logged.
	TileCredential string
	// TileProxyURL is the forwarding endpoint for tile requests. Empty
	// disables tile serving.
	TileProxyURL string
	// SnapRadiusM overrides the snap radius; 0 uses the default.
	SnapRadiusM float64
	// GraceTimeout overrides the shutdown grace period; 0 uses the default.
	GraceTimeout time.Duration
}

func (c Config) graceTimeout() time.Duration {
	if c.GraceTimeout <= 0 {
		return DefaultGraceTimeout
	}
	return c.GraceTimeout
}

func (c Config) snapRadius() float64 {
	if c.SnapRadiusM <= 0 {
		return router.DefaultSnapRadiusM
	}
	return c.SnapRadiusM
}

// String renders the config for logs with the credential redacted.
func (c Config) String() string {
	cred := "<none>"
	if c.TileCredential != "" {
		cred = "<redacted>"
	}
	return fmt.Sprintf("region=%s port=%d proxy=%s credential=%s",
		c.RegionPath, c.Port, c.TileProxyURL, cred)
}
