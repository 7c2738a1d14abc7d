// Package tileproxy forwards map-tile requests to the configured upstream
// endpoint, attaching the provider credential so the host application never
// has to embed it.
package tileproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "tileproxy")

var (
	// ErrUpstreamUnavailable is returned when the upstream cannot be
	// reached at all (connect failure, timeout).
	ErrUpstreamUnavailable = errors.New("tile upstream unavailable")
	// ErrUpstreamRejected is returned when the upstream answers with a
	// non-success status.
	ErrUpstreamRejected = errors.New("tile upstream rejected request")
)

const (
	defaultTimeout = 10 * time.Second
	retryBackoff   = 250 * time.Millisecond
	// maxTileBytes caps a single tile response.
	maxTileBytes = 8 << 20
)

// Client forwards tile requests to one upstream endpoint. The credential is
// held in process memory only; it is attached to outbound requests and never
// logged or echoed to callers.
type Client struct {
	http       *http.Client
	baseURL    string
	credential string
}

// New builds a client for the given forwarding endpoint. The credential is
// opaque; it is sent as a bearer token.
func New(baseURL, credential string) *Client {
	return &Client{
		http:       &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
	}
}

// Tile is one fetched tile.
type Tile struct {
	Data        []byte
	ContentType string
}

// FetchTile relays the tile coordinates to the upstream, retrying once after
// a short backoff on transport failure or a 5xx answer.
func (c *Client) FetchTile(ctx context.Context, z, x, y int) (*Tile, error) {
	tile, err := c.fetchOnce(ctx, z, x, y)
	if err == nil {
		return tile, nil
	}
	if !retryable(err) {
		return nil, err
	}
	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, ctx.Err())
	}
	log.Debugf("retrying tile %d/%d/%d after: %v", z, x, y, err)
	return c.fetchOnce(ctx, z, x, y)
}

func retryable(err error) bool {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return true
	}
	var se *statusError
	return errors.As(err, &se) && se.status >= 500
}

// statusError carries the upstream status for retry classification while
// unwrapping to ErrUpstreamRejected.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", ErrUpstreamRejected, e.status)
}

func (e *statusError) Unwrap() error { return ErrUpstreamRejected }

func (c *Client) fetchOnce(ctx context.Context, z, x, y int) (*Tile, error) {
	url := fmt.Sprintf("%s/%d/%d/%d", c.baseURL, z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &statusError{status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return &Tile{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
