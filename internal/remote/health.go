package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// Probe lists at most one document of the projects collection, without retries,
// and reports whether the remote is reachable with the current token.
// 429 counts as alive; 401 and 403 do not.
func (c *Client) Probe(ctx context.Context) bool {
	if c.invalid.Load() {
		return false
	}
	target := c.resolve("projects?pageSize=1")
	resp, err := c.send(ctx, http.MethodGet, target, nil, "")
	if err != nil {
		c.logger.Warn("Remote probe failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true
	case resp.StatusCode == http.StatusTooManyRequests:
		return true
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.invalid.Store(true)
		return false
	default:
		c.logger.Warn("Remote probe returned unexpected status", slog.Int("status", resp.StatusCode))
		return false
	}
}
