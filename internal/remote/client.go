// Package remote is the HTTP client for the remote document store: password
// sign-in, bearer auth, 429 backoff, pagination and the value envelope codec.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL    = "https://firestore.googleapis.com/v1"
	defaultStorageURL = "https://firebasestorage.googleapis.com/v0"
	// MaxPageSize is the largest page the list endpoint accepts.
	MaxPageSize = 1000
)

// Credentials identify the remote project and the user signing in.
type Credentials struct {
	ProjectID string
	Email     string
	Password  string
	APIKey    string
}

// RetryPolicy governs retries of rate-limited (429) responses. Nothing else is retried.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration
}

// DefaultRetryPolicy waits base*2^(attempt-1) plus 100-500ms jitter, for at most 7 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 7,
		Base:        time.Second,
		JitterMin:   100 * time.Millisecond,
		JitterMax:   500 * time.Millisecond,
	}
}

// Backoff is the wait before the attempt following the given one, without jitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.Base * time.Duration(1<<(attempt-1))
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client talks to one remote project. It is safe for sequential reuse; after an
// authentication failure every call fails fast with ErrAuthFailed.
type Client struct {
	creds       Credentials
	http        *http.Client
	base        http.RoundTripper
	baseURL     string
	identityURL string
	storageURL  string
	bucket      string
	retry       RetryPolicy
	sleep       SleepFunc
	jitter      func() time.Duration
	now         func() time.Time
	logger      *slog.Logger
	invalid     atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points document calls at another host, e.g. an emulator or test server.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithIdentityURL points sign-in at another host.
func WithIdentityURL(u string) Option {
	return func(c *Client) { c.identityURL = strings.TrimRight(u, "/") }
}

// WithStorageURL points object uploads at another host.
func WithStorageURL(u string) Option {
	return func(c *Client) { c.storageURL = strings.TrimRight(u, "/") }
}

// WithBucket overrides the object storage bucket.
func WithBucket(b string) Option { return func(c *Client) { c.bucket = b } }

// WithTransport sets the transport under the auth layer.
func WithTransport(rt http.RoundTripper) Option { return func(c *Client) { c.base = rt } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithRetryPolicy replaces the 429 policy.
func WithRetryPolicy(p RetryPolicy) Option { return func(c *Client) { c.retry = p } }

// WithSleep replaces the backoff sleep.
func WithSleep(fn SleepFunc) Option { return func(c *Client) { c.sleep = fn } }

// WithJitter replaces the jitter source.
func WithJitter(fn func() time.Duration) Option { return func(c *Client) { c.jitter = fn } }

// WithClock replaces time.Now for token expiry.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// NewClient signs in and returns a client ready to issue requests. A rejected
// sign-in returns an error wrapping apperrors.ErrAuthFailed.
func NewClient(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		creds:       creds,
		base:        http.DefaultTransport,
		baseURL:     defaultBaseURL,
		identityURL: defaultIdentityURL,
		storageURL:  defaultStorageURL,
		bucket:      creds.ProjectID + ".appspot.com",
		retry:       DefaultRetryPolicy(),
		sleep:       sleepCtx,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.jitter == nil {
		c.jitter = c.randomJitter
	}
	c.logger = c.logger.With(slog.String("component", "remote"), slog.String("project", creds.ProjectID))

	if creds.ProjectID == "" || creds.Email == "" || creds.Password == "" || creds.APIKey == "" {
		return nil, apperrors.NewValidationError("remote credentials are incomplete")
	}

	// Sign-in requests run on their own client so they never carry a bearer token.
	src := &passwordTokenSource{
		ctx:         context.WithoutCancel(ctx),
		httpClient:  &http.Client{Transport: c.base},
		identityURL: c.identityURL,
		apiKey:      creds.APIKey,
		email:       creds.Email,
		password:    creds.Password,
		now:         c.now,
		logger:      c.logger,
	}
	first, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to sign in as %s: %w", creds.Email, err)
	}
	c.http = &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(first, src),
			Base:   c.base,
		},
	}
	return c, nil
}

func (c *Client) randomJitter() time.Duration {
	span := c.retry.JitterMax - c.retry.JitterMin
	if span <= 0 {
		return c.retry.JitterMin
	}
	return c.retry.JitterMin + time.Duration(rand.Int64N(int64(span)))
}

// ProjectID returns the remote project.
func (c *Client) ProjectID() string { return c.creds.ProjectID }

// Invalid reports whether an authentication failure has disabled the client.
func (c *Client) Invalid() bool { return c.invalid.Load() }

func (c *Client) documentsRoot() string {
	return "projects/" + c.creds.ProjectID + "/databases/(default)/documents"
}

// DocumentName returns the full resource name of collection/id.
func (c *Client) DocumentName(collection, id string) string {
	return c.documentsRoot() + "/" + collection + "/" + id
}

// resolve turns a path relative to the documents root into a URL.
// Paths starting with ":" address root-level methods such as ":commit".
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	root := c.baseURL + "/" + c.documentsRoot()
	if strings.HasPrefix(path, ":") {
		return root + path
	}
	return root + "/" + strings.TrimLeft(path, "/")
}

// Request sends a JSON request relative to the documents root and decodes the JSON response into out.
// Supported methods are GET, PATCH, DELETE and POST.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}
	return c.do(ctx, method, path, c.resolve(path), payload, "application/json", out)
}

// send issues one attempt.
func (c *Client) send(ctx context.Context, method, target string, payload []byte, contentType string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}

// do runs the retry discipline: only 429 is retried, with exponential backoff plus jitter.
func (c *Client) do(ctx context.Context, method, path, target string, payload []byte, contentType string, out any) error {
	if c.invalid.Load() {
		return &Error{Method: method, Path: path, Kind: apperrors.ErrAuthFailed, Message: "client disabled by an earlier authentication failure"}
	}
	for attempt := 1; ; attempt++ {
		c.logger.Debug("Remote request", slog.String("method", method), slog.String("path", path), slog.Int("attempt", attempt))
		resp, err := c.send(ctx, method, target, payload, contentType)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, apperrors.ErrAuthFailed) {
				c.invalid.Store(true)
				return err
			}
			c.logger.Error("Remote transport failure", slog.String("method", method), slog.String("path", path), slog.String("error", err.Error()))
			return &Error{Method: method, Path: path, Attempts: attempt, Kind: apperrors.ErrTransportFailed, Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if attempt >= c.retry.MaxAttempts {
				c.logger.Error("Rate limit retries exhausted", slog.String("method", method), slog.String("path", path), slog.Int("attempts", attempt))
				return &Error{Method: method, Path: path, Status: resp.StatusCode, Attempts: attempt, Kind: apperrors.ErrRateLimited, Message: "rate limit retries exhausted"}
			}
			wait := c.retry.Backoff(attempt) + c.jitter()
			c.logger.Warn("Rate limited, backing off", slog.String("path", path), slog.Int("attempt", attempt), slog.Duration("wait", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return c.finish(resp, method, path, attempt, out)
	}
}

func (c *Client) finish(resp *http.Response, method, path string, attempt int, out any) error {
	defer resp.Body.Close()
	if rerr := responseError(resp, method, path, attempt); rerr != nil {
		if errors.Is(rerr.Kind, apperrors.ErrAuthFailed) {
			c.invalid.Store(true)
		}
		if !errors.Is(rerr.Kind, apperrors.ErrNotFound) {
			c.logger.Error("Remote request failed", slog.String("method", method), slog.String("path", path), slog.Int("status", rerr.Status), slog.String("message", rerr.Message))
		}
		return rerr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Attempts: attempt, Kind: apperrors.ErrRemote, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
