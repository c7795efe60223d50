// Package registry downloads the external RPG parser from a Maven
// repository, such as the GitHub Packages registry that publishes it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/leapstack-labs/rpgflow/internal/config"
)

// Sentinel errors for responses that are not retried.
var (
	ErrUnauthorized = errors.New("registry rejected credentials")
	ErrNotFound     = errors.New("artifact not found")
)

const (
	defaultMaxRetries      = 4
	defaultInitialInterval = 500 * time.Millisecond
)

// Credentials authenticate against the registry with HTTP basic auth.
type Credentials struct {
	User  string
	Token string
}

// Empty reports whether no credentials are set.
func (c Credentials) Empty() bool {
	return c.User == "" && c.Token == ""
}

// Client fetches artifacts laid out the Maven way:
// <base>/<group as path>/<name>/<version>/<name>-<version>.jar
type Client struct {
	BaseURL     string
	Credentials Credentials
	HTTPClient  *http.Client
	Logger      *slog.Logger

	// MaxRetries bounds retries of transient failures.
	MaxRetries      uint64
	InitialInterval time.Duration
}

// NewClient creates a client from registry configuration.
func NewClient(cfg config.RegistryConfig, logger *slog.Logger) *Client {
	config.ApplyRegistryDefaults(&cfg)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		BaseURL:         cfg.URL,
		Credentials:     Credentials{User: cfg.User, Token: cfg.Token},
		HTTPClient:      &http.Client{Timeout: 5 * time.Minute},
		Logger:          logger,
		MaxRetries:      defaultMaxRetries,
		InitialInterval: defaultInitialInterval,
	}
}

// FileName returns the jar name of an artifact.
func FileName(a config.Artifact) string {
	return fmt.Sprintf("%s-%s.jar", a.Name, a.Version)
}

// URL returns the download location of an artifact.
func (c *Client) URL(a config.Artifact) string {
	base := strings.TrimRight(c.BaseURL, "/")
	group := strings.ReplaceAll(a.Group, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s/%s", base, group, a.Name, a.Version, FileName(a))
}

// Fetch downloads the artifact into destDir and returns the file path.
// Server errors and network failures are retried with exponential backoff;
// 401, 403 and 404 fail immediately. The file appears only once complete.
func (c *Client) Fetch(ctx context.Context, a config.Artifact, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	dest := filepath.Join(destDir, FileName(a))
	url := c.URL(a)

	op := func() error {
		return c.download(ctx, url, dest)
	}
	notify := func(err error, wait time.Duration) {
		c.logger().Warn("download failed, retrying",
			slog.String("url", url), slog.Duration("wait", wait), slog.String("error", err.Error()))
	}

	if err := backoff.RetryNotify(op, c.retryPolicy(ctx), notify); err != nil {
		return "", fmt.Errorf("fetch %s: %w", a, err)
	}
	c.logger().Info("fetched artifact", slog.String("artifact", a.String()), slog.String("path", dest))
	return dest, nil
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		exp.InitialInterval = c.InitialInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, c.MaxRetries), ctx)
}

func (c *Client) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	if !c.Credentials.Empty() {
		req.SetBasicAuth(c.Credentials.User, c.Credentials.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return err
		}
		return backoff.Permanent(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status))
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
	case resp.StatusCode >= http.StatusInternalServerError:
		// 500+ status, can be worth retrying
		return fmt.Errorf("registry returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return backoff.Permanent(fmt.Errorf("registry returned %s", resp.Status))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return backoff.Permanent(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("reading response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return backoff.Permanent(err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return backoff.Permanent(err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
