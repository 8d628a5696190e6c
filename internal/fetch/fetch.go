// Package fetch downloads and unpacks library source archives into the
// build-temp root.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults for Cache.
const (
	DefaultAttempts = 3
	DefaultDelay    = 3 * time.Second
)

var (
	// ErrDownload is returned after every download attempt failed.
	ErrDownload = errors.New("download failed")
	// ErrExtract is returned when an archive cannot be unpacked.
	ErrExtract = errors.New("extract failed")
	// ErrChecksum is returned when a downloaded archive has an unexpected digest.
	ErrChecksum = errors.New("checksum mismatch")
)

// Spec names one archive to fetch.
type Spec struct {
	URL  string
	Dest string
	// Subdir, when set, places the archive under Root/Subdir instead of Root.
	Subdir string
}

// Getter writes the body found at url to w.
type Getter interface {
	Get(ctx context.Context, url string, w io.Writer) error
}

// Fetcher is implemented by Cache.
type Fetcher interface {
	Fetch(ctx context.Context, spec Spec, checksum string) error
}

// Cache stores downloaded archives and their extracted trees under Root.
type Cache struct {
	Root     string
	Attempts int
	Delay    time.Duration
	Getter   Getter
	Logger   *log.Logger
}

// New returns a Cache with the default retry policy.
func New(root string, getter Getter, logger *log.Logger) *Cache {
	return &Cache{
		Root:     root,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		Getter:   getter,
		Logger:   logger,
	}
}

// Dir returns the directory holding the archive named by spec.
func (c *Cache) Dir(spec Spec) string {
	if spec.Subdir != "" {
		return filepath.Join(c.Root, spec.Subdir)
	}
	return c.Root
}

// Fetch downloads spec.URL to Dir(spec)/spec.Dest and extracts it in place.
// Nothing happens when the archive is already present. A non-empty checksum
// is the hex BLAKE3-256 digest the fresh download must have.
func (c *Cache) Fetch(ctx context.Context, spec Spec, checksum string) error {
	dir := c.Dir(spec)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	archive := filepath.Join(dir, spec.Dest)
	if _, err := os.Stat(archive); err == nil {
		c.logger().Debug("archive present", "path", archive)
		return nil
	}

	c.logger().Info("downloading", "url", spec.URL)
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	err := retry(ctx, attempts, c.Delay, func(n int) error {
		err := c.download(ctx, spec.URL, archive)
		if err != nil {
			c.logger().Warn("download attempt failed", "url", spec.URL, "attempt", n, "err", err)
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s after %d attempts: %v", ErrDownload, spec.URL, attempts, err)
	}

	if checksum != "" {
		if err := verify(archive, checksum); err != nil {
			os.Remove(archive)
			return err
		}
	}

	c.logger().Debug("extracting", "archive", archive, "dir", dir)
	if err := Extract(archive, dir); err != nil {
		return err
	}
	return nil
}

func (c *Cache) download(ctx context.Context, url, dest string) error {
	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return err
	}
	if err := c.Getter.Get(ctx, url, f); err != nil {
		f.Close()
		os.Remove(part)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, dest)
}

func (c *Cache) logger() *log.Logger {
	if c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

// retry calls fn up to attempts times with a fixed delay between calls.
// fn receives the 1-based attempt number.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(n int) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = fn(i + 1); lastErr == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
