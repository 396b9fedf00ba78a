// Package timeouts provides centralized timeout values for handler operations.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks
//   - Short: single-document reads or lookups
//   - Medium: list queries and simple writes
//   - Long: multi-collection writes and transactions
//   - Upload: GridFS streaming and text extraction
//   - Upstream: calls to OAuth providers and proxied APIs
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultMedium   = 10 * time.Second
	DefaultLong     = 30 * time.Second
	DefaultUpload   = 60 * time.Second
	DefaultUpstream = 15 * time.Second
)

var mu sync.RWMutex

var (
	ping     = DefaultPing
	short    = DefaultShort
	medium   = DefaultMedium
	long     = DefaultLong
	upload   = DefaultUpload
	upstream = DefaultUpstream
)

func get(v *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *v
}

func Ping() time.Duration     { return get(&ping) }
func Short() time.Duration    { return get(&short) }
func Medium() time.Duration   { return get(&medium) }
func Long() time.Duration     { return get(&long) }
func Upload() time.Duration   { return get(&upload) }
func Upstream() time.Duration { return get(&upstream) }

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Medium   time.Duration
	Long     time.Duration
	Upload   time.Duration
	Upstream time.Duration
}

// Configure applies cfg. Call it during startup before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
	set(&upload, cfg.Upload)
	set(&upstream, cfg.Upstream)
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, long, upload, upstream =
		DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultUpload, DefaultUpstream
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long, Upload: upload, Upstream: upstream}
}

// WithTimeout creates a context with timeout and returns a cancel function
// that logs a warning if the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upload(), h.Log, "policy upload")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
