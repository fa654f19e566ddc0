// Package timeouts holds the deadlines applied to store and I/O calls.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and dashboard aggregates
//   - Long: transactional workflows touching several collections
//   - Batch: workbook exports and bulk actions
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var current atomic.Pointer[Config]

func init() {
	d := defaults()
	current.Store(&d)
}

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }
func Batch() time.Duration  { return current.Load().Batch }

// Current returns the active configuration.
func Current() Config { return *current.Load() }

// Configure overrides the non-zero fields of cfg and logs the result.
func Configure(cfg Config, logger *zap.Logger) {
	next := Current()
	if cfg.Ping > 0 {
		next.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		next.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		next.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		next.Long = cfg.Long
	}
	if cfg.Batch > 0 {
		next.Batch = cfg.Batch
	}
	current.Store(&next)
	if logger != nil {
		logger.Info("timeouts configured",
			zap.Duration("ping", next.Ping),
			zap.Duration("short", next.Short),
			zap.Duration("medium", next.Medium),
			zap.Duration("long", next.Long),
			zap.Duration("batch", next.Batch))
	}
}

// Reset restores the defaults.
func Reset() {
	d := defaults()
	current.Store(&d)
}

// WithShort derives a context bounded by Short.
func WithShort(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Short())
}

// WithMedium derives a context bounded by Medium.
func WithMedium(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Medium())
}

// WithLong derives a context bounded by Long.
func WithLong(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Long())
}

// WithBatch derives a context bounded by Batch.
func WithBatch(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Batch())
}
