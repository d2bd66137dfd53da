// Package ratelimit bounds how many attempts a session may start in a short
// window.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 6
	DefaultWindow = 60 * time.Second
)

// Decision is the outcome of a single Allow call. RetryAfter is only set when
// the request was denied.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type Config struct {
	Limit  int
	Window time.Duration
	Prefix string
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Prefix == "" {
		c.Prefix = "quiz:ratelimit:start:"
	}
	return c
}

// Noop allows everything
type Noop struct{}

func (Noop) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
