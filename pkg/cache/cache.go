// Package cache provides the key-value stores behind the OneSignal client's
// read-through cache. Values are JSON encoded so every backend hands callers a
// private copy on Get.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Client defines the subset of cache commands the OneSignal client needs.
type Client interface {
	// Get decodes the value stored under key into dest, or returns ErrMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL. A non-positive ttl removes the key.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// Nop never stores anything; every Get is a miss.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) Get(context.Context, string, interface{}) error                { return ErrMiss }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Del(context.Context, string) error                             { return nil }
