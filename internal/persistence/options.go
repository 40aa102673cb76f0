package persistence

import (
	"time"

	"github.com/google/uuid"
)

// Options holds the collaborators shared by every adapter.
type Options struct {
	Now   func() time.Time
	NewID func() uuid.UUID
}

// Option customises adapter construction.
type Option func(*Options)

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

// WithIDGenerator overrides the identifier source for new records.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(o *Options) {
		if newID != nil {
			o.NewID = newID
		}
	}
}

// ResolveOptions applies opts over the defaults (wall clock, random v4 UUIDs).
func ResolveOptions(opts ...Option) Options {
	resolved := Options{Now: time.Now, NewID: uuid.New}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}
