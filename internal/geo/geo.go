// Package geo supplies a single location reading on demand.
package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/dronecheck/internal/schema"
)

var (
	// ErrUnavailable means no geolocation capability is configured or supported.
	ErrUnavailable = errors.New("geolocation unavailable")
	// ErrDenied means the request was made but declined or failed.
	ErrDenied = errors.New("geolocation denied")
)

// Provider yields one location reading per call. There is no continuous
// tracking and no retry.
type Provider interface {
	CurrentLocation(ctx context.Context) (schema.Location, error)
}

// Source names a Provider implementation.
type Source string

const (
	SourceFixed Source = "fixed"
	SourceIP    Source = "ip"
	SourceNone  Source = "none"
)

// Config selects and parameterises a provider.
type Config struct {
	Source Source
	// Fixed is the reading returned by SourceFixed.
	Fixed *schema.Location
	// LookupURL overrides the IP lookup endpoint for SourceIP.
	LookupURL string
}

// New returns the provider for cfg.Source.
func New(cfg Config) (Provider, error) {
	switch cfg.Source {
	case SourceFixed:
		if cfg.Fixed == nil {
			return nil, fmt.Errorf("geo source %q requires coordinates", cfg.Source)
		}
		return Fixed(*cfg.Fixed), nil
	case SourceIP:
		return NewIPLookup(cfg.LookupURL), nil
	case SourceNone, "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown geo source %q: valid sources are fixed, ip, none", cfg.Source)
	}
}

// Fixed always reports the same reading. An out-of-range reading is denied
// rather than passed on.
type Fixed schema.Location

// CurrentLocation implements Provider.
func (f Fixed) CurrentLocation(ctx context.Context) (schema.Location, error) {
	if err := ctx.Err(); err != nil {
		return schema.Location{}, fmt.Errorf("%w: %w", ErrDenied, err)
	}
	loc := schema.Location(f)
	if err := loc.Validate(); err != nil {
		return schema.Location{}, fmt.Errorf("%w: %w", ErrDenied, err)
	}
	return loc, nil
}

// None has no capability.
type None struct{}

// CurrentLocation implements Provider.
func (None) CurrentLocation(context.Context) (schema.Location, error) {
	return schema.Location{}, ErrUnavailable
}
