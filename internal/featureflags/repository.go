package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when a signal flag key has no stored value.
// Callers treat a missing flag as disabled, so lookups through the service
// never surface this to operators.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores the kill switches that gate signal fetching: the fusion
// orchestrator checks vegetation, soil and cached-only-weather flags before
// each fetch, and the sweep worker checks the site-sweep flag before each
// run. Backed by Postgres in deployment and by memory in tests.
type Repository interface {
	// GetFlag retrieves a single flag by key.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags retrieves every stored flag, keyed by flag key.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag creates or updates a flag.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags creates or updates multiple flags atomically, so a partial
	// write never leaves related kill switches in a mixed state.
	SetFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes a flag by key. Deleting reverts the signal to its
	// default enabled state.
	DeleteFlag(ctx context.Context, key string) error
}
