package presence

import (
	"context"
	"time"
)

// Tracker maintains a last-activity timestamp per identity. Liveness is
// purely activity-derived: nothing removes a record on disconnect, entries
// age out of the window instead. An identity therefore stays "online" for up
// to one window after its last activity, which tolerates reconnect blips.
type Tracker interface {
	// Touch records activity for the identity. The stored timestamp only
	// ever moves forward, so concurrent touches from multiple sessions of
	// the same identity are safe in any order.
	Touch(ctx context.Context, identity string) error

	// ListOnline returns identities active within the liveness window.
	ListOnline(ctx context.Context) ([]string, error)

	// SweepExpired removes records whose timestamp is older than the
	// window relative to now.
	SweepExpired(ctx context.Context, now time.Time) error

	Close() error
}
