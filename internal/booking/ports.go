package booking

import (
	"context"

	"github.com/iliyamo/seatgrid/internal/seatstore"
)

// LockStore is the subset of the Gatekeeper's behavior the coordinator
// depends on. Narrowing to an interface here — rather than *lockstore.Store
// directly — lets tests substitute an in-memory fake the way
// Animesh-roy100-low-level-design's ticket-booking-service substitutes an
// InMemoryLockManager for its LockManager interface. seatKeys are the
// "row-col" handles shared with the seat store and the reconciler.
type LockStore interface {
	TryClaim(ctx context.Context, eventID string, seatKeys []string) error
	Release(ctx context.Context, eventID string, seatKeys []string) error
}

// AdmissionCache is the subset of the advisory cache the coordinator reads
// and updates.
type AdmissionCache interface {
	Peek(ctx context.Context, eventID string) (remaining int, ok bool, err error)
	Decrement(ctx context.Context, eventID string, n int) error
}

// CommitStrategy performs the authoritative seat-status transition. It
// mirrors seatstore.CommitStrategy's shape so *seatstore.Store-backed
// strategies satisfy this interface without adapters.
type CommitStrategy interface {
	Commit(ctx context.Context, eventID, userID string, seats []seatstore.RowCol) error
}
