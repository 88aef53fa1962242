// Package booking implements the Booking Coordinator (BC): the single
// entry point that orchestrates the admission cache, lock store, and seat
// store into one booking attempt.
package booking

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/iliyamo/seatgrid/internal/bookerr"
	"github.com/iliyamo/seatgrid/internal/lockstore"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

type Coordinator struct {
	locks     LockStore
	admission AdmissionCache
	strategy  CommitStrategy

	admissionEnabled bool
}

func New(locks LockStore, ac AdmissionCache, strategy CommitStrategy, admissionEnabled bool) *Coordinator {
	return &Coordinator{locks: locks, admission: ac, strategy: strategy, admissionEnabled: admissionEnabled}
}

// SeatRef identifies one requested seat by its wire-level row/col labels,
// matching spec §6's `{row, col}` request shape.
type SeatRef struct {
	Row string
	Col string
}

// Result describes a completed booking.
type Result struct {
	BookingID string
	EventID   string
	SeatCount int
}

// BookSeats runs the five-step protocol: validate and normalize, consult
// the admission cache as an advisory fast path, claim in the lock store,
// commit authoritatively, and reconcile the admission cache or release the
// claim depending on outcome. A panic during the commit step still attempts
// exactly one compensating release before propagating, so an attempted
// claim is never leaked on an unrecovered panic.
func (c *Coordinator) BookSeats(ctx context.Context, eventID, userID string, seats []SeatRef) (res *Result, err error) {
	eventID, userID, unique, verr := normalize(eventID, userID, seats)
	if verr != nil {
		return nil, verr
	}

	bookingID := uuid.New().String()
	seatKeys := make([]string, len(unique))
	rowCols := make([]seatstore.RowCol, len(unique))
	for i, s := range unique {
		seatKeys[i] = seatstore.SeatKey(s.Row, s.Col)
		rowCols[i] = seatstore.RowCol{Row: s.Row, Col: s.Col}
	}

	if c.admissionEnabled {
		if remaining, ok, err := c.admission.Peek(ctx, eventID); err == nil && ok {
			switch {
			case remaining == 0:
				return nil, bookerr.New(bookerr.CodeSoldOut, "event is sold out")
			case remaining < len(unique):
				return nil, bookerr.New(bookerr.CodeInsufficientCapacity, "fewer seats remain than requested")
			}
		}
		// A cache miss or error is not a reason to fail the attempt: the
		// admission cache is purely advisory, so any uncertainty falls
		// through to the authoritative path.
	}

	if err := c.locks.TryClaim(ctx, eventID, seatKeys); err != nil {
		if errors.Is(err, lockstore.ErrAlreadyClaimed) {
			return nil, bookerr.New(bookerr.CodeConflictCached, "one or more seats are already claimed")
		}
		return nil, bookerr.Wrap(bookerr.CodeUnavailable, "lock store unavailable", err)
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if rerr := c.locks.Release(context.Background(), eventID, seatKeys); rerr != nil {
			log.Printf("booking: compensating release failed booking=%s event=%s seats=%v: %v", bookingID, eventID, seatKeys, rerr)
		}
	}

	defer func() {
		if p := recover(); p != nil {
			release()
			panic(p)
		}
	}()

	if cerr := c.strategy.Commit(ctx, eventID, userID, rowCols); cerr != nil {
		release()
		var be *bookerr.Error
		if errors.As(cerr, &be) {
			return nil, be
		}
		return nil, bookerr.Wrap(bookerr.CodeUnavailable, "commit failed", cerr)
	}

	if c.admissionEnabled {
		if derr := c.admission.Decrement(ctx, eventID, len(unique)); derr != nil {
			log.Printf("booking: admission decrement failed booking=%s event=%s: %v", bookingID, eventID, derr)
		}
	}

	return &Result{BookingID: bookingID, EventID: eventID, SeatCount: len(unique)}, nil
}

func normalize(eventID, userID string, seats []SeatRef) (string, string, []SeatRef, error) {
	if eventID == "" {
		return "", "", nil, bookerr.New(bookerr.CodeInvalid, "event id is required")
	}
	if userID == "" {
		return "", "", nil, bookerr.New(bookerr.CodeInvalid, "user id is required")
	}
	if len(seats) == 0 {
		return "", "", nil, bookerr.New(bookerr.CodeInvalid, "at least one seat is required")
	}
	seen := make(map[string]bool, len(seats))
	out := make([]SeatRef, 0, len(seats))
	for _, s := range seats {
		if s.Row == "" || s.Col == "" {
			return "", "", nil, bookerr.New(bookerr.CodeInvalid, "seat row and col cannot be empty")
		}
		key := seatstore.SeatKey(s.Row, s.Col)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	// Locking seats in a fixed order, regardless of request order, avoids
	// lock-ordering deadlocks between two attempts that share a subset of
	// seats under the pessimistic strategy.
	sort.Slice(out, func(i, j int) bool {
		return seatstore.SeatKey(out[i].Row, out[i].Col) < seatstore.SeatKey(out[j].Row, out[j].Col)
	})
	return eventID, userID, out, nil
}
