// Package reconciler implements the Reconciler (RC): a periodic sweep that
// releases lock-store claims abandoned by a crashed or hung booking
// attempt before they ever reach commit. It never touches BOOKED seats and
// never itself decides who gets a seat.
package reconciler

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/seatgrid/internal/lockstore"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

type Reconciler struct {
	seats *seatstore.Store
	locks *lockstore.Store

	sweepInterval  time.Duration
	staleThreshold time.Duration
	fanOutLimit    int
}

func New(seats *seatstore.Store, locks *lockstore.Store, sweepInterval, staleThreshold time.Duration, fanOutLimit int) *Reconciler {
	if fanOutLimit < 1 {
		fanOutLimit = 8
	}
	return &Reconciler{
		seats:          seats,
		locks:          locks,
		sweepInterval:  sweepInterval,
		staleThreshold: staleThreshold,
		fanOutLimit:    fanOutLimit,
	}
}

// Run blocks, sweeping every sweepInterval until ctx is canceled. It is
// meant to be started once as a single long-running task, not spawned per
// event — the fan-out within each tick is bounded instead.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sweepOnce(ctx); err != nil {
				log.Printf("reconciler: sweep error: %v", err)
			}
		}
	}
}

func (r *Reconciler) sweepOnce(ctx context.Context) error {
	eventIDs, err := r.seats.ListActiveEventIDs(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanOutLimit)
	for _, id := range eventIDs {
		eventID := id
		g.Go(func() error {
			released, err := r.sweepEvent(gctx, eventID)
			if err != nil {
				log.Printf("reconciler: event %s sweep failed: %v", eventID, err)
				return nil // one event's failure doesn't abort the tick
			}
			if released > 0 {
				log.Printf("reconciler: event %s released %d stale claims", eventID, released)
			}
			return nil
		})
	}
	return g.Wait()
}

// sweepEvent computes ghosts = stale(claims) ∩ available(seats) and
// releases exactly those: a claim that is stale but whose seat was already
// committed BOOKED by the time the sweep runs is left alone, since
// releasing it would free a seat the seat store already considers sold.
func (r *Reconciler) sweepEvent(ctx context.Context, eventID string) (int, error) {
	stale, err := r.locks.ScanStale(ctx, eventID, r.staleThreshold)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	available, err := r.seats.FetchAvailable(ctx, eventID)
	if err != nil {
		return 0, err
	}

	var ghosts []string
	for _, claim := range stale {
		if available[claim.SeatID] {
			ghosts = append(ghosts, claim.SeatID)
		}
	}
	if len(ghosts) == 0 {
		return 0, nil
	}
	if err := r.locks.Release(ctx, eventID, ghosts); err != nil {
		return 0, err
	}
	return len(ghosts), nil
}
