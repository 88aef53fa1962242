// Package eventinit implements the Event Initializer (EI): the one-time
// setup path that materializes an event's seats and seeds the admission
// cache, grounded on the teacher's show-creation handler and
// show_seat_repository.go's bulk-insert helpers, generalized from a
// cinema/hall schema to SeatGrid's flat rows x cols event/seat model.
package eventinit

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/seatgrid/internal/admission"
	"github.com/iliyamo/seatgrid/internal/bookerr"
	"github.com/iliyamo/seatgrid/internal/seatstore"
)

type Initializer struct {
	seats     *seatstore.Store
	admission *admission.Cache
	lockTTL   time.Duration
}

func New(seats *seatstore.Store, ac *admission.Cache, lockTTL time.Duration) *Initializer {
	return &Initializer{seats: seats, admission: ac, lockTTL: lockTTL}
}

// Request describes a new event, as bound from the HTTP layer. Rows and
// Cols materialize into a dense grid of seats labeled "1".."Rows" by
// "1".."Cols", matching spec §3's `(row, col)` natural key.
type Request struct {
	Name    string
	OwnerID string
	Date    time.Time
	Rows    int
	Cols    int
}

func (req Request) validate() error {
	if req.Name == "" {
		return bookerr.New(bookerr.CodeInvalid, "event name is required")
	}
	if req.Rows < 1 {
		return bookerr.New(bookerr.CodeInvalid, "rows must be at least 1")
	}
	if req.Cols < 1 {
		return bookerr.New(bookerr.CodeInvalid, "cols must be at least 1")
	}
	return nil
}

// CreateEvent materializes an event and its rows x cols seat grid in a
// single SS transaction per §4.7 ("insert Event; insert rows × cols Seat
// rows … All in one SS transaction; if any step fails, rollback both"): a
// failure partway through leaves no committed event and no committed
// seats, never a seat-less event that would make every later booking fail
// with SEATS_NOT_FOUND. It then seeds the admission cache to full capacity
// with a TTL matching the lock store's key-level TTL so neither outlives
// the event window plus grace (spec §4.2's default 24h grace).
func (i *Initializer) CreateEvent(ctx context.Context, req Request) (*seatstore.Event, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ev := seatstore.Event{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Date:    req.Date,
		Rows:    req.Rows,
		Cols:    req.Cols,
		OwnerID: req.OwnerID,
	}

	seats := make([]seatstore.Seat, 0, req.Rows*req.Cols)
	for r := 1; r <= req.Rows; r++ {
		for c := 1; c <= req.Cols; c++ {
			seats = append(seats, seatstore.Seat{
				ID:      uuid.New().String(),
				EventID: ev.ID,
				Row:     strconv.Itoa(r),
				Col:     strconv.Itoa(c),
			})
		}
	}

	if err := i.seats.WithTx(ctx, sql.LevelReadCommitted, func(tx *sql.Tx) error {
		if err := i.seats.CreateEventTx(ctx, tx, ev); err != nil {
			return err
		}
		return i.seats.CreateSeatsBulk(ctx, tx, seats)
	}); err != nil {
		return nil, fmt.Errorf("eventinit: create event: %w", err)
	}

	created, err := i.seats.GetEvent(ctx, ev.ID)
	if err != nil {
		return nil, fmt.Errorf("eventinit: reload created event: %w", err)
	}

	if err := i.admission.Seed(ctx, created.ID, req.Rows*req.Cols, i.lockTTL); err != nil {
		// Advisory cache seeding failing is not fatal: the next booking
		// attempt simply treats the cache as a miss and falls through to
		// the authoritative seat store.
		return created, nil
	}

	return created, nil
}

// TotalSeats is the wire-facing convenience the §6 create-event response
// reports alongside rows/cols.
func TotalSeats(ev *seatstore.Event) int {
	return ev.Rows * ev.Cols
}
