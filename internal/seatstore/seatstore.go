// Package seatstore is the Seat Store (SS): the authoritative, durable
// record of events and seat status. It owns the only writes that actually
// decide who got a seat; the lock store and admission cache are advisory
// layers in front of it.
package seatstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Seat statuses. BOOKED is terminal; there is no cancellation path in
// scope, matching the non-goal around payment-bound multi-step reservations.
const (
	StatusAvailable = "AVAILABLE"
	StatusBooked    = "BOOKED"
)

var (
	ErrEventNotFound = errors.New("seatstore: event not found")
	ErrSeatNotFound  = errors.New("seatstore: one or more seats not found")
)

type Event struct {
	ID        string
	Name      string
	Date      time.Time
	Rows      int
	Cols      int
	OwnerID   string
	CreatedAt time.Time
}

// Seat's natural key is (EventID, Row, Col); ID is a surrogate primary key
// used only for storage. Holder is the empty string when the seat is
// AVAILABLE and the booking user id when BOOKED, enforcing invariant I1
// (status = BOOKED iff holder != empty) at every write path.
type Seat struct {
	ID      string
	EventID string
	Row     string
	Col     string
	Status  string
	Holder  string
	Version int
}

// Key returns the "row-col" identifier used as the seat's handle across the
// lock store and the booking coordinator, matching the wire/LS field shape
// of spec §3/§4.2.
func (s Seat) Key() string {
	return SeatKey(s.Row, s.Col)
}

// SeatKey builds the "row-col" handle from a row/col pair.
func SeatKey(row, col string) string {
	return row + "-" + col
}

// Store wraps the MySQL connection pool behind the repository methods the
// commit strategies and the event initializer need.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateEvent inserts an event row outside of any caller transaction and
// returns it populated with the DB-assigned timestamp, following the
// insert-then-select-back pattern used throughout the teacher's repository
// layer. Callers that also need to materialize seats in the same atomic
// unit (§4.7) must use CreateEventTx + CreateSeatsBulk inside one WithTx
// instead, since this method commits on its own.
func (s *Store) CreateEvent(ctx context.Context, ev Event) (*Event, error) {
	if err := insertEvent(ctx, s.db, ev); err != nil {
		return nil, fmt.Errorf("seatstore: create event: %w", err)
	}
	return s.GetEvent(ctx, ev.ID)
}

// CreateEventTx inserts an event row using the given transaction, so a
// caller can materialize the event and its seats atomically (§4.7: "insert
// Event; insert rows × cols Seat rows … All in one SS transaction"). It
// does not select the row back; call GetEvent once the caller's WithTx has
// committed successfully.
func (s *Store) CreateEventTx(ctx context.Context, tx *sql.Tx, ev Event) error {
	if err := insertEvent(ctx, tx, ev); err != nil {
		return fmt.Errorf("seatstore: create event: %w", err)
	}
	return nil
}

// querier is the subset of *sql.DB and *sql.Tx that insertEvent needs,
// letting CreateEvent and CreateEventTx share one insert statement.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertEvent(ctx context.Context, q querier, ev Event) error {
	const stmt = "INSERT INTO events (id, name, event_date, `rows`, `cols`, owner_id)" +
		" VALUES (?, ?, ?, ?, ?, ?)"
	_, err := q.ExecContext(ctx, stmt, ev.ID, ev.Name, ev.Date, ev.Rows, ev.Cols, ev.OwnerID)
	return err
}

func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	const q = "SELECT id, name, event_date, `rows`, `cols`, owner_id, created_at" +
		" FROM events WHERE id = ? LIMIT 1"
	var ev Event
	err := s.db.QueryRowContext(ctx, q, id).Scan(&ev.ID, &ev.Name, &ev.Date, &ev.Rows, &ev.Cols, &ev.OwnerID, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// CreateSeatsBulk materializes the seat rows for a newly created event in a
// single multi-row insert, mirroring show_seat_repository.go's CreateBulkTx.
// Every seat starts AVAILABLE with an empty holder, matching invariant I1.
func (s *Store) CreateSeatsBulk(ctx context.Context, tx *sql.Tx, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (id, event_id, row_label, col_label, status, holder, version) VALUES `)
	args := make([]interface{}, 0, len(seats)*7)
	for i, seat := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, seat.ID, seat.EventID, seat.Row, seat.Col, StatusAvailable, "", 0)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// WithTx runs fn inside a transaction with the given isolation level,
// rolling back on any returned error and committing otherwise.
func (s *Store) WithTx(ctx context.Context, iso sql.IsolationLevel, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: iso})
	if err != nil {
		return fmt.Errorf("seatstore: begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// RowCol identifies a seat by its natural key components, independent of
// the surrogate storage id.
type RowCol struct {
	Row string
	Col string
}

// FetchSeats returns the current row for each requested seat, scoped to one
// event and keyed by its "row-col" handle (Seat.Key()), used by commit
// strategies to validate seat existence and status.
func FetchSeats(ctx context.Context, tx *sql.Tx, eventID string, seats []RowCol) (map[string]Seat, error) {
	if len(seats) == 0 {
		return map[string]Seat{}, nil
	}
	clause := strings.TrimSuffix(strings.Repeat("(row_label = ? AND col_label = ?) OR ", len(seats)), " OR ")
	args := make([]interface{}, 0, len(seats)*2+1)
	args = append(args, eventID)
	for _, rc := range seats {
		args = append(args, rc.Row, rc.Col)
	}
	q := fmt.Sprintf(`SELECT id, event_id, row_label, col_label, status, holder, version FROM seats
	                   WHERE event_id = ? AND (%s)`, clause)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Seat, len(seats))
	for rows.Next() {
		var st Seat
		if err := rows.Scan(&st.ID, &st.EventID, &st.Row, &st.Col, &st.Status, &st.Holder, &st.Version); err != nil {
			return nil, err
		}
		out[st.Key()] = st
	}
	return out, rows.Err()
}

// FetchAvailable returns the "row-col" handles of every AVAILABLE seat for
// an event, used by the reconciler to intersect against stale lock-store
// claims.
func (s *Store) FetchAvailable(ctx context.Context, eventID string) (map[string]bool, error) {
	const q = `SELECT row_label, col_label FROM seats WHERE event_id = ? AND status = ?`
	rows, err := s.db.QueryContext(ctx, q, eventID, StatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var row, col string
		if err := rows.Scan(&row, &col); err != nil {
			return nil, err
		}
		out[SeatKey(row, col)] = true
	}
	return out, rows.Err()
}

// FetchSeatMap returns every seat for an event with its row, col and
// status, used by GET /events/{id}/seats (spec §6) to render the full
// grid rather than only the available subset.
func (s *Store) FetchSeatMap(ctx context.Context, eventID string) ([]Seat, error) {
	const q = `SELECT id, event_id, row_label, col_label, status, holder, version
	           FROM seats WHERE event_id = ?`
	rows, err := s.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Seat
	for rows.Next() {
		var st Seat
		if err := rows.Scan(&st.ID, &st.EventID, &st.Row, &st.Col, &st.Status, &st.Holder, &st.Version); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ListActiveEventIDs returns every event the reconciler should sweep. Events
// are never deleted within this core (§3 lifecycles), so "active" here
// means every known event; the reconciler's own stale-threshold filter on
// the lock store is what bounds the work per tick, not this query.
func (s *Store) ListActiveEventIDs(ctx context.Context) ([]string, error) {
	const q = `SELECT id FROM events`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
