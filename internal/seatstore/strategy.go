package seatstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/seatgrid/internal/bookerr"
)

// CommitStrategy performs the authoritative, durable transition of a set of
// seats from AVAILABLE to BOOKED, setting holder to userID on every seat it
// books. Safety against double-booking does not rest on which strategy is
// configured — that guarantee comes entirely from the lock store claim that
// always precedes a commit attempt. Strategies differ only in how they
// detect and report contention at the database layer. Each strategy is
// bound to a *Store at construction time, so the booking coordinator only
// ever depends on this interface, not on seatstore's concrete types.
type CommitStrategy interface {
	Commit(ctx context.Context, eventID, userID string, seats []RowCol) error
}

// constructors resolves a configured strategy name to a builder bound to a
// *Store, the same plug-point shape the spec requires at the commit
// boundary.
var constructors = map[string]func(*Store) CommitStrategy{
	"naive":       func(s *Store) CommitStrategy { return naiveStrategy{store: s} },
	"pessimistic": func(s *Store) CommitStrategy { return pessimisticStrategy{store: s} },
	"optimistic":  func(s *Store) CommitStrategy { return optimisticStrategy{store: s} },
}

func Lookup(name string, store *Store) (CommitStrategy, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("seatstore: unknown commit strategy %q", name)
	}
	return ctor(store), nil
}

// naiveStrategy reads seat status, then writes, with no locking between the
// two — the race-prone baseline against which the others are compared. It
// relies entirely on the lock store for safety; on its own it can commit an
// already-booked seat if raced with another naive commit for the same
// event outside of the lock store's protection (which cannot happen in
// practice here, since the coordinator always claims before committing).
type naiveStrategy struct {
	store *Store
}

func (n naiveStrategy) Commit(ctx context.Context, eventID, userID string, seats []RowCol) error {
	return n.store.WithTx(ctx, sql.LevelReadCommitted, func(tx *sql.Tx) error {
		found, err := FetchSeats(ctx, tx, eventID, seats)
		if err != nil {
			return err
		}
		if len(found) != len(seats) {
			return bookerr.New(bookerr.CodeSeatsNotFound, "one or more seats do not exist for this event")
		}
		for _, rc := range seats {
			seat := found[SeatKey(rc.Row, rc.Col)]
			if seat.Status != StatusAvailable {
				return bookerr.New(bookerr.CodeSeatsUnavailable, "seat "+seat.Key()+" is no longer available")
			}
		}

		clause := strings.TrimSuffix(strings.Repeat("(row_label = ? AND col_label = ?) OR ", len(seats)), " OR ")
		args := make([]interface{}, 0, len(seats)*2+3)
		args = append(args, StatusBooked, userID, eventID)
		for _, rc := range seats {
			args = append(args, rc.Row, rc.Col)
		}
		q := fmt.Sprintf(`UPDATE seats SET status = ?, holder = ?, version = version + 1
		                   WHERE event_id = ? AND (%s)`, clause)
		_, err = tx.ExecContext(ctx, q, args...)
		return err
	})
}

// pessimisticStrategy takes an exclusive row lock on every seat before
// committing, grounded on PessimisticLocking's SELECT ... FOR UPDATE
// pattern. A seat already locked by another transaction surfaces as
// CONFLICT_ROWLOCK rather than blocking indefinitely, since the lock store
// claim should have prevented concurrent attempts on the same seat in the
// first place — reaching this path at all indicates the lock store and
// seat store have drifted out of agreement.
type pessimisticStrategy struct {
	store *Store
}

func (p pessimisticStrategy) Commit(ctx context.Context, eventID, userID string, seats []RowCol) error {
	return p.store.WithTx(ctx, sql.LevelSerializable, func(tx *sql.Tx) error {
		clause := strings.TrimSuffix(strings.Repeat("(row_label = ? AND col_label = ?) OR ", len(seats)), " OR ")
		q := fmt.Sprintf(`SELECT row_label, col_label, status FROM seats
		                   WHERE event_id = ? AND (%s) FOR UPDATE NOWAIT`, clause)
		args := make([]interface{}, 0, len(seats)*2+1)
		args = append(args, eventID)
		for _, rc := range seats {
			args = append(args, rc.Row, rc.Col)
		}
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			if isLockWaitTimeout(err) {
				return bookerr.Wrap(bookerr.CodeConflictRowLock, "could not acquire row lock on one or more seats", err)
			}
			return err
		}
		statuses := make(map[string]string, len(seats))
		for rows.Next() {
			var row, col, status string
			if err := rows.Scan(&row, &col, &status); err != nil {
				rows.Close()
				return err
			}
			statuses[SeatKey(row, col)] = status
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		if len(statuses) != len(seats) {
			return bookerr.New(bookerr.CodeSeatsNotFound, "one or more seats do not exist for this event")
		}
		for _, rc := range seats {
			if statuses[SeatKey(rc.Row, rc.Col)] != StatusAvailable {
				return bookerr.New(bookerr.CodeSeatsUnavailable, "seat "+SeatKey(rc.Row, rc.Col)+" is no longer available")
			}
		}

		q2 := fmt.Sprintf(`UPDATE seats SET status = ?, holder = ?, version = version + 1
		                    WHERE event_id = ? AND (%s)`, clause)
		args2 := make([]interface{}, 0, len(seats)*2+3)
		args2 = append(args2, StatusBooked, userID, eventID)
		for _, rc := range seats {
			args2 = append(args2, rc.Row, rc.Col)
		}
		_, err = tx.ExecContext(ctx, q2, args2...)
		return err
	})
}

// isLockWaitTimeout recognizes MySQL's lock-wait-timeout / deadlock errors
// so NOWAIT contention surfaces as a typed conflict instead of a generic
// database error.
func isLockWaitTimeout(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1205, 1213, 3572: // ER_LOCK_WAIT_TIMEOUT, ER_LOCK_DEADLOCK, ER_LOCK_NOWAIT
			return true
		}
	}
	return strings.Contains(err.Error(), "lock wait timeout") || strings.Contains(err.Error(), "nowait")
}

// optimisticStrategy performs a version-predicated conditional UPDATE per
// seat, grounded on OptimisticLocking's `UPDATE ... WHERE id = ? AND
// version = ?` + RowsAffected check. Any seat whose affected-row count is
// zero means its version (or status) moved between read and write, and the
// whole attempt is reported as CONFLICT_VERSION — this strategy never
// partially commits a seat set.
type optimisticStrategy struct {
	store *Store
}

func (o optimisticStrategy) Commit(ctx context.Context, eventID, userID string, seats []RowCol) error {
	return o.store.WithTx(ctx, sql.LevelReadCommitted, func(tx *sql.Tx) error {
		found, err := FetchSeats(ctx, tx, eventID, seats)
		if err != nil {
			return err
		}
		if len(found) != len(seats) {
			return bookerr.New(bookerr.CodeSeatsNotFound, "one or more seats do not exist for this event")
		}

		const q = `UPDATE seats SET status = ?, holder = ?, version = version + 1
		           WHERE event_id = ? AND row_label = ? AND col_label = ? AND version = ? AND status = ?`
		affected := 0
		for _, rc := range seats {
			seat := found[SeatKey(rc.Row, rc.Col)]
			res, err := tx.ExecContext(ctx, q, StatusBooked, userID, eventID, rc.Row, rc.Col, seat.Version, StatusAvailable)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			affected += int(n)
		}
		if affected < len(seats) {
			return bookerr.New(bookerr.CodeConflictVersion, "one or more seats changed version before commit")
		}
		return nil
	})
}
