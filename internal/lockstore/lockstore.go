// Package lockstore implements the Gatekeeper: the single source of truth
// for "which seats are currently claimed, pending an authoritative commit".
// All-or-none claim insertion is done with one Lua script per call, the
// same technique the token-bucket rate limiter uses to make a
// read-then-write decision atomic in a single Redis round trip.
package lockstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAlreadyClaimed is returned by TryClaim when at least one requested
// seat is already present in the lock hash for this event.
var ErrAlreadyClaimed = errors.New("lockstore: one or more seats already claimed")

// Store is the Redis-backed Gatekeeper. A single client instance backs
// every event; locks for different events live in different hash keys so
// TryClaim only ever contends with other claims for the same event.
type Store struct {
	rdb *redis.Client
	ttl time.Duration

	tryClaimScript *redis.Script
	releaseScript  *redis.Script
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
		tryClaimScript: redis.NewScript(`
			local key = KEYS[1]
			local now_ms = ARGV[1]
			local ttl_seconds = tonumber(ARGV[2])
			local seatCount = #ARGV - 2
			for i = 1, seatCount do
				local seatID = ARGV[2 + i]
				if redis.call('HEXISTS', key, seatID) == 1 then
					return 0
				end
			end
			for i = 1, seatCount do
				local seatID = ARGV[2 + i]
				redis.call('HSET', key, seatID, now_ms)
			end
			if redis.call('TTL', key) < 0 then
				redis.call('EXPIRE', key, ttl_seconds)
			end
			return 1
		`),
		releaseScript: redis.NewScript(`
			local key = KEYS[1]
			for i = 1, #ARGV do
				redis.call('HDEL', key, ARGV[i])
			end
			return redis.call('HLEN', key)
		`),
	}
}

func lockKey(eventID string) string {
	return fmt.Sprintf("seatgrid:lock:%s", eventID)
}

// TryClaim atomically inserts claim entries for every seat in seatIDs. If
// any seat is already claimed, none are inserted and ErrAlreadyClaimed is
// returned — the all-or-none behavior the booking coordinator relies on to
// avoid partial claims under concurrent attempts on overlapping seat sets.
// The key's TTL is attached only the first time a claim lands in an empty
// hash (TTL < 0); a steady stream of claims against an already-ticking key
// does not keep pushing the expiry back.
func (s *Store) TryClaim(ctx context.Context, eventID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(seatIDs)+2)
	args = append(args, strconv.FormatInt(time.Now().UnixMilli(), 10), int64(s.ttl/time.Second))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := s.tryClaimScript.Run(ctx, s.rdb, []string{lockKey(eventID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("lockstore: try_claim: %w", err)
	}
	if res == 0 {
		return ErrAlreadyClaimed
	}
	return nil
}

// Release removes claim entries for seatIDs. It is idempotent: releasing an
// already-absent seat is not an error. Release is always best-effort from
// the caller's perspective — a failure here never blocks a commit that
// already succeeded, it only risks a claim lingering until the reconciler
// sweeps it.
func (s *Store) Release(ctx context.Context, eventID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	args := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		args[i] = id
	}
	_, err := s.releaseScript.Run(ctx, s.rdb, []string{lockKey(eventID)}, args...).Result()
	if err != nil {
		return fmt.Errorf("lockstore: release: %w", err)
	}
	return nil
}

// StaleClaim is one entry returned by ScanStale: a seat whose claim has
// outlived the given threshold without an accompanying commit or release.
type StaleClaim struct {
	SeatID    string
	ClaimedAt time.Time
}

// ScanStale reads every claim in the event's lock hash and returns the ones
// older than threshold. Redis has no server-side "expire fields older than
// X" primitive for hashes, so the comparison happens client-side after a
// single HGETALL — still one round trip per event, not one per seat.
func (s *Store) ScanStale(ctx context.Context, eventID string, threshold time.Duration) ([]StaleClaim, error) {
	all, err := s.rdb.HGetAll(ctx, lockKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("lockstore: scan_stale: %w", err)
	}
	cutoff := time.Now().Add(-threshold)
	var stale []StaleClaim
	for seatID, tsStr := range all {
		ms, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		claimedAt := time.UnixMilli(ms)
		if claimedAt.Before(cutoff) {
			stale = append(stale, StaleClaim{SeatID: seatID, ClaimedAt: claimedAt})
		}
	}
	return stale, nil
}

// Ping verifies connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
