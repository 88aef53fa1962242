// Package admission implements the Admission Cache: an advisory, per-event
// counter used to short-circuit obviously-doomed booking attempts before
// they pay the cost of a Gatekeeper round trip. It is never consulted to
// prove a seat is available — only to skip attempts early when it is
// confident a seat isn't.
package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group

	decrementScript *redis.Script
}

func New(rdb *redis.Client) *Cache {
	return &Cache{
		rdb: rdb,
		decrementScript: redis.NewScript(`
			local key = KEYS[1]
			local by = tonumber(ARGV[1])
			local cur = tonumber(redis.call('GET', key))
			if cur == nil then
				return -1
			end
			local next = cur - by
			if next < 0 then
				next = 0
			end
			redis.call('SET', key, next, 'KEEPTTL')
			return next
		`),
	}
}

func key(eventID string) string {
	return fmt.Sprintf("seatgrid:admission:%s", eventID)
}

// Seed initializes the counter to capacity with the given TTL, matching the
// event's lock TTL so the advisory count never outlives the event it
// describes. Called once by the Event Initializer when an event is created.
func (c *Cache) Seed(ctx context.Context, eventID string, capacity int, ttl time.Duration) error {
	return c.rdb.Set(ctx, key(eventID), capacity, ttl).Err()
}

// Peek reports the last known remaining-capacity estimate. A miss (ok=false)
// means the cache has nothing to say and the caller must fall through to
// the authoritative path rather than treating it as zero or infinite.
func (c *Cache) Peek(ctx context.Context, eventID string) (remaining int, ok bool, err error) {
	v, sfErr, _ := c.sf.Do(eventID+":peek", func() (interface{}, error) {
		n, err := c.rdb.Get(ctx, key(eventID)).Int()
		if err == redis.Nil {
			return -1, nil
		}
		return n, err
	})
	if sfErr != nil {
		return 0, false, fmt.Errorf("admission: peek: %w", sfErr)
	}
	n := v.(int)
	if n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// Decrement lowers the counter by n, clamped at zero, best-effort. Called
// after a successful commit; a failure here only means the advisory count
// stays higher than the true remaining capacity (nothing in this package
// re-seeds it), it never affects correctness of the booking itself.
func (c *Cache) Decrement(ctx context.Context, eventID string, n int) error {
	_, err := c.decrementScript.Run(ctx, c.rdb, []string{key(eventID)}, n).Result()
	if err != nil {
		return fmt.Errorf("admission: decrement: %w", err)
	}
	return nil
}

// Ping verifies connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
