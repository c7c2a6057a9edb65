// Package dedup drops QoS 1 redeliveries: a payload seen again within the TTL
// is reported as a duplicate.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	now  func() time.Time
	seen map[string]time.Time // key -> expiry
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, now: time.Now, seen: make(map[string]time.Time)}
}

// Key hashes a payload into a dedup key.
func Key(payload []byte) string {
	h := sha256.Sum256(payload)
	return hex.EncodeToString(h[:])
}

// ShouldProcessPayload is ShouldProcess(Key(payload)).
func (d *Deduper) ShouldProcessPayload(payload []byte) bool {
	return d.ShouldProcess(Key(payload))
}

// ShouldProcess returns false when id was already seen and has not expired.
// The empty id is always processed. A nil Deduper lets everything through.
func (d *Deduper) ShouldProcess(id string) bool {
	if d == nil || id == "" {
		return true
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seenLocked(id, now) {
		return false
	}
	d.recordLocked(id, now)
	return true
}

// Seen reports whether id was recorded and has not expired, without recording it.
func (d *Deduper) Seen(id string) bool {
	if d == nil || id == "" {
		return false
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seenLocked(id, now)
}

// Record marks id as processed for the next TTL. Use it with Seen when a
// message counts as handled only once its side effects succeeded.
func (d *Deduper) Record(id string) {
	if d == nil || id == "" {
		return
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recordLocked(id, now)
}

func (d *Deduper) seenLocked(id string, now time.Time) bool {
	exp, ok := d.seen[id]
	return ok && now.Before(exp)
}

func (d *Deduper) recordLocked(id string, now time.Time) {
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.max {
		d.evict(now)
	}
}

// evict drops expired keys, then the soonest-expiring ones until under capacity.
func (d *Deduper) evict(now time.Time) {
	for k, exp := range d.seen {
		if !now.Before(exp) {
			delete(d.seen, k)
		}
	}
	for len(d.seen) > d.max {
		var oldest string
		var oldestExp time.Time
		for k, exp := range d.seen {
			if oldest == "" || exp.Before(oldestExp) {
				oldest, oldestExp = k, exp
			}
		}
		delete(d.seen, oldest)
	}
}

// Len reports how many keys are tracked.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
