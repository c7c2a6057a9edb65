package dedup

import (
	"fmt"
	"testing"
	"time"
)

func TestShouldProcess(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	d := New(time.Minute, 10)
	d.now = func() time.Time { return now }

	if !d.ShouldProcess("a") {
		t.Fatal("first delivery dropped")
	}
	if d.ShouldProcess("a") {
		t.Fatal("redelivery accepted")
	}
	if !d.ShouldProcess("") {
		t.Fatal("empty id dropped")
	}

	now = now.Add(2 * time.Minute)
	if !d.ShouldProcess("a") {
		t.Fatal("expired id dropped")
	}
}

func TestShouldProcessPayload(t *testing.T) {
	d := New(0, 0)
	p := []byte(`{"orchard_id":"o1","doy":214}`)
	if !d.ShouldProcessPayload(p) || d.ShouldProcessPayload(p) {
		t.Fatal("payload dedup failed")
	}
	if Key(p) != Key([]byte(string(p))) {
		t.Fatal("Key not deterministic")
	}
}

func TestCapacity(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	d := New(time.Hour, 3)
	d.now = func() time.Time { now = now.Add(time.Second); return now }
	for i := 0; i < 10; i++ {
		d.ShouldProcess(fmt.Sprint(i))
	}
	if n := d.Len(); n != 3 {
		t.Fatalf("Len = %d, want 3", n)
	}
	// the most recent keys survive
	if d.ShouldProcess("9") {
		t.Error("newest key was evicted")
	}
}

func TestNilDeduper(t *testing.T) {
	var d *Deduper
	if !d.ShouldProcess("x") {
		t.Error("nil deduper should let messages through")
	}
}

func TestSeenThenRecord(t *testing.T) {
	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	d := New(time.Minute, 10)
	d.now = func() time.Time { return now }

	if d.Seen("a") {
		t.Fatal("unknown id reported as seen")
	}
	// Seen does not record: a failed attempt can be retried
	if d.Seen("a") || d.Len() != 0 {
		t.Fatal("Seen recorded the id")
	}
	d.Record("a")
	if !d.Seen("a") || d.ShouldProcess("a") {
		t.Fatal("recorded id not seen")
	}
	now = now.Add(2 * time.Minute)
	if d.Seen("a") {
		t.Fatal("expired id still seen")
	}

	var nilD *Deduper
	nilD.Record("a")
	if nilD.Seen("a") {
		t.Fatal("nil deduper reported seen")
	}
}
