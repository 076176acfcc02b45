package cache

import (
	"testing"

	"github.com/chic-lang/chic/internal/mir"
	"github.com/chic-lang/chic/internal/sid"
)

func TestGetMissThenHit(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	key := sid.ContentHash("Acme", []byte("func f() {}"), nil)

	if _, ok := c.Get(key); ok {
		t.Fatalf("expected a miss on an empty cache")
	}

	c.Put(key, Entry{Function: &mir.Function{Name: "f"}})

	e, ok := c.Get(key)
	if !ok || e.Function.Name != "f" {
		t.Fatalf("expected a hit returning the stored function, got %+v, %v", e, ok)
	}

	m := c.Metrics()
	if m.Hits != 1 || m.Misses != 1 {
		t.Fatalf("Metrics() = %+v, want 1 hit and 1 miss", m)
	}
}

func TestSecondIdenticalRunShowsNoMisses(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer c.Close()

	key := sid.ContentHash("Acme", []byte("func f() {}"), nil)
	c.Get(key) // first run: miss
	c.Put(key, Entry{Function: &mir.Function{Name: "f"}})

	// Simulate a second lowering pass over the identical input.
	for i := 0; i < 3; i++ {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("second-run lookup %d should hit", i)
		}
	}

	m := c.Metrics()
	if m.Hits < m.Misses {
		t.Fatalf("Metrics() = %+v, want hits >= misses", m)
	}
}
