package pacing

import (
	"math/rand/v2"
	"testing"
	"time"
)

func testPacer(seed uint64) (*Pacer, *[]time.Duration) {
	slept := &[]time.Duration{}
	p := newPacer(Options{
		BatchMean:  30 * time.Second,
		BatchStd:   15 * time.Second,
		BatchFloor: 5 * time.Second,
		ItemMean:   5 * time.Second,
		ItemStd:    3 * time.Second,
		ItemFloor:  2 * time.Second,
	}, nil, rand.New(rand.NewPCG(seed, seed)), func(d time.Duration) {
		*slept = append(*slept, d)
	})
	return p, slept
}

func TestBatchPause_RespectsFloor(t *testing.T) {
	p, slept := testPacer(1)
	for i := 0; i < 500; i++ {
		d := p.BatchPause()
		if d < 5*time.Second {
			t.Fatalf("pause %s below floor", d)
		}
	}
	if len(*slept) != 500 {
		t.Fatalf("expected 500 sleeps, got %d", len(*slept))
	}
}

func TestItemPause_RespectsFloor(t *testing.T) {
	p, _ := testPacer(2)
	for i := 0; i < 500; i++ {
		if d := p.ItemPause(); d < 2*time.Second {
			t.Fatalf("pause %s below floor", d)
		}
	}
}

func TestBatchPause_NonUniform(t *testing.T) {
	p, _ := testPacer(3)
	seen := map[time.Duration]bool{}
	for i := 0; i < 50; i++ {
		seen[p.BatchPause()] = true
	}
	if len(seen) < 10 {
		t.Fatalf("pauses look constant: %d distinct values in 50 draws", len(seen))
	}
}

func TestBatchPause_HasLongTail(t *testing.T) {
	p, _ := testPacer(4)
	long := 0
	for i := 0; i < 1000; i++ {
		if p.BatchPause() >= 45*time.Second {
			long++
		}
	}
	// ~25% of draws come from the break branches; allow a wide margin.
	if long < 100 {
		t.Fatalf("expected a long-tail of extended breaks, got %d/1000", long)
	}
}

func TestRetryCooldown_SleepsExactly(t *testing.T) {
	p, slept := testPacer(5)
	p.RetryCooldown(10 * time.Second)
	if len(*slept) != 1 || (*slept)[0] != 10*time.Second {
		t.Fatalf("unexpected cooldown sleeps: %v", *slept)
	}
}
