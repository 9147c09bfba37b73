package clock_test

import (
	"testing"
	"time"

	"github.com/artpar/jsonapiclient/adapters/clock"
)

func TestReal_Now(t *testing.T) {
	c := clock.Real{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestFake_Stable(t *testing.T) {
	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)

	if !c.Now().Equal(start) || !c.Now().Equal(start) {
		t.Error("fake clock without step should not move")
	}

	c.Advance(90 * time.Second)
	if got := clock.Since(c, start); got != 90*time.Second {
		t.Errorf("Since = %v, want 90s", got)
	}
}

func TestFake_Ticking(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewTicking(start, 250*time.Millisecond)

	first := c.Now()
	if !first.Equal(start) {
		t.Errorf("first reading = %v, want %v", first, start)
	}
	if got := clock.Since(c, first); got != 250*time.Millisecond {
		t.Errorf("Since = %v, want 250ms", got)
	}
}
