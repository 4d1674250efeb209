package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWeeklyKey(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	weekStart := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	got := weeklyKey(userID, weekStart)
	want := "dosetrack:weekly:7d444840-9dc0-11d1-b245-5ffdce74fad2:2024-03-03"
	if got != want {
		t.Errorf("weeklyKey = %q, want %q", got, want)
	}
}

func TestWeeklyCache_NilClientDegradesToMiss(t *testing.T) {
	t.Parallel()

	var c *WeeklyCache
	if _, ok := c.Get(context.Background(), uuid.New(), time.Now()); ok {
		t.Error("nil cache should always miss")
	}

	// Set and Invalidate on a nil cache are no-ops, not panics.
	c.Set(context.Background(), uuid.New(), time.Now(), []byte("{}"), true)
	c.Invalidate(context.Background(), uuid.New(), time.Now())

	empty := &WeeklyCache{}
	if _, ok := empty.Get(context.Background(), uuid.New(), time.Now()); ok {
		t.Error("cache without client should always miss")
	}
}
