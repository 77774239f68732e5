package rewards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cppla/diceraja/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDecide_FirstClaim(t *testing.T) {
	d := Decide(nil, day(2025, 3, 10), time.UTC, DefaultTable)
	assert.True(t, d.CanClaim)
	assert.True(t, d.FirstClaim)
	assert.Equal(t, 1, d.NextStreak)
	assert.Equal(t, 100, d.Reward)
}

func TestDecide_Branches(t *testing.T) {
	last := day(2025, 3, 10)
	cases := []struct {
		name     string
		streak   int
		today    time.Time
		canClaim bool
		nextStrk int
		reward   int
		diffDays int
	}{
		{"same day", 3, last.Add(23 * time.Hour), false, 3, 300, 0},
		{"next day", 3, day(2025, 3, 11), true, 4, 500, 1},
		{"next day capped", 7, day(2025, 3, 11), true, 7, 1000, 1},
		{"skipped one day", 5, day(2025, 3, 12), true, 1, 100, 2},
		{"long gap", 6, day(2025, 4, 30), true, 1, 100, 51},
		{"clock went backwards", 2, day(2025, 3, 9), false, 2, 200, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := &models.DailyReward{LastVisitDate: last, CurrentStreak: tc.streak}
			d := Decide(st, tc.today, time.UTC, DefaultTable)
			assert.Equal(t, tc.canClaim, d.CanClaim)
			assert.False(t, d.FirstClaim)
			assert.Equal(t, tc.nextStrk, d.NextStreak)
			assert.Equal(t, tc.reward, d.Reward)
			assert.Equal(t, tc.diffDays, d.DiffDays)
		})
	}
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 3, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b, time.UTC))
	assert.Equal(t, 0, DaysBetween(b, b.Add(20*time.Hour), time.UTC))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2025-03-09 is 23 hours long in New York.
	before := time.Date(2025, 3, 9, 0, 0, 0, 0, loc)
	after := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(before, after, loc))

	// 2025-11-02 is 25 hours long.
	before = time.Date(2025, 11, 2, 0, 0, 0, 0, loc)
	after = time.Date(2025, 11, 3, 0, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(before, after, loc))
}

func TestDay_UsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 10th is already the 11th in IST.
	got := Day(time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, 11, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, loc, got.Location())
}
