package rewards

import (
	"time"

	"github.com/cppla/diceraja/models"
)

// Decision is what a claim would do for one account on one calendar day.
// Claim applies it; Status reports it.
type Decision struct {
	CanClaim   bool
	FirstClaim bool
	// DiffDays is today minus the last visit day; 0 for a first claim.
	DiffDays int
	// NextStreak is the streak a claim would record. When CanClaim is false
	// it is the stored streak.
	NextStreak int
	Reward     int
}

// Decide evaluates state (nil for an account that never claimed) against today.
// It is pure; both dates are reduced to calendar days in loc.
func Decide(state *models.DailyReward, today time.Time, loc *time.Location, table Table) Decision {
	if state == nil {
		return Decision{CanClaim: true, FirstClaim: true, NextStreak: 1, Reward: table.RewardFor(1)}
	}

	diff := DaysBetween(state.LastVisitDate, today, loc)
	d := Decision{DiffDays: diff, NextStreak: state.CurrentStreak}
	switch {
	case diff == 1:
		d.CanClaim = true
		d.NextStreak = min(state.CurrentStreak+1, table.MaxStreak())
	case diff > 1:
		d.CanClaim = true
		d.NextStreak = 1
	}
	// diff <= 0: already claimed today, or the clock went backwards.
	d.Reward = table.RewardFor(d.NextStreak)
	return d
}

// Day drops the time of day of t in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween counts calendar days from a to b in loc. The count is taken on
// the civil dates, so a 23h or 25h DST day still counts as one.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	a, b = a.In(loc), b.In(loc)
	from := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}
