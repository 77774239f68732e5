package rewards

import "fmt"

// DefaultTable is the 7-day payout schedule; index 0 is the day-1 reward.
var DefaultTable = Table{100, 200, 300, 500, 600, 800, 1000}

// Table maps streak day to payout. Streaks longer than the table pay the last entry.
type Table []int

// NewTable validates payouts: at least one entry, all positive.
func NewTable(payouts []int) (Table, error) {
	if len(payouts) == 0 {
		return nil, fmt.Errorf("reward table is empty")
	}
	for i, p := range payouts {
		if p <= 0 {
			return nil, fmt.Errorf("reward table day %d: payout %d must be positive", i+1, p)
		}
	}
	return append(Table(nil), payouts...), nil
}

// MaxStreak is the streak cap, one per table entry.
func (t Table) MaxStreak() int {
	return len(t)
}

// RewardFor returns the payout for a streak day. Streaks below 1 pay day 1.
func (t Table) RewardFor(streak int) int {
	if streak < 1 {
		streak = 1
	}
	if streak > len(t) {
		streak = len(t)
	}
	return t[streak-1]
}
