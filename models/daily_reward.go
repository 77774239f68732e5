package models

import "time"

// DailyReward stores the login streak of one account. The pair
// (AccountKind, AccountID) is unique.
type DailyReward struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	AccountID     uint            `gorm:"uniqueIndex:idx_daily_reward_account;not null" json:"accountId"`
	AccountKind   string          `gorm:"uniqueIndex:idx_daily_reward_account;size:16;not null" json:"accountKind"`
	LastVisitDate time.Time       `gorm:"not null" json:"lastVisitDate"`
	CurrentStreak int             `gorm:"not null;default:1" json:"currentStreak"`
	Version       int             `gorm:"not null;default:0" json:"-"`
	History       []RewardHistory `gorm:"constraint:OnDelete:CASCADE;" json:"rewardsHistory"`
	CreatedAt     time.Time       `gorm:"<-:create" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// RewardHistory is one append-only payout entry of a DailyReward.
type RewardHistory struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	DailyRewardID uint      `gorm:"index;not null" json:"-"`
	Date          time.Time `gorm:"not null" json:"date"`
	Tokens        int       `gorm:"not null" json:"tokens"`
	StreakDay     int       `gorm:"not null" json:"streakDay"`
	CreatedAt     time.Time `json:"-"`
}

// Clone returns a deep copy so callers can mutate without aliasing history.
func (d *DailyReward) Clone() *DailyReward {
	if d == nil {
		return nil
	}
	c := *d
	c.History = append([]RewardHistory(nil), d.History...)
	return &c
}

// RecentHistory returns at most n of the latest entries, most recent last.
func (d *DailyReward) RecentHistory(n int) []RewardHistory {
	if n <= 0 || len(d.History) == 0 {
		return []RewardHistory{}
	}
	start := len(d.History) - n
	if start < 0 {
		start = 0
	}
	return append([]RewardHistory(nil), d.History[start:]...)
}
