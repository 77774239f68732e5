package models

import (
	"time"

	"gorm.io/gorm"
)

// Gamer groups a gamer can join.
const (
	GroupA = "groupA"
	GroupB = "groupB"
)

// Gamer is a paid membership account. It expires after its membership window
// and is then flagged inactive by the expiry sweep.
type Gamer struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:50;not null" json:"name"`
	Email          string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone          string         `gorm:"size:10;not null" json:"phone"`
	PasswordHash   string         `gorm:"size:255;not null" json:"-"`
	State          string         `gorm:"size:64;not null" json:"state"`
	City           string         `gorm:"size:64;not null" json:"city"`
	Role           string         `gorm:"size:16;default:gamer" json:"role"`
	Group          string         `gorm:"size:16;not null" json:"group"`
	TermsAccepted  bool           `json:"termsAccepted"`
	PolicyAccepted bool           `json:"policyAccepted"`
	JoiningFees    int            `gorm:"not null;default:0" json:"joiningFees"`
	JoiningDate    time.Time      `json:"joiningDate"`
	ExpiryDate     time.Time      `gorm:"index" json:"expiryDate"`
	IsActive       bool           `gorm:"not null;default:true;index" json:"isActive"`
	Tokens         int            `gorm:"not null;default:0" json:"tokens"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate fills membership dates: joining now, expiring one year later unless set.
func (g *Gamer) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	if g.JoiningDate.IsZero() {
		g.JoiningDate = now
	}
	if g.ExpiryDate.IsZero() {
		g.ExpiryDate = g.JoiningDate.AddDate(1, 0, 0)
	}
	if g.Role == "" {
		g.Role = RoleGamer
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (g *Gamer) BeforeUpdate(tx *gorm.DB) error {
	g.UpdatedAt = time.Now()
	return nil
}

// Expired reports whether the membership window has closed at t.
func (g *Gamer) Expired(t time.Time) bool {
	return !g.ExpiryDate.IsZero() && !t.Before(g.ExpiryDate)
}
