package models

import (
	"time"

	"gorm.io/gorm"
)

// Account roles carried in session tokens.
const (
	RoleUser  = "user"
	RoleGamer = "gamer"
	RoleAdmin = "admin"
)

// User represents a general platform account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:50;not null" json:"name"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"size:10;not null" json:"phone"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	State        string         `gorm:"size:64;not null" json:"state"`
	City         string         `gorm:"size:64;not null" json:"city"`
	Role         string         `gorm:"size:16;default:user" json:"role"`
	Tokens       int            `gorm:"not null;default:0" json:"tokens"`
	IsActive     bool           `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps and role are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
