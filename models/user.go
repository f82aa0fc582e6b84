package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the per-user points aggregate. Points is a denormalized running
// balance of the user's ledger entries.
type User struct {
	ID           string        `gorm:"primaryKey;size:64" json:"id"`
	Name         string        `gorm:"size:128;not null" json:"name"`
	Points       int64         `gorm:"not null;default:0" json:"points"`
	Streak       int           `gorm:"not null;default:0" json:"streak"`
	LastLoginAt  time.Time     `gorm:"index;not null" json:"last_login_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Achievements []Achievement `gorm:"foreignKey:UserID;references:ID" json:"achievements,omitempty"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastLoginAt.IsZero() {
		u.LastLoginAt = u.CreatedAt
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
