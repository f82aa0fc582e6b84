package models

import "time"

// Achievement is a per-user achievement definition plus its progress.
// UnlockedAt is set once, when progress first reaches MaxProgress.
type Achievement struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"`
	UserID       string     `gorm:"primaryKey;size:64" json:"user_id"`
	Name         string     `gorm:"size:128;not null" json:"name"`
	Description  string     `gorm:"size:255" json:"description"`
	PointsReward int64      `gorm:"not null" json:"points_reward"`
	Progress     int        `gorm:"not null;default:0" json:"progress"`
	MaxProgress  int        `gorm:"not null" json:"max_progress"`
	UnlockedAt   *time.Time `gorm:"index" json:"unlocked_at,omitempty"`
}

// Unlocked reports whether the achievement has been unlocked.
func (a *Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}
