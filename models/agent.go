package models

import (
	"time"

	"gorm.io/gorm"
)

// AgentClass is a cosmetic tier derived from an agent's level.
type AgentClass string

const (
	ClassScout      AgentClass = "Scout"
	ClassExplorer   AgentClass = "Explorer"
	ClassSpecialist AgentClass = "Specialist"
	ClassExpert     AgentClass = "Expert"
	ClassMaster     AgentClass = "Master"
	ClassSage       AgentClass = "Sage"
)

// Agent is a user-created persona that accumulates experience.
type Agent struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Name        string       `gorm:"size:128;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Personality string       `gorm:"type:text" json:"personality"`
	Goals       []string     `gorm:"serializer:json;type:text" json:"goals"`
	Creator     string       `gorm:"index;size:64;not null" json:"creator"`
	XP          int64        `gorm:"not null;default:0" json:"xp"`
	Level       int          `gorm:"not null;default:1" json:"level"`
	Class       AgentClass   `gorm:"size:16;not null" json:"class"`
	Traits      []AgentTrait `gorm:"foreignKey:AgentID;constraint:OnDelete:CASCADE;" json:"traits"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// AgentTrait is a named modifier attached to an agent.
type AgentTrait struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AgentID     string    `gorm:"index;size:36;not null" json:"agent_id"`
	Position    int       `gorm:"not null" json:"position"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Effect      string    `gorm:"type:text" json:"effect"`
	Unlocked    bool      `gorm:"not null" json:"unlocked"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	return nil
}
