package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress tracks gamified mood-adventure progression for each user
// (denormalized for performance)
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	TotalPoints int64 `json:"total_points" gorm:"default:0"`
	Level       int   `json:"level" gorm:"default:1"` // derived: total_points / points-per-level + 1

	// Streaks (consecutive calendar days with a daily check-in)
	Streak     int `json:"streak" gorm:"default:0"`
	BestStreak int `json:"best_streak" gorm:"default:0"`

	// Activity counters
	CardsGenerated      int64 `json:"cards_generated" gorm:"default:0"`
	CardsShared         int64 `json:"cards_shared" gorm:"default:0"`
	AdventuresCompleted int64 `json:"adventures_completed" gorm:"default:0"`

	// Most recent qualifying action; drives streak continuation only
	LastActivity *time.Time `json:"last_activity,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
