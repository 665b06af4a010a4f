package models

import (
	"time"
)

// CardTheme is the visual theme the client rendered the card with
type CardTheme string

const (
	CardThemeSunrise  CardTheme = "sunrise"
	CardThemeMidnight CardTheme = "midnight"
	CardThemeForest   CardTheme = "forest"
	CardThemeDefault  CardTheme = "default"
)

// VibeCard is the persisted metadata of a shareable rendered summary card.
// The rendered image itself lives in R2; ImageURL points at it once uploaded.
type VibeCard struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	CapsuleID      string    `gorm:"index" json:"capsule_id"`
	Title          string    `gorm:"not null" json:"title"`
	Mood           string    `json:"mood"`
	Theme          CardTheme `gorm:"type:varchar(32);default:'default'" json:"theme"`
	Slug           string    `gorm:"uniqueIndex;not null" json:"slug"` // share-link token
	ImageURL       string    `gorm:"type:text" json:"image_url"`

	Shared   bool       `gorm:"default:false;index" json:"shared"`
	SharedAt *time.Time `json:"shared_at,omitempty"`

	Timestamps
}
