package models

import "time"

// MoodEntry is one append-only row of a user's mood history.
// Never updated or deduplicated after insert.
type MoodEntry struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Mood           string    `gorm:"not null" json:"mood"`
	Confidence     float64   `json:"confidence"`
	RecordedAt     time.Time `gorm:"index" json:"recorded_at"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// ChoiceEntry records a single adventure option the user picked,
// correlated to the capsule that offered it. Append-only.
type ChoiceEntry struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Choice         string    `gorm:"not null" json:"choice"`
	CapsuleID      string    `gorm:"index" json:"capsule_id"`
	ChosenAt       time.Time `json:"chosen_at"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
