package models

// PushSubscription is a stored browser web-push subscription.
// Deactivated (never deleted) when the push service reports it expired.
type PushSubscription struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	Endpoint       string `gorm:"uniqueIndex;not null;type:text" json:"endpoint"`
	P256dh         string `gorm:"not null" json:"p256dh"`
	Auth           string `gorm:"not null" json:"auth"`
	Active         bool   `gorm:"default:true;index" json:"active"`

	Timestamps
}
