package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"moodquest/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PushConfig carries the VAPID material and delivery bounds.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string // contact mailto: for the push service
	Timeout         time.Duration
	TTL             int // seconds the push service may queue the message
}

var DefaultPushConfig = PushConfig{
	Timeout: 10 * time.Second,
	TTL:     3600,
}

// PushService delivers web-push notifications. Delivery is always
// best-effort: failures are logged, an expired subscription is deactivated
// in place of a retry, and no push outcome ever fails the action that
// triggered it.
type PushService struct {
	DB     *gorm.DB
	Config PushConfig
}

func NewPushService(db *gorm.DB, cfg PushConfig) *PushService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPushConfig.Timeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPushConfig.TTL
	}
	return &PushService{DB: db, Config: cfg}
}

// Enabled reports whether VAPID keys were configured at boot.
func (s *PushService) Enabled() bool {
	return s.Config.VAPIDPublicKey != "" && s.Config.VAPIDPrivateKey != ""
}

// SaveSubscription upserts a browser subscription for a user (re-subscribing
// the same endpoint reactivates it).
func (s *PushService) SaveSubscription(externalUserID, endpoint, p256dh, auth string) (*models.PushSubscription, error) {
	if externalUserID == "" || endpoint == "" || p256dh == "" || auth == "" {
		return nil, fmt.Errorf("%w: endpoint and keys are required", ErrInvalidArgument)
	}
	sub := models.PushSubscription{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Endpoint:       endpoint,
		P256dh:         p256dh,
		Auth:           auth,
		Active:         true,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"external_user_id", "p256dh", "auth", "active"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// RemoveSubscription deactivates a user's subscription for an endpoint.
func (s *PushService) RemoveSubscription(externalUserID, endpoint string) error {
	if externalUserID == "" || endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidArgument)
	}
	res := s.DB.Model(&models.PushSubscription{}).
		Where("external_user_id = ? AND endpoint = ?", externalUserID, endpoint).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("push subscription: %w", ErrNotFound)
	}
	return nil
}

// PushPayload is the JSON body delivered to the service worker.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// NotifyUser sends a payload to every active subscription the user has.
// Never returns an error for delivery outcomes; only storage reads can fail.
func (s *PushService) NotifyUser(ctx context.Context, externalUserID string, payload PushPayload) error {
	if !s.Enabled() {
		return nil
	}
	var subs []models.PushSubscription
	if err := s.DB.Where("external_user_id = ? AND active = ?", externalUserID, true).
		Find(&subs).Error; err != nil {
		return err
	}
	for i := range subs {
		s.send(ctx, &subs[i], payload)
	}
	return nil
}

// send delivers one notification. HTTP 404/410 from the push service means
// the subscription is gone: deactivate it instead of retrying.
func (s *PushService) send(ctx context.Context, sub *models.PushSubscription, payload PushPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️ Push payload marshal failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
	defer cancel()

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.Config.Subscriber,
		VAPIDPublicKey:  s.Config.VAPIDPublicKey,
		VAPIDPrivateKey: s.Config.VAPIDPrivateKey,
		TTL:             s.Config.TTL,
	})
	if err != nil {
		log.Printf("⚠️ Push delivery to %s failed: %v", sub.ExternalUserID, err)
		return
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		if err := s.DB.Model(&models.PushSubscription{}).
			Where("id = ?", sub.ID).
			Update("active", false).Error; err != nil {
			log.Printf("⚠️ Failed to deactivate expired subscription %s: %v", sub.ID, err)
			return
		}
		log.Printf("🔕 Push subscription expired for %s (endpoint %s…), deactivated",
			sub.ExternalUserID, truncateEndpoint(sub.Endpoint))
	default:
		if resp.StatusCode >= 300 {
			log.Printf("⚠️ Push service returned %d for %s", resp.StatusCode, sub.ExternalUserID)
		}
	}
}

func truncateEndpoint(endpoint string) string {
	if idx := strings.Index(endpoint, "?"); idx > 0 {
		endpoint = endpoint[:idx]
	}
	if len(endpoint) > 48 {
		return endpoint[:48]
	}
	return endpoint
}
