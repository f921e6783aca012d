package billing

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is the audit trail of verified provider deliveries.
// It is not used to gate processing; the status predicates on intents and
// quotes are what make redelivery harmless.
type WebhookEvent struct {
	ProviderEventID string         `gorm:"primaryKey;size:255" json:"provider_event_id"`
	EventType       string         `gorm:"size:100;not null;index" json:"event_type"`
	SessionID       string         `gorm:"size:255;index" json:"session_id"`
	Payload         datatypes.JSON `json:"payload"`
	ReceivedAt      time.Time      `json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error,omitempty"`
	Deliveries      int            `gorm:"not null;default:1" json:"deliveries"`
}
