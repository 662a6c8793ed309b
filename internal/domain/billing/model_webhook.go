package billing

import "time"

// Webhook error contexts, matching the labels written by each processing
// branch. Verification failures are the only ones that block acknowledgment.
const (
	ErrContextVerification = "Verification"
	ErrContextLogging      = "Logging"
	ErrContextMainHandler  = "MainHandler"
	ErrContextSubUpdate    = "SubUpdate"
	ErrContextEmailSend    = "EmailSendFail"
	ErrContextDiscord      = "DiscordFail"
)

// WebhookEvent is the append-only ledger of every verified Stripe event.
// EventID carries a unique index so a redelivered event is detected and
// acknowledged without being reprocessed.
type WebhookEvent struct {
	ID        uint   `gorm:"primaryKey"`
	EventID   string `gorm:"column:event_id;not null;uniqueIndex:ux_webhook_events_event_id"`
	EventType string `gorm:"column:event_type;type:varchar(100);not null;index"`
	Payload   string `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}

// WebhookError records every verification or processing failure together
// with the payload that caused it. Since handler errors never propagate to
// Stripe, this table is the only place a swallowed failure can be recovered
// from; the admin replay endpoint feeds stored payloads back through
// dispatch.
type WebhookError struct {
	ID         uint   `gorm:"primaryKey"`
	Context    string `gorm:"type:varchar(50);not null;index"`
	Message    string `gorm:"type:text"`
	RawPayload string `gorm:"column:raw_payload;type:text"`
	CreatedAt  time.Time
}
