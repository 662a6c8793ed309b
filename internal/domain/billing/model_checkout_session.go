package billing

import "time"

const (
	SessionStatusCreated   = "created"
	SessionStatusCompleted = "completed"
)

// CheckoutSession is the local shadow of a Stripe checkout session. It is
// written in `created` state when the session is opened and flipped to
// `completed` by the webhook processor; no other transitions exist.
type CheckoutSession struct {
	SessionID string `gorm:"primaryKey;column:session_id"`
	Email     string `gorm:"not null;index"`
	ProductID string `gorm:"column:product_id"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
	Status    string `gorm:"type:varchar(20);not null;default:'created'"`
	CreatedAt time.Time
}
