package users

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID        uint    `gorm:"primaryKey"`
	FirstName string  `gorm:"column:first_name"`
	LastName  string  `gorm:"column:last_name"`
	Email     string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password  *string // nil for accounts provisioned by checkout
	Role      string  `gorm:"type:varchar(20);not null;default:'student'"`

	// Set by the subscription synchronizer on the first completed checkout.
	// A user without a customer id has never paid.
	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id"`

	// SubscriptionPlan holds the Stripe price id the user subscribed to.
	// SubscriptionStatus is stored verbatim from Stripe; empty means none.
	SubscriptionPlan   string `gorm:"column:subscription_plan"`
	SubscriptionStatus string `gorm:"column:subscription_status;type:varchar(32)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName is the display name used in client projections.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
