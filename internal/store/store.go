package store

import (
	"context"
	"errors"

	"emsforge/internal/domain/billing"
	"emsforge/internal/domain/plans"
	"emsforge/internal/domain/users"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// ActivateParams carries the facts a completed checkout establishes about a
// user. Status is applied only when non-empty; a newly created user defaults
// to "active".
type ActivateParams struct {
	Email      string
	FirstName  string
	LastName   string
	CustomerID string
	Plan       string
	Status     string
}

// Store is the persistence seam for the payment core. The gorm
// implementation backs production; the memory implementation backs handler
// tests. Both serialize read-then-write user updates per key, so Activate
// and SetSubscriptionStatus are safe under concurrent webhook delivery.
type Store interface {
	CreateUser(ctx context.Context, u *users.User) error
	UserByEmail(ctx context.Context, email string) (*users.User, error)
	ListUsers(ctx context.Context) ([]users.User, error)

	// ActivateUser is an insert-or-update keyed on email: it creates the
	// user when absent (falling back to update if a concurrent insert wins
	// the unique-index race) and otherwise updates the customer reference
	// and plan in place. Reports whether a row was created.
	ActivateUser(ctx context.Context, p ActivateParams) (*users.User, bool, error)

	// SetSubscriptionStatus updates the status of the user owning the given
	// Stripe customer id. Returns ErrNotFound when no such user exists.
	SetSubscriptionStatus(ctx context.Context, customerID, status string) error

	CreateCheckoutSession(ctx context.Context, s *billing.CheckoutSession) error
	CheckoutSessionByID(ctx context.Context, sessionID string) (*billing.CheckoutSession, error)
	MarkSessionCompleted(ctx context.Context, sessionID string) error

	// AppendWebhookEvent writes a ledger entry and returns ErrDuplicate when
	// the event id was already recorded.
	AppendWebhookEvent(ctx context.Context, e *billing.WebhookEvent) error
	ListWebhookEvents(ctx context.Context, limit int) ([]billing.WebhookEvent, error)

	AppendWebhookError(ctx context.Context, e *billing.WebhookError) error
	ListWebhookErrors(ctx context.Context, limit int) ([]billing.WebhookError, error)
	WebhookErrorByID(ctx context.Context, id uint) (*billing.WebhookError, error)

	UpsertPlan(ctx context.Context, p *plans.Plan) (created bool, err error)
	PlanByPriceID(ctx context.Context, priceID string) (*plans.Plan, error)
	ActivePlans(ctx context.Context) ([]plans.Plan, error)
}
