package stripewebhooks

import (
	"context"
	"errors"

	"emsforge/internal/subscriptions"

	"github.com/stripe/stripe-go/v75"
)

// handleSubscriptionChange records the provider-reported status for both
// updated and deleted events. The synchronizer treats an unknown customer
// as a no-op, so an out-of-order status event before activation is
// acknowledged silently.
func (h *Handler) handleSubscriptionChange(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return errors.New("subscription missing customer")
	}

	return h.sync.SetStatus(ctx, subscriptions.StatusChange{
		CustomerID: sub.Customer.ID,
		Status:     string(sub.Status),
	})
}
