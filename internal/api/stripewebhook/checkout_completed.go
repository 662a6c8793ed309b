package stripewebhooks

import (
	"context"
	"errors"
	"fmt"

	"emsforge/internal/domain/billing"
	"emsforge/internal/infra/token"
	"emsforge/internal/store"
	"emsforge/internal/subscriptions"

	"github.com/stripe/stripe-go/v75"
)

// handleCheckoutCompleted provisions or updates the user for a paid
// checkout. The registrant fields come from session metadata; the billing
// email is resolved through a customer lookup so it reflects what the
// customer actually entered on the hosted page.
func (h *Handler) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	firstName := metadataOr(session.Metadata, "firstName", "Unknown")
	lastName := metadataOr(session.Metadata, "lastName", "Unknown")
	plan := metadataOr(session.Metadata, "productId", "unknown")

	if session.Customer == nil || session.Customer.ID == "" {
		return errors.New("checkout session missing customer")
	}

	cust, err := h.stripe.Customer(session.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch customer: %w", err)
	}

	user, err := h.sync.Activate(ctx, subscriptions.Activation{
		FirstName:  firstName,
		LastName:   lastName,
		Email:      cust.Email,
		CustomerID: session.Customer.ID,
		Plan:       plan,
	})
	if err != nil {
		return err
	}

	// The shadow row can be missing when the initiator's insert failed
	// after the provider session was created; not an error here.
	if err := h.store.MarkSessionCompleted(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	// Notifications are fire-and-forget: each channel's failure is ledgered
	// independently and the activation above stays committed.
	tok, err := token.Issue(h.cfg.JWTSecret, user)
	if err != nil {
		h.logError(ctx, billing.ErrContextEmailSend, "token issue failed: "+err.Error(), []byte(user.Email))
	} else if err := h.notifier.SendConfirmation(user.FirstName, user.Email, plan, tok); err != nil {
		h.logError(ctx, billing.ErrContextEmailSend, err.Error(), []byte(user.Email))
	}

	if err := h.notifier.SendAlert(user.Email, plan); err != nil {
		h.logError(ctx, billing.ErrContextDiscord, err.Error(), nil)
	}

	return nil
}

func metadataOr(md map[string]string, key, fallback string) string {
	if md == nil || md[key] == "" {
		return fallback
	}
	return md[key]
}
