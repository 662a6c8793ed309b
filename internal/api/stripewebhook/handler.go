package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"emsforge/config"
	"emsforge/internal/domain/billing"
	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/store"
	"emsforge/internal/subscriptions"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// Notifier is the side-channel surface the completed-checkout branch fires.
type Notifier interface {
	SendConfirmation(firstName, to, plan, loginToken string) error
	SendAlert(email, plan string) error
}

type Handler struct {
	store    store.Store
	stripe   stripeapi.Client
	sync     *subscriptions.Synchronizer
	notifier Notifier
	cfg      *config.Config
}

func NewHandler(st store.Store, sc stripeapi.Client, sync *subscriptions.Synchronizer, n Notifier, cfg *config.Config) *Handler {
	return &Handler{store: st, stripe: sc, sync: sync, notifier: n, cfg: cfg}
}

// HandleWebhook verifies the Stripe signature, appends the event to the
// ledger and dispatches it. After verification the response is always 200:
// a business-logic failure is ledgered, not surfaced, because Stripe cannot
// fix it by retrying.
func (h *Handler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := readBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.logError(ctx, billing.ErrContextVerification, "Invalid signature", payload)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	err = h.store.AppendWebhookEvent(ctx, &billing.WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   string(payload),
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Redelivery of an already-ledgered event; acknowledge, skip dispatch.
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}
	if err != nil {
		// Ledger write failures are non-fatal; processing continues.
		h.logError(ctx, billing.ErrContextLogging, err.Error(), payload)
	}

	h.Dispatch(ctx, &event, payload)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// Dispatch routes a verified event by kind. Errors in any branch are
// written to the error ledger and swallowed. The admin replay endpoint
// calls this directly with a ledgered payload.
func (h *Handler) Dispatch(ctx context.Context, event *stripe.Event, payload []byte) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			h.logError(ctx, billing.ErrContextMainHandler, "Failed to parse session: "+err.Error(), payload)
			return
		}
		if err := h.handleCheckoutCompleted(ctx, &session); err != nil {
			h.logError(ctx, billing.ErrContextMainHandler, err.Error(), payload)
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.logError(ctx, billing.ErrContextSubUpdate, "Failed to parse subscription: "+err.Error(), payload)
			return
		}
		if err := h.handleSubscriptionChange(ctx, &sub); err != nil {
			h.logError(ctx, billing.ErrContextSubUpdate, err.Error(), payload)
		}

	default:
		// ledger-only
	}
}

func (h *Handler) logError(ctx context.Context, errContext, message string, raw []byte) {
	log.Printf("webhook [%s] %s", errContext, message)
	if err := h.store.AppendWebhookError(ctx, &billing.WebhookError{
		Context:    errContext,
		Message:    message,
		RawPayload: string(raw),
	}); err != nil {
		log.Printf("webhook: failed to record error: %v", err)
	}
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
