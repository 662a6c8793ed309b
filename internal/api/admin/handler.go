package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	stripewebhooks "emsforge/internal/api/stripewebhook"
	"emsforge/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

type Handler struct {
	store   store.Store
	webhook *stripewebhooks.Handler
}

func NewHandler(st store.Store, wh *stripewebhooks.Handler) *Handler {
	return &Handler{store: st, webhook: wh}
}

type AdminUser struct {
	ID                 uint      `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	StripeCustomerID   *string   `json:"stripe_customer_id,omitempty"`
	SubscriptionPlan   string    `json:"subscription_plan,omitempty"`
	SubscriptionStatus string    `json:"subscription_status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	all, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	out := []AdminUser{}
	for _, u := range all {
		out = append(out, AdminUser{
			ID:                 u.ID,
			Name:               u.FullName(),
			Email:              u.Email,
			Role:               u.Role,
			StripeCustomerID:   u.StripeCustomerID,
			SubscriptionPlan:   u.SubscriptionPlan,
			SubscriptionStatus: u.SubscriptionStatus,
			CreatedAt:          u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListWebhookEvents(c *gin.Context) {
	events, err := h.store.ListWebhookEvents(c.Request.Context(), limitParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) ListWebhookErrors(c *gin.Context) {
	errs, err := h.store.ListWebhookErrors(c.Request.Context(), limitParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook errors"})
		return
	}
	c.JSON(http.StatusOK, errs)
}

// ReplayWebhookError feeds a ledgered payload back through event dispatch.
// Signature verification is skipped: the payload was ledgered by a verified
// delivery or flagged by one, and this route sits behind the admin guard.
func (h *Handler) ReplayWebhookError(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid error id"})
		return
	}

	entry, err := h.store.WebhookErrorByID(c.Request.Context(), uint(id))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook error not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook error"})
		return
	}

	var event stripe.Event
	if err := json.Unmarshal([]byte(entry.RawPayload), &event); err != nil || event.Type == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Stored payload is not a replayable event"})
		return
	}

	h.webhook.Dispatch(c.Request.Context(), &event, []byte(entry.RawPayload))
	c.JSON(http.StatusOK, gin.H{"status": "replayed", "event_type": string(event.Type)})
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		return 100
	}
	return limit
}
