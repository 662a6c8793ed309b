package checkout

import (
	"errors"
	"net/http"
	"strings"

	"emsforge/config"
	"emsforge/internal/domain/billing"
	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/infra/token"
	"emsforge/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

type Handler struct {
	store  store.Store
	stripe stripeapi.Client
	cfg    *config.Config
}

func NewHandler(st store.Store, sc stripeapi.Client, cfg *config.Config) *Handler {
	return &Handler{store: st, stripe: sc, cfg: cfg}
}

// CreateSession opens a Stripe checkout session in subscription mode and
// records the local shadow row. The registrant fields travel as session
// metadata so the webhook can provision the user without a local lookup.
func (h *Handler) CreateSession(c *gin.Context) {
	var input struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	ctx := c.Request.Context()

	// allow-list the price id against plans synced from Stripe
	plan, err := h.store.PlanByPriceID(ctx, input.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up plan"})
		return
	}
	if !plan.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is no longer offered"})
		return
	}

	// Racy against a concurrent registration by design; the unique email
	// index and the synchronizer's insert-or-fetch close the gap.
	if _, err := h.store.UserByEmail(ctx, email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered. Please login."})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:      stripe.String(email),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(h.cfg.AppURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(h.cfg.AppURL + "/register"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(input.ProductID), Quantity: stripe.Int64(1)},
		},
	}
	params.Metadata = map[string]string{
		"firstName": input.FirstName,
		"lastName":  input.LastName,
		"email":     email,
		"productId": input.ProductID,
	}

	s, err := h.stripe.CreateCheckoutSession(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe session creation failed"})
		return
	}

	// If this insert fails the provider session already exists; accepted,
	// the webhook provisions the user from metadata alone.
	if err := h.store.CreateCheckoutSession(ctx, &billing.CheckoutSession{
		SessionID: s.ID,
		Email:     email,
		ProductID: input.ProductID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Status:    billing.SessionStatusCreated,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

// GetSession is the post-redirect lookup the client polls while the webhook
// races it. Read-only: it resolves the session's customer email, finds the
// local user and issues a credential.
func (h *Handler) GetSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if !stripeapi.ValidSessionID(sessionID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	sess, err := h.stripe.CheckoutSession(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch session details"})
		return
	}
	if sess.Customer == nil || sess.Customer.ID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session has no customer"})
		return
	}

	cust, err := h.stripe.Customer(sess.Customer.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch session details"})
		return
	}

	user, err := h.store.UserByEmail(c.Request.Context(), cust.Email)
	if errors.Is(err, store.ErrNotFound) {
		// Payment not synchronized yet; the client retries.
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	tok, err := token.Issue(h.cfg.JWTSecret, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tok,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.FullName(),
			"email": user.Email,
		},
	})
}
