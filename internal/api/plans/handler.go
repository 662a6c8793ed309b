package plans

import (
	"net/http"
	"strings"

	"emsforge/internal/domain/plans"
	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store  store.Store
	stripe stripeapi.Client
}

func NewHandler(st store.Store, sc stripeapi.Client) *Handler {
	return &Handler{store: st, stripe: sc}
}

type PricingEntry struct {
	ID          string  `json:"id"`
	Product     string  `json:"product"`
	Description string  `json:"description"`
	UnitAmount  float64 `json:"unit_amount"` // major units
	Currency    string  `json:"currency"`
	Recurring   string  `json:"recurring"`
}

// Pricing lists active recurring prices straight from Stripe for the
// marketing page.
func (h *Handler) Pricing(c *gin.Context) {
	prices, err := h.stripe.ActivePrices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch pricing"})
		return
	}

	entries := []PricingEntry{}
	for _, p := range prices {
		entry := PricingEntry{
			ID:         p.ID,
			UnitAmount: float64(p.UnitAmount) / 100.0,
			Currency:   strings.ToUpper(string(p.Currency)),
		}
		if p.Product != nil {
			entry.Product = p.Product.Name
			entry.Description = p.Product.Description
		}
		if p.Recurring != nil {
			entry.Recurring = string(p.Recurring.Interval)
		}
		entries = append(entries, entry)
	}

	c.JSON(http.StatusOK, entries)
}

type PlanDTO struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	PriceID  string  `json:"price_id"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
}

// ListPlans serves the locally synced plan table the checkout initiator
// validates against.
func (h *Handler) ListPlans(c *gin.Context) {
	active, err := h.store.ActivePlans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	out := []PlanDTO{}
	for _, p := range active {
		out = append(out, PlanDTO{
			ID:       p.ID,
			Name:     p.Name,
			PriceID:  p.StripePriceID,
			Price:    p.Price,
			Currency: p.Currency,
			Interval: p.Interval,
		})
	}
	c.JSON(http.StatusOK, out)
}

// SyncPlans mirrors active recurring Stripe prices into the plans table.
func (h *Handler) SyncPlans(c *gin.Context) {
	prices, err := h.stripe.ActivePrices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices"})
		return
	}

	ctx := c.Request.Context()
	created := 0
	updated := 0

	for _, p := range prices {
		name := ""
		if p.Product != nil {
			name = p.Product.Name
		}
		if v := p.Metadata["plan"]; v != "" {
			name = v
		}

		plan := plans.Plan{
			Name:          name,
			StripePriceID: p.ID,
			Price:         float64(p.UnitAmount) / 100.0,
			Currency:      string(p.Currency),
			Interval:      string(p.Recurring.Interval),
			Active:        true,
		}
		wasCreated, err := h.store.UpsertPlan(ctx, &plan)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save plan", "details": err.Error()})
			return
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"synced":  created + updated,
		"created": created,
		"updated": updated,
	})
}
