package users

import (
	"net/http"

	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store store.Store
}

func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

type MeResponse struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	SubscriptionPlan   string `json:"subscription_plan,omitempty"`
	SubscriptionStatus string `json:"subscription_status"`
	HasPaid            bool   `json:"has_paid"`
}

func (h *Handler) Me(c *gin.Context) {
	email := c.GetString("email")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.store.UserByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		ID:                 user.ID,
		Name:               user.FullName(),
		Email:              user.Email,
		Role:               user.Role,
		SubscriptionPlan:   user.SubscriptionPlan,
		SubscriptionStatus: stripeapi.NormalizeStatus(user.SubscriptionStatus),
		HasPaid:            user.StripeCustomerID != nil,
	})
}
