package middleware

import (
	"net/http"

	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/store"

	"github.com/gin-gonic/gin"
)

// RequireActiveSubscription gates routes on the provider-reported status.
// past_due gets 402 so the client can prompt for payment; everything else
// short of active/trialing gets 403.
func RequireActiveSubscription(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString("email")

		user, err := st.UserByEmail(c.Request.Context(), email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Subscription not found",
			})
			return
		}

		switch stripeapi.NormalizeStatus(user.SubscriptionStatus) {
		case "active", "trialing":
			c.Next()
		case "past_due":
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Your subscription is past due",
			})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Subscription required",
			})
		}
	}
}
