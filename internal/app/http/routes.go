package routes

import (
	"time"

	"emsforge/config"
	adminapi "emsforge/internal/api/admin"
	authapi "emsforge/internal/api/auth"
	"emsforge/internal/api/checkout"
	plansapi "emsforge/internal/api/plans"
	stripewebhooks "emsforge/internal/api/stripewebhook"
	usersapi "emsforge/internal/api/users"
	"emsforge/internal/app/http/middleware"
	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/notify"
	"emsforge/internal/store"
	"emsforge/internal/subscriptions"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Cfg    *config.Config
	Store  store.Store
	Stripe stripeapi.Client
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	sync := subscriptions.New(d.Store)
	notifier := notify.New(d.Cfg)

	webhookHandler := stripewebhooks.NewHandler(d.Store, d.Stripe, sync, notifier, d.Cfg)
	checkoutHandler := checkout.NewHandler(d.Store, d.Stripe, d.Cfg)
	authHandler := authapi.NewHandler(d.Store, d.Cfg)
	usersHandler := usersapi.NewHandler(d.Store)
	plansHandler := plansapi.NewHandler(d.Store, d.Stripe)
	adminHandler := adminapi.NewHandler(d.Store, webhookHandler)

	// The webhook route takes the raw body; no sanitization or body rewrite
	// may sit in front of signature verification.
	r.POST("/webhook", webhookHandler.HandleWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeInput())

	public.GET("/pricing", plansHandler.Pricing)
	public.GET("/plans", plansHandler.ListPlans)
	public.POST("/checkout/create-session", checkoutHandler.CreateSession)
	public.GET("/checkout/session/:sessionId", checkoutHandler.GetSession)

	limiter := middleware.NewFixedWindowLimiter(100, 15*time.Minute)
	authRoutes := public.Group("/auth")
	authRoutes.Use(middleware.RateLimit(limiter))
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.Cfg.JWTSecret))
	auth.GET("/me", usersHandler.Me)

	// Subscribed users: the gate the record endpoints sit behind
	subscribed := auth.Group("/")
	subscribed.Use(middleware.RequireActiveSubscription(d.Store))
	subscribed.GET("/access", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "active"})
	})

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.Cfg.JWTSecret), middleware.RequireRole("admin"))
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/webhook-events", adminHandler.ListWebhookEvents)
	admin.GET("/webhook-errors", adminHandler.ListWebhookErrors)
	admin.POST("/webhook-errors/:id/replay", adminHandler.ReplayWebhookError)
	admin.POST("/sync-plans", plansHandler.SyncPlans)
}
