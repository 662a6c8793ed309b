package main

import (
	"time"

	"emsforge/config"
	"emsforge/database"
	routes "emsforge/internal/app/http"
	"emsforge/internal/infra/stripeapi"
	"emsforge/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	db := database.Init(cfg.DatabaseURL)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Cfg:    cfg,
		Store:  store.NewGormStore(db),
		Stripe: stripeapi.New(cfg.StripeSecretKey),
	})

	r.Run(":" + cfg.Port)
}
