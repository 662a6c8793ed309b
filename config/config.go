package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries every secret and endpoint the app needs. It is built once
// at startup and handed to each component, never read from the environment
// after that.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string

	AppURL     string
	CORSOrigin string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPPassword string

	DiscordWebhookURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: mustEnv("DB_URL"),
		JWTSecret:   mustEnv("JWT_SECRET"),

		StripeSecretKey:     mustEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),

		AppURL:     getEnv("APP_URL", "http://localhost:5173"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
	}
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
