package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	AppEnv             string
	DefaultPartition   string
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
	SendgridAPIKey     string
	MailFromName       string
	MailFromAddress    string
	PayPalClientID     string
	PayPalSecret       string
	PayPalLive         bool
	StripeSecretKey    string
	RequestTTLHours    int
	SweepSpec          string
	ReminderSpec       string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		DefaultPartition:   getEnv("DEFAULT_PARTITION", "default"),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SendgridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		MailFromName:       getEnv("MAIL_FROM_NAME", "Tutorbook"),
		MailFromAddress:    getEnv("MAIL_FROM_ADDRESS", "notifications@tutorbook.app"),
		PayPalClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalSecret:       getEnv("PAYPAL_SECRET", ""),
		PayPalLive:         getEnvBool("PAYPAL_LIVE", false),
		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		RequestTTLHours:    getEnvInt("REQUEST_TTL_HOURS", 168),
		SweepSpec:          getEnv("SWEEP_CRON_SPEC", "@every 15m"),
		ReminderSpec:       getEnv("REMINDER_CRON_SPEC", "0 16 * * *"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
