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
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	DBAutoMigrate bool
	AppURL        string

	// Auth
	JWTSecret      string
	GoogleClientID string
	SignupCredits  int

	// Social platforms
	InstagramClientID     string
	InstagramClientSecret string
	FacebookClientID      string
	FacebookClientSecret  string
	LinkedInClientID      string
	LinkedInClientSecret  string
	InstagramAPIBase      string
	InstagramGraphBase    string
	FacebookWWWBase       string
	FacebookGraphBase     string
	LinkedInWWWBase       string
	LinkedInAPIBase       string
	TokenEncryptionKey    string

	// n8n webhooks
	N8NGenerateURL   string
	N8NMagicSyncURL  string
	N8NPublishURL    string
	N8NTimeoutSecond int

	// Caption drafting
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	// Payment
	PaymentMode           string // simulated, razorpay
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayAPIBase       string
	UPIVPA                string
	UPIPayeeName          string
	PlansFile             string

	// Storage
	StorageProvider     string // local, supabase, s3, cloudinary
	StorageLocalPath    string
	StoragePublicURL    string
	StorageBucket       string
	SupabaseURL         string
	SupabaseS3Endpoint  string
	SupabaseS3Region    string
	SupabaseS3AccessKey string
	SupabaseS3SecretKey string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Publishing
	PublishCron    string
	PublishWorkers int
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		Port:        os.Getenv("PORT"),
		Env:         os.Getenv("ENV"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),
		SignupCredits:  envInt("SIGNUP_CREDITS", 2),

		InstagramClientID:     os.Getenv("INSTAGRAM_CLIENT_ID"),
		InstagramClientSecret: os.Getenv("INSTAGRAM_CLIENT_SECRET"),
		FacebookClientID:      os.Getenv("FACEBOOK_CLIENT_ID"),
		FacebookClientSecret:  os.Getenv("FACEBOOK_CLIENT_SECRET"),
		LinkedInClientID:      os.Getenv("LINKEDIN_CLIENT_ID"),
		LinkedInClientSecret:  os.Getenv("LINKEDIN_CLIENT_SECRET"),
		InstagramAPIBase:      envOr("INSTAGRAM_API_BASE", "https://api.instagram.com"),
		InstagramGraphBase:    envOr("INSTAGRAM_GRAPH_BASE", "https://graph.instagram.com"),
		FacebookWWWBase:       envOr("FACEBOOK_WWW_BASE", "https://www.facebook.com"),
		FacebookGraphBase:     envOr("FACEBOOK_GRAPH_BASE", "https://graph.facebook.com"),
		LinkedInWWWBase:       envOr("LINKEDIN_WWW_BASE", "https://www.linkedin.com"),
		LinkedInAPIBase:       envOr("LINKEDIN_API_BASE", "https://api.linkedin.com"),
		TokenEncryptionKey:    os.Getenv("TOKEN_ENCRYPTION_KEY"),

		N8NGenerateURL:   os.Getenv("N8N_GENERATE_URL"),
		N8NMagicSyncURL:  os.Getenv("N8N_MAGIC_SYNC_URL"),
		N8NPublishURL:    os.Getenv("N8N_PUBLISH_URL"),
		N8NTimeoutSecond: envInt("N8N_TIMEOUT_SECONDS", 30),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),

		PaymentMode:           envOr("PAYMENT_MODE", "simulated"),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		RazorpayAPIBase:       envOr("RAZORPAY_API_BASE", "https://api.razorpay.com"),
		UPIVPA:                os.Getenv("UPI_VPA"),
		UPIPayeeName:          envOr("UPI_PAYEE_NAME", "Addinfi Digitech"),
		PlansFile:             os.Getenv("PLANS_FILE"),

		StorageProvider:     envOr("STORAGE_PROVIDER", "local"),
		StorageLocalPath:    envOr("STORAGE_LOCAL_PATH", "./uploads"),
		StoragePublicURL:    os.Getenv("STORAGE_PUBLIC_URL"),
		StorageBucket:       envOr("STORAGE_BUCKET", "brand-logos"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseS3Endpoint:  os.Getenv("SUPABASE_S3_ENDPOINT"),
		SupabaseS3Region:    envOr("SUPABASE_S3_REGION", "us-east-1"),
		SupabaseS3AccessKey: os.Getenv("SUPABASE_S3_ACCESS_KEY"),
		SupabaseS3SecretKey: os.Getenv("SUPABASE_S3_SECRET_KEY"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		PublishCron:    envOr("PUBLISH_CRON", "0 * * * * *"),
		PublishWorkers: envInt("PUBLISH_WORKERS", 2),
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.DBAutoMigrate = envBool("DB_AUTO_MIGRATE", cfg.IsDevelopment())
	cfg.AppURL = resolveAppURL()

	return cfg
}

// IsDevelopment reports whether the service runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate reports settings that must be present outside development
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in %s", c.Env)
	}
	if c.PaymentMode == "razorpay" && (c.RazorpayKeyID == "" || c.RazorpayKeySecret == "") {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for razorpay payment mode")
	}
	return nil
}

// OAuthRedirectURL is the callback registered with every social platform
func (c *Config) OAuthRedirectURL() string {
	return c.AppURL + "/api/oauth/callback"
}

// resolveAppURL picks the public base URL: the Vercel deployment host,
// then an explicit APP_URL, then localhost.
func resolveAppURL() string {
	if host := os.Getenv("VERCEL_URL"); host != "" {
		return "https://" + strings.TrimSuffix(host, "/")
	}
	for _, key := range []string{"APP_URL", "NEXT_PUBLIC_APP_URL"} {
		if v := os.Getenv(key); v != "" {
			return strings.TrimSuffix(v, "/")
		}
	}
	return "http://localhost:3000"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
