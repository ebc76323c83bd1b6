package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port    string
	BaseURL string
	GinMode string

	// StoreBackend is "firestore" or "memory".
	StoreBackend string

	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FirebaseAPIKey          string

	RedisHost     string
	RedisPassword string
	RedisDB       int

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	ImageURLTTL    time.Duration

	JWTSecret  string
	SessionTTL time.Duration

	TaxRate          decimal.Decimal
	CartMaxQuantity  int
	CartClearRemote  bool
	ProductsPageSize int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	ContactEmail string

	CORSOrigins []string
}

// LoadEnv reads .env when present; the process environment always wins.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		log.Println("⚠️  No .env file found, continuing with system environment variables")
		return
	}
	log.Println("✅ .env file loaded")
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:    getenvDefault("PORT", "8080"),
		BaseURL: strings.TrimRight(getenvDefault("BASE_URL", "http://localhost:3000"), "/"),
		GinMode: getenvDefault("GIN_MODE", "debug"),

		StoreBackend: strings.ToLower(getenvDefault("STORE_BACKEND", "firestore")),

		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirebaseAPIKey:          os.Getenv("FIREBASE_API_KEY"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    getenvDefault("ELASTIC_INDEX", "products"),

		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getenvDefault("MINIO_BUCKET", "products"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getenvDefault("MAIL_FROM", "no-reply@storefront.local"),
		ContactEmail: os.Getenv("CONTACT_EMAIL"),

		CORSOrigins: splitList(getenvDefault("CORS_ORIGINS", "http://localhost:3000")),
	}

	cfg.RedisDB = intEnv("REDIS_DB", 0, &errs)
	cfg.MinIOUseSSL = boolEnv("MINIO_USE_SSL", false, &errs)
	cfg.ImageURLTTL = durationEnv("IMAGE_URL_TTL", time.Hour, &errs)
	cfg.SessionTTL = durationEnv("SESSION_TTL", 24*time.Hour, &errs)
	cfg.CartMaxQuantity = intEnv("CART_MAX_QUANTITY", 10, &errs)
	cfg.CartClearRemote = boolEnv("CART_CLEAR_REMOTE", false, &errs)
	cfg.ProductsPageSize = intEnv("PRODUCTS_PAGE_SIZE", 12, &errs)
	cfg.SMTPPort = intEnv("SMTP_PORT", 587, &errs)

	rate, err := decimal.NewFromString(getenvDefault("TAX_RATE", "0.10"))
	if err != nil {
		errs = append(errs, fmt.Errorf("TAX_RATE: %w", err))
	}
	cfg.TaxRate = rate

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreBackend {
	case "memory":
	case "firestore":
		if c.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be firestore or memory, got %q", c.StoreBackend))
	}
	if c.CartMaxQuantity < 1 {
		errs = append(errs, errors.New("CART_MAX_QUANTITY must be at least 1"))
	}
	if c.ProductsPageSize < 1 {
		errs = append(errs, errors.New("PRODUCTS_PAGE_SIZE must be at least 1"))
	}
	if c.TaxRate.IsNegative() {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	return errors.Join(errs...)
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func boolEnv(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
