package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string
	DBUrl    string

	JWTSecret         string
	AccessTokenExpiry time.Duration

	AllowedOrigin string

	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration

	// Object Storage (proof-of-delivery photos)
	StorageEndpoint      string
	StorageRegion        string
	StorageAccessKey     string
	StorageAccessSecret  string
	StorageBucketName    string
	StoragePublicURL     string
	StorageUploadTimeout time.Duration

	// Upload Configuration
	MaxUploadSizeMB int64

	// Cache
	CacheOrderTTL time.Duration

	// Kafka order events (optional; disabled when brokers is empty)
	KafkaBrokers []string
	KafkaTopic   string

	// Business Rules
	DeliveryFees  map[string]float64 // zone key -> fee
	TaxRate       float64
	DefaultETAMin int // minutes added to created_at for the delivery estimate
}

func LoadConfig() *Config {
	// A specific config file can be requested via env var; otherwise fall back
	// to .env for local dev. In container environments neither may exist and
	// we rely on system env vars.
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DBUrl:    getEnv("DB_DSN", ""),

		JWTSecret:         getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AccessTokenExpiry: getDurationEnv("ACCESS_TOKEN_EXPIRY", time.Hour*24),

		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		StorageEndpoint:      getEnv("STORAGE_ENDPOINT", ""),
		StorageRegion:        getEnv("STORAGE_REGION", "auto"),
		StorageAccessKey:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
		StorageAccessSecret:  getEnv("STORAGE_ACCESS_KEY_SECRET", ""),
		StorageBucketName:    getEnv("STORAGE_BUCKET_NAME", ""),
		StoragePublicURL:     getEnv("STORAGE_PUBLIC_URL", ""),
		StorageUploadTimeout: getDurationEnv("STORAGE_UPLOAD_TIMEOUT", 30*time.Second),

		MaxUploadSizeMB: getInt64Env("MAX_UPLOAD_SIZE_MB", 10),

		CacheOrderTTL: getDurationEnv("CACHE_ORDER_TTL", 2*time.Minute),

		KafkaBrokers: getSliceEnv("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "order-events"),

		TaxRate:       getFloatEnv("TAX_RATE", 0.12),
		DefaultETAMin: getIntEnv("DEFAULT_ETA_MINUTES", 45),
	}

	// Flat two-zone fee table; refine per-barangay pricing lives with ops.
	cfg.DeliveryFees = map[string]float64{
		"inside_city":  getFloatEnv("DELIVERY_FEE_INSIDE", 49),
		"outside_city": getFloatEnv("DELIVERY_FEE_OUTSIDE", 89),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.DBUrl == "" {
		log.Fatal("CRITICAL: DB_DSN environment variable is required")
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid int64 for %s, using fallback", key)
	}
	return fallback
}

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}

func getSliceEnv(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
