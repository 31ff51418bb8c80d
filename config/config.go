package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects every tunable the pipeline and its collaborators read.
// Values come from the environment (.env in development); all pipeline
// tunables have working defaults so a bare environment still boots.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURL string

	JwtSecret []byte

	// Supplier / notification webhook endpoints (n8n-style).
	SupplierWebhookURL string
	NotifyWebhookURL   string

	// Stage evaluation tunables.
	StageTimeout time.Duration
	StageRetries int
	BackoffBase  time.Duration

	// Ordering agent catalog matching.
	SimilarityThreshold float64
	AmbiguityMargin     float64

	// Clarification inactivity timeout.
	ClarifyTimeout time.Duration

	// Prescription image storage.
	UploadDir string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	return &Config{
		Port:     port,
		MongoURI: envStr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:  envStr("MONGODB_DB_NAME", "mediloon"),
		RedisURL: envStr("REDIS_URL", "redis://localhost:6379/0"),

		JwtSecret: []byte(envStr("JWT_SECRET", "dev_secret_change_me")),

		SupplierWebhookURL: os.Getenv("SUPPLIER_WEBHOOK_URL"),
		NotifyWebhookURL:   os.Getenv("NOTIFY_WEBHOOK_URL"),

		StageTimeout: envDur("STAGE_TIMEOUT", 10*time.Second),
		StageRetries: envInt("STAGE_RETRIES", 3),
		BackoffBase:  envDur("STAGE_BACKOFF_BASE", 200*time.Millisecond),

		SimilarityThreshold: envFloat("SIMILARITY_THRESHOLD", 0.72),
		AmbiguityMargin:     envFloat("AMBIGUITY_MARGIN", 0.08),

		ClarifyTimeout: envDur("CLARIFY_TIMEOUT", 30*time.Minute),

		UploadDir: envStr("UPLOAD_DIR", "static/prescriptions"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid %s=%q, using default %v", key, v, def)
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid %s=%q, using default %v", key, v, def)
	}
	return def
}
