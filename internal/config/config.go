// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers selectable through DATA_STORE, CHAT_STORE and BLOB_DRIVER.
const (
	DriverFirestore = "firestore"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverMongo     = "mongo"
	DriverSQL       = "sql"

	BlobDriverFirebase = "firebase"
	BlobDriverMinio    = "minio"
	BlobDriverLocal    = "local"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	PublicBaseURL      string        `mapstructure:"PUBLIC_BASE_URL"`
	CORSAllowedOrigins []string      `mapstructure:"-"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseWebAPIKey             string `mapstructure:"FIREBASE_WEB_API_KEY"`
	FirebaseStorageBucket         string `mapstructure:"FIREBASE_STORAGE_BUCKET"`

	// Document store selection
	DataStore string `mapstructure:"DATA_STORE"`
	ChatStore string `mapstructure:"CHAT_STORE"`

	// Relational database (DATA_STORE=postgres|sqlite)
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	SQLitePath        string        `mapstructure:"SQLITE_PATH"`

	// MongoDB (CHAT_STORE=mongo)
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Blob storage
	BlobDriver       string `mapstructure:"BLOB_DRIVER"`
	LocalStoragePath string `mapstructure:"LOCAL_STORAGE_PATH"`
	MinioEndpoint    string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey   string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey   string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket      string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL      bool   `mapstructure:"MINIO_USE_SSL"`

	// Redis (booking drafts, chat fan-out). Empty address keeps both in process.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Booking workflow
	BookingDraftTTL      time.Duration `mapstructure:"BOOKING_DRAFT_TTL_MINUTES"`
	BookingSubmitTimeout time.Duration `mapstructure:"BOOKING_SUBMIT_TIMEOUT_SECONDS"`
	ChatWriteTimeout     time.Duration `mapstructure:"CHAT_WRITE_TIMEOUT_SECONDS"`

	// Messaging. Empty URL disables event publishing.
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	AppointmentEventsQueue string `mapstructure:"APPOINTMENT_EVENTS_QUEUE"`

	// Elasticsearch Configuration. Empty URL disables directory search.
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`

	// Cron Jobs
	DirectoryIndexJobSchedule string `mapstructure:"DIRECTORY_INDEX_JOB_SCHEDULE"`

	// Rate limiting for write endpoints
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")

	v.SetDefault("DATA_STORE", DriverFirestore)
	v.SetDefault("CHAT_STORE", DriverFirestore)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "creative_cure")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("SQLITE_PATH", "creative_cure.db")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "creative_cure")

	v.SetDefault("BLOB_DRIVER", BlobDriverFirebase)
	v.SetDefault("LOCAL_STORAGE_PATH", "./uploads")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "creative-cure")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("BOOKING_DRAFT_TTL_MINUTES", 30)
	v.SetDefault("BOOKING_SUBMIT_TIMEOUT_SECONDS", 10)
	v.SetDefault("CHAT_WRITE_TIMEOUT_SECONDS", 10)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("APPOINTMENT_EVENTS_QUEUE", "appointment_events")

	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("DIRECTORY_INDEX_JOB_SCHEDULE", "@every 15m")

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.BookingDraftTTL = time.Duration(v.GetInt("BOOKING_DRAFT_TTL_MINUTES")) * time.Minute
	cfg.BookingSubmitTimeout = time.Duration(v.GetInt("BOOKING_SUBMIT_TIMEOUT_SECONDS")) * time.Second
	cfg.ChatWriteTimeout = time.Duration(v.GetInt("CHAT_WRITE_TIMEOUT_SECONDS")) * time.Second
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	switch c.DataStore {
	case DriverFirestore, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATA_STORE %q", c.DataStore)
	}
	switch c.ChatStore {
	case DriverFirestore, DriverMongo, DriverSQL:
	default:
		return fmt.Errorf("unsupported CHAT_STORE %q", c.ChatStore)
	}
	switch c.BlobDriver {
	case BlobDriverFirebase, BlobDriverMinio, BlobDriverLocal:
	default:
		return fmt.Errorf("unsupported BLOB_DRIVER %q", c.BlobDriver)
	}
	if c.ChatStore == DriverSQL && c.DataStore == DriverFirestore {
		return fmt.Errorf("CHAT_STORE=sql requires DATA_STORE=postgres or sqlite")
	}
	if c.BookingSubmitTimeout <= 0 {
		return fmt.Errorf("BOOKING_SUBMIT_TIMEOUT_SECONDS must be positive")
	}

	// Firebase Auth is always required; the key file also backs Firestore and Storage.
	if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
		return fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
	}
	if c.BlobDriver == BlobDriverFirebase && c.FirebaseStorageBucket == "" {
		return fmt.Errorf("FIREBASE_STORAGE_BUCKET is required when BLOB_DRIVER=firebase")
	}
	if c.BlobDriver == BlobDriverMinio && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when BLOB_DRIVER=minio")
	}
	return nil
}

// PostgresDSN builds the GORM postgres DSN from the individual DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
