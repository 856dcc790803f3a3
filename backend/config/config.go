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
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret string
	JWTExpiry time.Duration

	ServerPort     string
	LogMode        string
	CORSOrigins    string
	RequestTimeout time.Duration
	// LoginRateLimit is requests per minute per IP on login/register. 0 disables the limiter.
	LoginRateLimit int

	FileStorage string // local, gcs
	UploadDir   string
	GCSBucket   string
	MaxFileSize int64
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learning_platform"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "learnhub.db"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 30*24*time.Hour),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogMode:        getEnv("LOG_MODE", "dev"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 5),

		FileStorage: strings.ToLower(getEnv("FILE_STORAGE", "local")),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		GCSBucket:   getEnv("GCS_BUCKET", ""),
		MaxFileSize: int64(getEnvInt("MAX_FILE_SIZE", 10*1024*1024)),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
