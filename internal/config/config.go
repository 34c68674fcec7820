package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort string // Application port
	IsProd  bool   // Is production environment

	DBDriver         string        // mysql, postgres or sqlite
	DBUser           string        // Database user
	DBPassword       string        // Database password
	DBHost           string        // Database host
	DBPort           string        // Database port
	DBName           string        // Database name
	DBSSLMode        string        // Postgres sslmode
	DBDSN            string        // Full DSN override (sqlite file path)
	DBRetryAttempts  int           // Attempts for transient storage failures
	DBRetryDelay     time.Duration // First backoff delay, doubled per attempt
	DBHealthInterval time.Duration // Interval of the background ping

	RedisAddr string        // Redis server address, empty disables caching
	RedisPass string        // Redis password
	RedisDB   int           // Redis database number
	CacheTTL  time.Duration // Listing cache TTL

	JWTSecret string // JWT secret key, empty disables token parsing
	DevUserID string // Identity injected when no token is presented

	RequestExpiry time.Duration // Age after which an active request expires
	SweepInterval time.Duration // Interval of the expiry sweep

	LogLevel    string   // Logrus level
	LogFile     string   // Rotating log file, empty logs to stdout
	CORSOrigins []string // Allowed CORS origins, empty allows any
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),     // Application port
		IsProd:  os.Getenv("IS_PROD") == "true", // Is production environment

		DBDriver:         getEnv("DB_DRIVER", "mysql"),                         // Database driver
		DBUser:           os.Getenv("DB_USER"),                                 // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),                             // Database password
		DBHost:           getEnv("DB_HOST", "localhost"),                       // Database host
		DBPort:           os.Getenv("DB_PORT"),                                 // Database port
		DBName:           getEnv("DB_NAME", "rideshare"),                       // Database name
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),                      // Postgres sslmode
		DBDSN:            os.Getenv("DB_DSN"),                                  // DSN override
		DBRetryAttempts:  getEnvInt("DB_RETRY_ATTEMPTS", 3),                    // Retry attempts
		DBRetryDelay:     getEnvDuration("DB_RETRY_DELAY", time.Second),        // Base backoff
		DBHealthInterval: getEnvDuration("DB_HEALTH_INTERVAL", 30*time.Second), // Health check interval

		RedisAddr: os.Getenv("REDIS_ADDR"),                     // Redis server address
		RedisPass: os.Getenv("REDIS_PASS"),                     // Redis password
		RedisDB:   getEnvInt("REDIS_DB", 0),                    // Redis database number
		CacheTTL:  getEnvDuration("CACHE_TTL", 60*time.Second), // Cache TTL

		JWTSecret: os.Getenv("JWT_SECRET"),                                       // JWT secret key
		DevUserID: getEnv("DEV_USER_ID", "a1234567-1234-1234-1234-123456789abc"), // Fixed identity

		RequestExpiry: time.Duration(getEnvInt("REQUEST_EXPIRY_HOURS", 24)) * time.Hour,       // Expiry window
		SweepInterval: time.Duration(getEnvInt("AUTO_CLEANUP_INTERVAL_HOURS", 1)) * time.Hour, // Sweep interval

		LogLevel:    getEnv("LOG_LEVEL", "info"),          // Log level
		LogFile:     os.Getenv("LOG_FILE"),                // Log file
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")), // CORS origins
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt reads an integer environment variable, falling back on empty or bad input
func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration reads a duration such as "1s" or "500ms". Zero and
// negative values fall back to the default.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
