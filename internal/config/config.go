package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"strings" // For splitting list values
	"time"    // For session lifetime

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For the registration balance
	"github.com/sirupsen/logrus"    // For reporting unusable values
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // mysql, postgres or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	DBPath     string // SQLite database file
	JWTSecret  string // Session token signing secret
	SessionTTL time.Duration
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number

	EncryptionKey     string // Base64 asset encryption key
	EncryptionKeyFile string // Path of the durable key file

	DefaultBalance       decimal.Decimal // Balance given to new users
	AllowNegativeBalance bool            // Whether a Sell may push the balance below zero

	KafkaBrokers []string // Empty disables event publication
	KafkaTopic   string

	LoginRateLimit float64 // Auth requests per second per client
	LoginRateBurst int

	IsProd bool // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		DBPath:     getEnv("DB_PATH", "finance.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:  os.Getenv("REDIS_PASS"),
		RedisDB:    getInt("REDIS_DB", 0),

		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
		EncryptionKeyFile: os.Getenv("ENCRYPTION_KEY_FILE"),

		DefaultBalance:       getDecimal("DEFAULT_BALANCE", decimal.Zero),
		AllowNegativeBalance: getBool("ALLOW_NEGATIVE_BALANCE", true),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "investment_recorded"),

		LoginRateLimit: getFloat("LOGIN_RATE_LIMIT", 1),
		LoginRateBurst: getInt("LOGIN_RATE_BURST", 5),

		IsProd: os.Getenv("IS_PROD") == "true",
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
			" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=disable"
	case "sqlite":
		return c.DBPath
	default:
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// invalid reports a value that is set but does not parse; the fallback is used instead
func invalid(key, raw string, fallback any) {
	logrus.WithFields(logrus.Fields{
		"key":      key,
		"value":    raw,
		"fallback": fallback,
	}).Warn("Ignoring unparsable configuration value")
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		invalid(key, raw, fallback)
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		invalid(key, raw, fallback)
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		invalid(key, raw, fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		invalid(key, raw, fallback)
		return fallback
	}
	return v
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		invalid(key, raw, fallback.String())
		return fallback
	}
	return v
}

// splitList turns "a:9092, b:9092" into its non-empty parts
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
