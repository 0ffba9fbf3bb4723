package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	AppEnv   string `validate:"oneof=development staging production"`
	LogLevel string

	DBUser     string `validate:"required"`
	DBPassword string
	DBName     string `validate:"required"`
	DBHost     string `validate:"required"`
	DBPort     string `validate:"required,numeric"`

	RedisHost     string `validate:"required"`
	RedisPort     string `validate:"required,numeric"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	BotToken        string `validate:"required"`
	ChannelUsername string `validate:"required,startswith=@"`
	ChannelURL      string `validate:"required,url"`

	MetricsAddr         string
	MetricsAllowedCIDRs []string `validate:"dive,cidr"`

	LeaderboardSize     int           `validate:"gt=0,lte=100"`
	LeaderboardCacheTTL time.Duration `validate:"gte=0"`
	StatsInterval       time.Duration `validate:"gt=0"`
	RequestTimeout      time.Duration `validate:"gt=0"`
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	channel := getEnv("CHANNEL_USERNAME", "@testerantony")

	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "referral_bot"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChannelUsername: channel,
		ChannelURL:      getEnv("CHANNEL_URL", "https://t.me/"+strings.TrimPrefix(channel, "@")),

		MetricsAddr:         getEnv("METRICS_ADDR", ":9090"),
		MetricsAllowedCIDRs: getEnvList("METRICS_ALLOWED_CIDRS", []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}),

		LeaderboardSize:     getEnvInt("LEADERBOARD_SIZE", 10),
		LeaderboardCacheTTL: getEnvDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
		StatsInterval:       getEnvDuration("STATS_INTERVAL", time.Minute),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// Validate reports the first group of invalid settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid integer %q, using default %d", value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using default %s", value, fallback)
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
