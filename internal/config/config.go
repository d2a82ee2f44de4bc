package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	EventsInline  = "inline"
	EventsChannel = "channel"
	EventsRedis   = "redis"
	EventsKafka   = "kafka"
)

type Config struct {
	AppName  string
	LogLevel string
	HTTPAddr string

	StoreBackend string
	PostgresDSN  string

	EventBackend       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	KafkaBrokers       []string
	KafkaConsumerGroup string

	SeatRows    int
	SeatColumns int
	SeedRoutes  bool
}

// Load lê o arquivo .env, se existir, e depois as variáveis de ambiente.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		AppName:            getEnv("APP_NAME", "seatbooking"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		EventBackend:       strings.ToLower(getEnv("EVENT_BACKEND", EventsChannel)),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "seatbooking"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SeatRows, err = getInt("SEAT_ROWS", 7); err != nil {
		return nil, err
	}
	if cfg.SeatColumns, err = getInt("SEAT_COLUMNS", 5); err != nil {
		return nil, err
	}
	if cfg.SeedRoutes, err = getBool("SEED_ROUTES", true); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.SeatRows < 1 || c.SeatColumns < 1 {
		return fmt.Errorf("seat geometry must be positive, got %dx%d", c.SeatRows, c.SeatColumns)
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_BACKEND=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.EventBackend {
	case EventsInline, EventsChannel, EventsRedis:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENT_BACKEND=%s", EventsKafka)
		}
	default:
		return fmt.Errorf("unknown EVENT_BACKEND %q", c.EventBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, raw)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q", key, raw)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
