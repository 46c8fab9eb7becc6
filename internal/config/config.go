package config

import (
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port              string
	StoreBackend      string // sqlite | redis
	DBDSN             string
	RedisAddr         string
	CartTTL           time.Duration
	MenuFile          string
	TemplatesDir      string
	LogFile           string
	KafkaBrokers      []string
	KafkaTopic        string
	OrderWriteTimeout time.Duration
	OrderReadTimeout  time.Duration
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] ignoring %s=%q: %v", key, v, err)
		return def
	}
	return d
}

func Load() Config {
	backend := strings.ToLower(env("STORE_BACKEND", "sqlite"))
	if backend != "sqlite" && backend != "redis" {
		log.Printf("[config] unknown STORE_BACKEND=%q, using sqlite", backend)
		backend = "sqlite"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	cfg := Config{
		Port:              env("PORT", "8080"),
		StoreBackend:      backend,
		DBDSN:             env("DB_DSN", "cafe.db"), // sqlite file in project root
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		CartTTL:           duration("CART_TTL", 2*time.Hour),
		MenuFile:          env("MENU_FILE", "./data/menu.yaml"),
		TemplatesDir:      env("TEMPLATES_DIR", "./web/templates"),
		LogFile:           os.Getenv("LOG_FILE"),
		KafkaBrokers:      brokers,
		KafkaTopic:        env("KAFKA_TOPIC", "cafe.orders"),
		OrderWriteTimeout: duration("ORDER_WRITE_TIMEOUT", 10*time.Second),
		OrderReadTimeout:  duration("ORDER_READ_TIMEOUT", 3*time.Second),
	}
	log.Printf("[config] PORT=%s STORE_BACKEND=%s DB_DSN=%s REDIS_ADDR=%s MENU_FILE=%s LOG_FILE=%s KAFKA_BROKERS=%v",
		cfg.Port, cfg.StoreBackend, cfg.DBDSN, cfg.RedisAddr, cfg.MenuFile, cfg.LogFile, cfg.KafkaBrokers)
	return cfg
}
