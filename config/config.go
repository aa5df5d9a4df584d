package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port             string
	Env              string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	// Pricing policy. Tax and shipping are flat store-wide values; shipping is
	// waived once the subtotal reaches the free-shipping threshold.
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal

	CartTTL           time.Duration
	CartSweepInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
	}

	var err error
	if cfg.TaxRate, err = getDecimal("TAX_RATE", "0.0825"); err != nil {
		return nil, err
	}
	if cfg.ShippingFee, err = getDecimal("SHIPPING_FEE", "5.99"); err != nil {
		return nil, err
	}
	if cfg.FreeShippingThreshold, err = getDecimal("FREE_SHIPPING_THRESHOLD", "75"); err != nil {
		return nil, err
	}

	ttlDays, err := getInt("CART_TTL_DAYS", 30)
	if err != nil {
		return nil, err
	}
	cfg.CartTTL = time.Duration(ttlDays) * 24 * time.Hour

	sweep := getEnv("CART_SWEEP_INTERVAL", "1h")
	cfg.CartSweepInterval, err = time.ParseDuration(sweep)
	if err != nil {
		return nil, fmt.Errorf("invalid CART_SWEEP_INTERVAL %q: %w", sweep, err)
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDecimal(key, fallback string) (decimal.Decimal, error) {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
