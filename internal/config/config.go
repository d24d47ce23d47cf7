// Package config loads runtime settings from the environment with
// sensible defaults, so the binary runs out of the box.
package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config carries the business and wiring settings for the storefront.
type Config struct {
	HTTPPort  string
	RedisAddr string

	// Business rules for checkout totals.
	TaxRatePercent        decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	BaseShippingCost      decimal.Decimal
	ShippingRatePercent   decimal.Decimal
	OrderNumberPrefix     string

	// Limits.
	MaxLineQuantity     int
	MaxAddressesPerUser int

	// SeedDemoData loads a small demo catalog at startup.
	SeedDemoData bool
}

// Load reads the environment. Unset or unparseable values fall back to
// the defaults.
func Load() Config {
	return Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		RedisAddr: getEnv("REDIS_ADDR", ""),

		TaxRatePercent:        getDecimal("TAX_RATE_PERCENT", "19"),
		FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", "100.00"),
		BaseShippingCost:      getDecimal("BASE_SHIPPING_COST", "5.00"),
		ShippingRatePercent:   getDecimal("SHIPPING_RATE_PERCENT", "2"),
		OrderNumberPrefix:     getEnv("ORDER_NUMBER_PREFIX", "ORD-"),

		MaxLineQuantity:     getInt("MAX_LINE_QUANTITY", 99),
		MaxAddressesPerUser: getInt("MAX_ADDRESSES_PER_USER", 10),

		SeedDemoData: getEnv("SEED_DEMO_DATA", "") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultValue)
}
