// Package config loads runtime settings from the environment (and an optional .env file).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Audit sink selectors.
const (
	AuditSinkDB    = "db"
	AuditSinkKafka = "kafka"
)

type Config struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	DSN               string        `envconfig:"DB_DSN_PRIMARY" default:"root:root@tcp(127.0.0.1:3306)/pharmastore?parseTime=true"`
	MaxOpenConns      int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	JWTSecret         string        `envconfig:"JWT_SECRET" default:"change-me"`
	JWTTTL            time.Duration `envconfig:"JWT_TTL" default:"72h"`
	CORSAllowedOrigin string        `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`

	// Flat shipping fees, decimal strings.
	CourierFee string `envconfig:"SHIPPING_COURIER_FEE" default:"20.00"`
	CargoFee   string `envconfig:"SHIPPING_CARGO_FEE" default:"10.00"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	AuditSink       string `envconfig:"AUDIT_SINK" default:"db"`
	KafkaBrokers    string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaAuditTopic string `envconfig:"KAFKA_AUDIT_TOPIC" default:"pharmastore.audit"`

	// Empty disables the X-Callback-Token check.
	PaymentCallbackSecret string `envconfig:"PAYMENT_CALLBACK_SECRET" default:""`

	UnpaidOrderTTL       time.Duration `envconfig:"UNPAID_ORDER_TTL" default:"24h"`
	OverdueSweepInterval time.Duration `envconfig:"OVERDUE_SWEEP_INTERVAL" default:"1h"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	// a missing .env file is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := decimal.NewFromString(c.CourierFee); err != nil {
		return fmt.Errorf("SHIPPING_COURIER_FEE: %w", err)
	}
	if _, err := decimal.NewFromString(c.CargoFee); err != nil {
		return fmt.Errorf("SHIPPING_CARGO_FEE: %w", err)
	}
	switch c.AuditSink {
	case AuditSinkDB, AuditSinkKafka:
	default:
		return fmt.Errorf("AUDIT_SINK must be %q or %q, got %q", AuditSinkDB, AuditSinkKafka, c.AuditSink)
	}
	return nil
}

// Brokers splits KAFKA_BROKERS on commas.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ShippingFees returns the parsed courier and cargo fees. Load has already validated them.
func (c *Config) ShippingFees() (courier, cargo decimal.Decimal) {
	courier, _ = decimal.NewFromString(c.CourierFee)
	cargo, _ = decimal.NewFromString(c.CargoFee)
	return courier, cargo
}
