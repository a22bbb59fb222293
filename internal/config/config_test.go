package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUDIT_SINK", "db")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UnpaidOrderTTL != 24*time.Hour {
		t.Fatalf("ttl: %v", cfg.UnpaidOrderTTL)
	}
	courier, cargo := cfg.ShippingFees()
	if courier.String() != "20" || cargo.String() != "10" {
		t.Fatalf("fees: %s %s", courier, cargo)
	}
}

func TestLoad_RejectsUnknownSink(t *testing.T) {
	t.Setenv("AUDIT_SINK", "syslog")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}

func TestLoad_RejectsBadFee(t *testing.T) {
	t.Setenv("SHIPPING_CARGO_FEE", "ten")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for bad fee")
	}
}

func TestBrokers(t *testing.T) {
	cfg := Config{KafkaBrokers: "a:9092, b:9092,,"}
	got := cfg.Brokers()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("brokers: %v", got)
	}
}
