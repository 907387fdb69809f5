package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default mode is worker", func(c *Config) bool { return c.Mode == "worker" }},
		{"default host is 0.0.0.0", func(c *Config) bool { return c.Host == "0.0.0.0" }},
		{"default port is 8080", func(c *Config) bool { return c.Port == 8080 }},
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }},
		{"default scheduler tick is 1h", func(c *Config) bool { return c.SchedulerTick == "1h" }},
		{"listen addr format", func(c *Config) bool { return c.ListenAddr() == "0.0.0.0:8080" }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("unexpected config value for %s", tt.name)
			}
		})
	}
}

func TestValidateRequiresStripeCredentials(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing stripe credentials")
	}

	cfg = &Config{
		StripeSecretKey:     "sk_test_x",
		StripeWebhookSecret: "whsec_x",
		StripePriceParentID: "price_parent",
		StripePriceChildID:  "price_child",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParentPriceIDFallsBackToPrincipal(t *testing.T) {
	cfg := &Config{StripePricePrincipalID: "price_legacy"}
	if cfg.ParentPriceID() != "price_legacy" {
		t.Fatalf("expected fallback to principal price id")
	}
}
