// Package config parses the twin daemon's environment-variable
// configuration surface (spec.md §6). The executable takes no required
// arguments; every knob has a documented default and is validated at
// startup, in the same defensive-clamping spirit as the teacher's flag
// parsing in cmd/ratelimiter-api/main.go, adapted from flags to env vars
// since the spec's external interface names only TWIN_* variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every environment-configurable knob.
type Config struct {
	Port         int    // TWIN_PORT, default 5020
	Bind         string // TWIN_BIND, default 0.0.0.0
	DtMillis     int    // TWIN_DT_MS, default 1000
	WarmupSteps  int    // TWIN_WARMUP_STEPS, default 900
	DamageModel  bool   // TWIN_DAMAGE_MODEL, default true
	AuditRedis   string // TWIN_AUDIT_REDIS_ADDR, default "" (disabled)
	MetricsAddr  string // TWIN_METRICS_ADDR, default "" (disabled)
}

// Load reads and validates configuration from the environment. It returns
// an error describing exactly which variable was malformed; the caller is
// expected to treat any error as fatal (spec.md §7: "Configuration errors
// ... fatal at startup, surface clear message, exit non-zero").
func Load() (Config, error) {
	cfg := Config{
		Port:        5020,
		Bind:        "0.0.0.0",
		DtMillis:    1000,
		WarmupSteps: 900,
		DamageModel: true,
	}

	if v, ok := os.LookupEnv("TWIN_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return Config{}, fmt.Errorf("config: TWIN_PORT must be a port in [1,65535], got %q", v)
		}
		cfg.Port = n
	}

	if v, ok := os.LookupEnv("TWIN_BIND"); ok {
		if v == "" {
			return Config{}, fmt.Errorf("config: TWIN_BIND must not be empty")
		}
		cfg.Bind = v
	}

	if v, ok := os.LookupEnv("TWIN_DT_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: TWIN_DT_MS must be a positive integer, got %q", v)
		}
		cfg.DtMillis = n
	}

	if v, ok := os.LookupEnv("TWIN_WARMUP_STEPS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("config: TWIN_WARMUP_STEPS must be a non-negative integer, got %q", v)
		}
		cfg.WarmupSteps = n
	}

	if v, ok := os.LookupEnv("TWIN_DAMAGE_MODEL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: TWIN_DAMAGE_MODEL must be a boolean, got %q", v)
		}
		cfg.DamageModel = b
	}

	cfg.AuditRedis = os.Getenv("TWIN_AUDIT_REDIS_ADDR")
	cfg.MetricsAddr = os.Getenv("TWIN_METRICS_ADDR")

	return cfg, nil
}
