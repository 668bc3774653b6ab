package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"TWIN_PORT", "TWIN_BIND", "TWIN_DT_MS", "TWIN_WARMUP_STEPS", "TWIN_DAMAGE_MODEL", "TWIN_AUDIT_REDIS_ADDR", "TWIN_METRICS_ADDR"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		if had {
			t.Cleanup(func(k, v string) func() { return func() { os.Setenv(k, v) } }(k, old))
		}
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 5020 {
		t.Errorf("Port = %v, want 5020", cfg.Port)
	}
	if cfg.Bind != "0.0.0.0" {
		t.Errorf("Bind = %v, want 0.0.0.0", cfg.Bind)
	}
	if cfg.DtMillis != 1000 {
		t.Errorf("DtMillis = %v, want 1000", cfg.DtMillis)
	}
	if cfg.WarmupSteps != 900 {
		t.Errorf("WarmupSteps = %v, want 900", cfg.WarmupSteps)
	}
	if !cfg.DamageModel {
		t.Errorf("DamageModel = false, want true by default")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("TWIN_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric TWIN_PORT")
	}
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	t.Setenv("TWIN_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range TWIN_PORT")
	}
}

func TestLoadRejectsEmptyBind(t *testing.T) {
	t.Setenv("TWIN_BIND", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for explicitly empty TWIN_BIND")
	}
}

func TestLoadParsesDamageModelFlag(t *testing.T) {
	t.Setenv("TWIN_DAMAGE_MODEL", "false")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DamageModel {
		t.Error("expected DamageModel = false when TWIN_DAMAGE_MODEL=false")
	}
}

func TestLoadRejectsMalformedDamageModelFlag(t *testing.T) {
	t.Setenv("TWIN_DAMAGE_MODEL", "maybe")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed TWIN_DAMAGE_MODEL")
	}
}
