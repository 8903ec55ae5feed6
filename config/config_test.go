package config

import "testing"

func TestDefaultHonoredWhenAbsent(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("Parse(nil) = %+v, want default %+v", cfg, want)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]string{"-plancache-size=0", "-compat-mysql"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.PlanCacheSize != 0 {
		t.Errorf("PlanCacheSize = %d, want 0", cfg.PlanCacheSize)
	}
	if cfg.Compat != CompatMySQL {
		t.Errorf("Compat = %v, want CompatMySQL", cfg.Compat)
	}
}

func TestOracleCompatSetsEmptyStringSemantics(t *testing.T) {
	cfg, err := Parse([]string{"-compat-oracle"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cfg.OracleStyleEmptyString {
		t.Error("compat-oracle should imply OracleStyleEmptyString")
	}
}
