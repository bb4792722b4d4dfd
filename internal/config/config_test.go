package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("Defaults do not validate: %v", err)
	}
	if cfg.Scanner.MinConfidence != 0.7 {
		t.Errorf("Default min confidence = %g", cfg.Scanner.MinConfidence)
	}
	if cfg.Security.Mode != "block" {
		t.Errorf("Default security mode = %q", cfg.Security.Mode)
	}
}

func TestLoad(t *testing.T) {
	t.Run("FileOverridesDefaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9191
scanner:
  min_confidence: 0.85
security:
  mode: log
settings:
  source: static
  static:
    acme:
      scan_enabled: true
      scan_level: strict
      auto_anonymize: true
      custom_patterns:
        - name: employee_id
          pattern: '\bEMP-\d{5}\b'
          level: standard
          confidence: 0.9
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Server.Port != 9191 {
			t.Errorf("Port = %d", cfg.Server.Port)
		}
		if cfg.Scanner.MinConfidence != 0.85 {
			t.Errorf("MinConfidence = %g", cfg.Scanner.MinConfidence)
		}
		if cfg.Security.Mode != "log" {
			t.Errorf("Mode = %q", cfg.Security.Mode)
		}

		identity, ok := cfg.Settings.Static["acme"]
		if !ok {
			t.Fatal("Static identity missing")
		}
		if identity.ScanLevel != "strict" || !identity.AutoAnonymize {
			t.Errorf("Identity settings = %+v", identity)
		}
		if len(identity.CustomPatterns) != 1 || identity.CustomPatterns[0].Name != "employee_id" {
			t.Errorf("Custom patterns = %+v", identity.CustomPatterns)
		}

		// Untouched sections keep their defaults
		if cfg.Scanner.MaxWorkers != 4 {
			t.Errorf("MaxWorkers default lost: %d", cfg.Scanner.MaxWorkers)
		}
	})

	t.Run("InvalidSecurityModeRejected", func(t *testing.T) {
		path := writeConfig(t, "security:\n  mode: reject\n")
		if _, err := Load(path); err == nil {
			t.Fatal("Expected validation error for bad security mode")
		}
	})

	t.Run("InvalidConfidenceRejected", func(t *testing.T) {
		path := writeConfig(t, "scanner:\n  min_confidence: 1.5\n")
		if _, err := Load(path); err == nil {
			t.Fatal("Expected validation error for confidence above 1")
		}
	})

	t.Run("InvalidPortRejected", func(t *testing.T) {
		path := writeConfig(t, "server:\n  port: 70000\n")
		if _, err := Load(path); err == nil {
			t.Fatal("Expected validation error for bad port")
		}
	})
}
