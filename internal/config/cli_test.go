package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CLIOverridesEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pori.yaml")
	if err := os.WriteFile(configPath, []byte("url: ws://file.example\ntoken: file-token\nport: 1111\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORI_TOKEN", "env-token")
	t.Setenv("PORI_PORT", "2222")

	args := []string{"pori", "--config", configPath, "--port", "3333"}
	opts, err := Load(args)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	assertEqual(t, "URL", opts.URL, "ws://file.example")  // file only
	assertEqual(t, "Token", opts.Token, "env-token")       // env overrides file
	assertEqual(t, "Port", opts.Port, 3333)                // CLI overrides env+file
}

func TestLoad_ValidationFailureReturnsConfigError(t *testing.T) {
	args := []string{"pori"}
	_, err := Load(args)
	if err == nil {
		t.Fatal("expected validation error for missing url/token")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
}
