package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		"HLALOCUS_LOG_LEVEL":     "debug",
		"HLALOCUS_NPROC":         "8",
		"HLALOCUS_FASTA_WIDTH":   "not-a-number",
		"HLALOCUS_KEYSTORE":      "postgres://localhost/hla",
		"HLALOCUS_S3_PATH_STYLE": "TRUE",
		"HLALOCUS_NORMALIZE":     "identity",
	}
	cfg := FromEnv(func(key string) string { return env[key] })

	if cfg.LogLevel != "debug" || cfg.Nproc != 8 || cfg.Keystore != "postgres://localhost/hla" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.FastaWidth != 60 {
		t.Errorf("Invalid width should keep the default, got %d", cfg.FastaWidth)
	}
	if cfg.Normalize != "identity" || cfg.LocusName != "first-field" {
		t.Errorf("Unexpected naming settings %q, %q", cfg.Normalize, cfg.LocusName)
	}
	if !cfg.S3PathStyle || cfg.S3Region != "us-east-1" || cfg.Blasr != "blasr" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("HLALOCUS_BLASR=/opt/smrt/blasr\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv("HLALOCUS_BLASR", "")
	os.Unsetenv("HLALOCUS_BLASR")

	cfg := Load(path)
	if cfg.Blasr != "/opt/smrt/blasr" {
		t.Errorf("Expected blasr from env file, got %q", cfg.Blasr)
	}
}
