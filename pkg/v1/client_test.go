package v1

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/askdoc/askdoc/internal"
)

func writeConfig(t *testing.T, cfg *internal.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "askdoc.yaml")
	if err := internal.SaveConfig(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdoc.yaml")
	if err := os.WriteFile(path, []byte("retrieval:\n  k: -1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := New(context.Background(), WithConfigFile(path))
	if !errors.Is(err, internal.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewRequiresEmbedderAPIKey(t *testing.T) {
	cfg := internal.DefaultConfig()
	cfg.Embedder.APIKeyEnv = "ASKDOC_TEST_MISSING_KEY"
	t.Setenv("ASKDOC_TEST_MISSING_KEY", "")

	_, err := New(context.Background(), WithConfigFile(writeConfig(t, cfg)))
	if !errors.Is(err, internal.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing API key, got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := internal.DefaultConfig()
	cfg.Embedder.APIKeyEnv = "ASKDOC_TEST_KEY"
	cfg.Index.Path = t.TempDir()
	cfg.Generator.Provider = "llamacpp"
	t.Setenv("ASKDOC_TEST_KEY", "test-key")

	_, err := New(context.Background(), WithConfigFile(writeConfig(t, cfg)))
	if !errors.Is(err, internal.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown provider, got %v", err)
	}
}
