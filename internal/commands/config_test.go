package commands

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/chatdeck/internal/api"
	"github.com/diogo/chatdeck/internal/config"
)

func TestConfigCommand(t *testing.T) {
	if configCmd.Use != "config" {
		t.Errorf("Expected use 'config', got %s", configCmd.Use)
	}
	if !strings.Contains(configCmd.Long, "default_model") {
		t.Error("Long description should list the keys")
	}
	for _, sub := range []string{"show", "get", "set", "path"} {
		found := false
		for _, cmd := range configCmd.Commands() {
			if cmd.Name() == sub {
				found = true
			}
		}
		if !found {
			t.Errorf("Subcommand %s not found", sub)
		}
	}
}

func TestConfigSetGet(t *testing.T) {
	setupTest(t, &api.MockClient{})

	out, err := execute(t, "", "config", "set", "storage_quota_bytes", "8MiB")
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(out, "storage_quota_bytes = 8388608") {
		t.Errorf("set output = %q", out)
	}

	out, err = execute(t, "", "config", "get", "storage_quota_bytes")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if strings.TrimSpace(out) != "8388608" {
		t.Errorf("get output = %q", out)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageQuotaBytes != 8<<20 {
		t.Errorf("saved quota = %d", cfg.StorageQuotaBytes)
	}

	if _, err := execute(t, "", "config", "set", "api_key", "secret"); err == nil {
		t.Error("unknown keys should be rejected")
	}
	if _, err := execute(t, "", "config", "set", "verbose", "maybe"); err == nil {
		t.Error("invalid booleans should be rejected")
	}
}

func TestConfigShowAndPath(t *testing.T) {
	setupTest(t, &api.MockClient{})

	out, err := execute(t, "", "config", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"default_model", "gpt-4o", "markdown.style", "$" + config.DefaultAPIKeyEnv, "missing"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	t.Setenv(config.DefaultAPIKeyEnv, "sk-test")
	out, _ = execute(t, "", "config")
	if strings.Contains(out, "sk-test") {
		t.Error("the API key must never be printed")
	}
	if strings.Contains(out, "missing") {
		t.Errorf("key state should read set:\n%s", out)
	}

	out, err = execute(t, "", "config", "path")
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	if filepath.Base(strings.TrimSpace(out)) != "config.json" {
		t.Errorf("path = %q", out)
	}
}
