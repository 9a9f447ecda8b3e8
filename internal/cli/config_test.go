package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{ServerURL: "http://myhost:9090"}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "tm", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ServerURL != cfg.ServerURL {
		t.Errorf("server_url = %q, want %q", loaded.ServerURL, cfg.ServerURL)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg.ServerURL != "" {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalid(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "tm")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetServerURLFromEnv(t *testing.T) {
	t.Setenv("TM_SERVER_URL", "http://custom:1234")
	t.Setenv("HOME", t.TempDir())

	url := getServerURL()
	if url != "http://custom:1234" {
		t.Errorf("url = %q, want %q", url, "http://custom:1234")
	}
}

func TestGetServerURLFromConfig(t *testing.T) {
	t.Setenv("TM_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	if err := saveConfig(CLIConfig{ServerURL: "http://saved:7000"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if url := getServerURL(); url != "http://saved:7000" {
		t.Errorf("url = %q, want %q", url, "http://saved:7000")
	}
}

func TestGetServerURLDefault(t *testing.T) {
	t.Setenv("TM_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	url := getServerURL()
	if url != DefaultServerURL {
		t.Errorf("url = %q, want %q", url, DefaultServerURL)
	}
}

func TestConfigSetServerCommand(t *testing.T) {
	t.Setenv("TM_SERVER_URL", "")
	t.Setenv("HOME", t.TempDir())

	out, err := executeCommand("config", "set-server", "http://remote:8181")
	if err != nil {
		t.Fatalf("set-server: %v", err)
	}
	if !strings.Contains(out, "http://remote:8181") {
		t.Errorf("output = %q", out)
	}

	out, err = executeCommand("config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Server:  http://remote:8181") {
		t.Errorf("show output = %q", out)
	}
}
