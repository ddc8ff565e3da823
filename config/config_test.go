package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "smops-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadConfig(t *testing.T) {
	content := `
version: v1
region: eu-west-1

project:
  id: credit-scoring
  role: arn:aws:iam::111122223333:role/AliceExec

watch:
  poll_interval: 10s
  history_len: 20
`
	cfg, err := LoadConfig(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Region != "eu-west-1" {
		t.Errorf("expected region eu-west-1, got %s", cfg.Region)
	}
	if cfg.Project.ID != "credit-scoring" {
		t.Errorf("expected project id credit-scoring, got %s", cfg.Project.ID)
	}
	if cfg.Watch.PollInterval != 10*time.Second {
		t.Errorf("expected poll interval 10s, got %s", cfg.Watch.PollInterval)
	}
	if cfg.Watch.HistoryLen != 20 {
		t.Errorf("expected history len 20, got %d", cfg.Watch.HistoryLen)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	content := `
version: v1
region: eu-west-1
project:
  id: credit-scoring
`
	cfg, err := LoadConfig(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Watch.PollInterval != 5*time.Second {
		t.Errorf("expected default poll interval 5s, got %s", cfg.Watch.PollInterval)
	}
	if cfg.Watch.HistoryLen != 10 {
		t.Errorf("expected default history len 10, got %d", cfg.Watch.HistoryLen)
	}
	if cfg.History.Dir == "" {
		t.Error("expected a default history dir")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing version", "region: eu-west-1\nproject:\n  id: p\n"},
		{"missing region", "version: v1\nproject:\n  id: p\n"},
		{"missing project", "version: v1\nregion: eu-west-1\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
