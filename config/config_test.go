package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `api:
  address: ":8088"
planner:
  workday_start: "07:30"
  workday_end: "16:30"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "fieldday"
  username: "user"
  password: "pass"
  use_tls: false
advisor:
  base_url: "http://advisor:9000"
  api_key: "secret"
metrics:
  prometheus_enabled: true
  prometheus_port: ":9091"
logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"api.address", cfg.API.Address, ":8088"},
		{"planner.workday_start", cfg.Planner.WorkdayStart, "07:30"},
		{"planner.workday_end", cfg.Planner.WorkdayEnd, "16:30"},
		{"planner.job_timeout_seconds", cfg.Planner.JobTimeoutSeconds, 10},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "fieldday"},
		{"mqtt.username", cfg.MQTT.Username, "user"},
		{"mqtt.use_tls", cfg.MQTT.UseTLS, false},
		{"advisor.base_url", cfg.Advisor.BaseURL, "http://advisor:9000"},
		{"advisor.timeout_seconds", cfg.Advisor.TimeoutSeconds, 10},
		{"metrics.prometheus_port", cfg.Metrics.PrometheusPort, ":9091"},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api: {}\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.API.Address != ":8080" {
		t.Errorf("api.address default: %s", cfg.API.Address)
	}
	start, end := cfg.Planner.WorkdayMinutes()
	if start != 8*60 || end != 17*60 {
		t.Errorf("planner defaults: %d %d", start, end)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging default: %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	badPlanner := filepath.Join(dir, "planner.yaml")
	if err := os.WriteFile(badPlanner, []byte("planner:\n  workday_start: \"18:00\"\n  workday_end: \"08:00\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(badPlanner); err == nil {
		t.Errorf("inverted workday accepted")
	}

	badLevel := filepath.Join(dir, "level.yaml")
	if err := os.WriteFile(badLevel, []byte("logging:\n  level: \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(badLevel); err == nil {
		t.Errorf("unknown log level accepted")
	}

	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Errorf("unsupported extension accepted")
	}
}
