package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
environment: test
server:
  port: 8080
clickhouse:
  host: localhost
  port: 9000
  database: fincast
predictor:
  symbols: [btcusdt]
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Predictor.PollInterval != time.Minute {
		t.Fatalf("poll interval = %v", cfg.Predictor.PollInterval)
	}
	if cfg.Predictor.CleanupEveryCycles != 10 {
		t.Fatalf("cleanup cycles = %d", cfg.Predictor.CleanupEveryCycles)
	}
	if len(cfg.Predictor.Horizons) != 12 {
		t.Fatalf("horizons = %d, want default 12", len(cfg.Predictor.Horizons))
	}
	// Default scales mirror the horizon lengths, one aggregate granularity
	// per predicted interval.
	wantScales := []int{1, 2, 3, 4, 5, 6, 10, 12, 15, 20, 30, 60}
	if len(cfg.Predictor.ResampleScales) != len(wantScales) {
		t.Fatalf("scales = %v", cfg.Predictor.ResampleScales)
	}
	for i, s := range wantScales {
		if cfg.Predictor.ResampleScales[i] != s {
			t.Fatalf("scale[%d] = %d, want %d", i, cfg.Predictor.ResampleScales[i], s)
		}
	}
}

func TestLoadRejectsBrokenPartition(t *testing.T) {
	body := minimalYAML + `
  horizons:
    - {id: 1, start: 0, end: 30, window_minutes: 2880}
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for 30-minute coverage")
	}
}

func TestLoadRejectsMissingClickHouse(t *testing.T) {
	body := `
environment: test
predictor:
  symbols: [btcusdt]
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for missing clickhouse host")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	body := minimalYAML + `
kafka:
  enabled: true
  topic: fincast.forecasts
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected error for kafka without brokers")
	}
}

func TestHorizonsConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	horizons := cfg.Horizons()
	if len(horizons) != 12 {
		t.Fatalf("horizons = %d", len(horizons))
	}
	if horizons[0].Start != 0 || horizons[len(horizons)-1].End != 60 {
		t.Fatalf("partition bounds wrong: %+v", horizons)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_TOPIC", "override.topic")
	t.Setenv("MODEL_DIR", "/tmp/models-override")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Kafka.Topic != "override.topic" {
		t.Fatalf("topic = %q", cfg.Kafka.Topic)
	}
	if cfg.Predictor.ModelDir != "/tmp/models-override" {
		t.Fatalf("model dir = %q", cfg.Predictor.ModelDir)
	}
}
