package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("expected max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Cache.StatsTTL != 30*time.Second {
		t.Errorf("expected stats TTL 30s, got %v", cfg.Cache.StatsTTL)
	}
	if cfg.Review.DecisionPolicy != FirstDecisionWins {
		t.Errorf("expected first_decision_wins default, got %s", cfg.Review.DecisionPolicy)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
review:
  decision_policy: "latest_decision_wins"
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Review.DecisionPolicy != LatestDecisionWins {
		t.Errorf("expected latest_decision_wins, got %s", cfg.Review.DecisionPolicy)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TRACEDECK_PORT", "7070")
	t.Setenv("TRACEDECK_REVIEW_DECISION_POLICY", "latest_decision_wins")
	t.Setenv("TRACEDECK_CACHE_STATS_TTL", "2m")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Review.DecisionPolicy != LatestDecisionWins {
		t.Errorf("expected latest_decision_wins, got %s", cfg.Review.DecisionPolicy)
	}
	if cfg.Cache.StatsTTL != 2*time.Minute {
		t.Errorf("expected 2m stats TTL, got %v", cfg.Cache.StatsTTL)
	}
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cfg := Defaults()
	cfg.Review.DecisionPolicy = "majority_vote"
	if err := validate(&cfg); err == nil {
		t.Error("expected error for unknown decision policy")
	}
}
