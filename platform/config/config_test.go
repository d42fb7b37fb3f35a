package config

import "testing"

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/maremio")
	t.Setenv("APP_ENV", "development")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetAIGatewayModel() != "google/gemini-2.5-flash" {
		t.Fatalf("expected default gateway model, got %q", cfg.GetAIGatewayModel())
	}
	if cfg.GetAIGatewayTemperature() != 0.3 {
		t.Fatalf("expected temperature 0.3, got %v", cfg.GetAIGatewayTemperature())
	}
	if len(cfg.GetCORSOrigins()) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.GetCORSOrigins())
	}
	if cfg.GetMinioBucketBackups() != "backups" {
		t.Fatalf("expected backups bucket, got %q", cfg.GetMinioBucketBackups())
	}
	if cfg.GetBackupRetention().Hours() != 168 {
		t.Fatalf("expected 7 day retention, got %v", cfg.GetBackupRetention())
	}
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/maremio")
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for wildcard origin with credentials")
	}
}

func TestLoadRejectsNonPositiveSweepInterval(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/maremio")
	for _, value := range []string{"0s", "-1m", "five minutes"} {
		t.Setenv("DRAFT_SWEEP_INTERVAL", value)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for DRAFT_SWEEP_INTERVAL=%q", value)
		}
	}

	t.Setenv("DRAFT_SWEEP_INTERVAL", "30s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetDraftSweepInterval().Seconds() != 30 {
		t.Fatalf("expected 30s sweep interval, got %v", cfg.GetDraftSweepInterval())
	}
}
