package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DBPath != "choreboard.db" {
		t.Errorf("db path = %q, want choreboard.db", cfg.DBPath)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("timezone = %q, want America/New_York", cfg.Timezone)
	}
	if cfg.WeekStartDay != "monday" {
		t.Errorf("week start = %q, want monday", cfg.WeekStartDay)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHOREBOARD_ADDR", ":9999")
	t.Setenv("CHOREBOARD_TZ", "UTC")
	t.Setenv("CHOREBOARD_MAIL_TOKEN", "pm-token")
	t.Setenv("CHOREBOARD_S3_BUCKET", "house-backups")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.Addr)
	}
	if cfg.Mail.ServerToken != "pm-token" {
		t.Errorf("mail token = %q, want pm-token", cfg.Mail.ServerToken)
	}
	if cfg.Backup.S3.Bucket != "house-backups" {
		t.Errorf("s3 bucket = %q, want house-backups", cfg.Backup.S3.Bucket)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("location = %v, want UTC", loc)
	}
}

func TestLoadRejectsUnsupportedWeekStart(t *testing.T) {
	t.Setenv("CHOREBOARD_WEEK_START", "sunday")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-monday week start")
	}
}
