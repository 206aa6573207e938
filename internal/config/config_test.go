package config

import (
	"testing"
	"time"
)

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("http_addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.WB.StatisticsBaseURL != "https://statistics-api.wildberries.ru" {
		t.Fatalf("statistics url=%q", cfg.WB.StatisticsBaseURL)
	}
	if cfg.Report.SalesPageLimit != 100000 {
		t.Fatalf("sales page limit=%d", cfg.Report.SalesPageLimit)
	}
	if cfg.Report.TaskMaxPolls != 12 {
		t.Fatalf("task max polls=%d", cfg.Report.TaskMaxPolls)
	}
	if cfg.Report.ProgressMaxTicks != 480 {
		t.Fatalf("progress max ticks=%d", cfg.Report.ProgressMaxTicks)
	}
	if cfg.Report.Retention != 72*time.Hour {
		t.Fatalf("retention=%v", cfg.Report.Retention)
	}
	if !cfg.Cron.Enabled || cfg.Cron.ArtifactCleanup != "@every 1h" {
		t.Fatalf("cron=%+v", cfg.Cron)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WBR_SERVER_HTTP_ADDR", ":9090")
	t.Setenv("WBR_REPORT_TASK_MAX_POLLS", "5")
	cfg, err := Load("does-not-exist.yaml", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("http_addr=%q want env override", cfg.Server.HTTPAddr)
	}
	if cfg.Report.TaskMaxPolls != 5 {
		t.Fatalf("task max polls=%d want 5", cfg.Report.TaskMaxPolls)
	}
}
