package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with defaults failed: %v", err)
	}
	if cfg.ServerPort != "4000" {
		t.Fatalf("expected default port 4000, got %s", cfg.ServerPort)
	}
	if cfg.Engine.SpeedingThresholdKph != 120 {
		t.Fatalf("expected default speeding threshold 120, got %v", cfg.Engine.SpeedingThresholdKph)
	}
}

func TestLoadEngineOverrides(t *testing.T) {
	t.Setenv("HARD_BRAKE_THRESHOLD_MPS2", "-6.5")
	t.Setenv("RAPID_ACCEL_THRESHOLD_MPS2", "3.5")
	t.Setenv("HARSH_TURN_THRESHOLD_DEG_SEC", "20")
	t.Setenv("SPEEDING_THRESHOLD_KPH", "110")
	t.Setenv("ANALYSIS_WINDOW_MS", "45000")
	t.Setenv("FATIGUE_WINDOW_MS", "600000")
	t.Setenv("FATIGUE_EVENT_COUNT", "3")
	t.Setenv("MIN_STATE_DURATION_MS", "3000")
	t.Setenv("MIN_ALERT_INTERVAL_MS", "20000")
	t.Setenv("MAX_ALERTS_PER_HOUR", "10")
	t.Setenv("CAMERA_RADIUS_M", "400")
	t.Setenv("BUMP_RADIUS_M", "80")
	t.Setenv("HAZARD_CLEAR_MULTIPLIER", "2.0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	eng := cfg.Engine
	if eng.HardBrakeThresholdMps2 != -6.5 {
		t.Errorf("hard brake threshold: got %v, want -6.5", eng.HardBrakeThresholdMps2)
	}
	if eng.RapidAccelThresholdMps2 != 3.5 {
		t.Errorf("rapid accel threshold: got %v, want 3.5", eng.RapidAccelThresholdMps2)
	}
	if eng.HarshTurnThresholdDegSec != 20 {
		t.Errorf("harsh turn threshold: got %v, want 20", eng.HarshTurnThresholdDegSec)
	}
	if eng.SpeedingThresholdKph != 110 {
		t.Errorf("speeding threshold: got %v, want 110", eng.SpeedingThresholdKph)
	}
	if eng.AnalysisWindowMs != 45_000 {
		t.Errorf("analysis window: got %v, want 45000", eng.AnalysisWindowMs)
	}
	if eng.FatigueWindowMs != 600_000 {
		t.Errorf("fatigue window: got %v, want 600000", eng.FatigueWindowMs)
	}
	if eng.FatigueEventCount != 3 {
		t.Errorf("fatigue event count: got %v, want 3", eng.FatigueEventCount)
	}
	if eng.MinStateDurationMs != 3000 {
		t.Errorf("min state duration: got %v, want 3000", eng.MinStateDurationMs)
	}
	if eng.MinAlertIntervalMs != 20_000 {
		t.Errorf("min alert interval: got %v, want 20000", eng.MinAlertIntervalMs)
	}
	if eng.MaxAlertsPerHour != 10 {
		t.Errorf("max alerts per hour: got %v, want 10", eng.MaxAlertsPerHour)
	}
	if eng.CameraRadiusM != 400 {
		t.Errorf("camera radius: got %v, want 400", eng.CameraRadiusM)
	}
	if eng.BumpRadiusM != 80 {
		t.Errorf("bump radius: got %v, want 80", eng.BumpRadiusM)
	}
	if eng.HazardClearMultiplier != 2.0 {
		t.Errorf("hazard clear multiplier: got %v, want 2.0", eng.HazardClearMultiplier)
	}
}

func TestLoadRejectsInvalidThresholds(t *testing.T) {
	// 急刹阈值必须为负，正值应在加载时报错
	t.Setenv("HARD_BRAKE_THRESHOLD_MPS2", "5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for positive hard brake threshold")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_ALERTS_PER_HOUR", "plenty")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Engine.MaxAlertsPerHour != 15 {
		t.Fatalf("malformed value must fall back to default 15, got %v", cfg.Engine.MaxAlertsPerHour)
	}
}
