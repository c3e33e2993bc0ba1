package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxBadFrames != 20 {
		t.Errorf("Expected MaxBadFrames 20, got %d", cfg.MaxBadFrames)
	}
	if cfg.Thresholds != DefaultThresholds() {
		t.Errorf("Expected default thresholds, got %+v", cfg.Thresholds)
	}
	if cfg.ProcessingWorkers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.ProcessingWorkers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHARPNESS_THRESHOLD", "30.5")
	t.Setenv("PROCESSING_WORKERS", "0")
	t.Setenv("CAMERA_NAMES", "10.0.0.5=door, 10.0.0.6=desk,broken")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Thresholds.Sharpness != 30.5 {
		t.Errorf("Expected sharpness 30.5, got %v", cfg.Thresholds.Sharpness)
	}
	if cfg.ProcessingWorkers != 1 {
		t.Errorf("Expected worker count clamped to 1, got %d", cfg.ProcessingWorkers)
	}
	if cfg.CameraNames["10.0.0.5"] != "door" || cfg.CameraNames["10.0.0.6"] != "desk" {
		t.Errorf("Unexpected camera names: %v", cfg.CameraNames)
	}
	if len(cfg.CameraNames) != 2 {
		t.Errorf("Expected 2 camera names, got %d", len(cfg.CameraNames))
	}
}

func TestLoad_ThresholdsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := "thresholds:\n  sharpness: 40\n  bright_share: 0.3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write thresholds file: %v", err)
	}
	t.Setenv("THRESHOLDS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Thresholds.Sharpness != 40 {
		t.Errorf("Expected sharpness 40, got %v", cfg.Thresholds.Sharpness)
	}
	if cfg.Thresholds.BrightShare != 0.3 {
		t.Errorf("Expected bright share 0.3, got %v", cfg.Thresholds.BrightShare)
	}
	// Fields missing from the file keep their defaults.
	if cfg.Thresholds.DarkShare != 0.45 {
		t.Errorf("Expected dark share 0.45, got %v", cfg.Thresholds.DarkShare)
	}
}

func TestLoad_InvalidThresholdsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte("thresholds: [1, 2"), 0644); err != nil {
		t.Fatalf("Failed to write thresholds file: %v", err)
	}
	t.Setenv("THRESHOLDS_FILE", path)

	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Thresholds)
		wantErr bool
	}{
		{"defaults", func(*Thresholds) {}, false},
		{"nan sharpness", func(th *Thresholds) { th.Sharpness = math.NaN() }, true},
		{"negative share", func(th *Thresholds) { th.DarkShare = -0.1 }, true},
		{"share above one", func(th *Thresholds) { th.BrightShare = 1.5 }, true},
		{"inverted pixel bounds", func(th *Thresholds) { th.DarkPixel = 0.9 }, true},
		{"large sharpness", func(th *Thresholds) { th.Sharpness = 300 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := th.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MaxBadFramesBounds(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"50", MaxBadFramesLimit},
		{"0", MaxBadFramesLimit},
		{"-3", MaxBadFramesLimit},
		{"5", 5},
		{"20", 20},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("MAX_BAD_FRAMES", tt.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.MaxBadFrames != tt.want {
				t.Errorf("Expected MaxBadFrames %d, got %d", tt.want, cfg.MaxBadFrames)
			}
		})
	}
}
