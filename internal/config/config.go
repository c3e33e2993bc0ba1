package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Thresholds decide Good/Bad for every metric and which pixels count as dark or bright.
type Thresholds struct {
	Sharpness   float64 `yaml:"sharpness"`    // Good iff std > Sharpness
	DarkShare   float64 `yaml:"dark_share"`   // Good iff darkShare < DarkShare
	BrightShare float64 `yaml:"bright_share"` // Good iff brightShare < BrightShare
	DarkPixel   float64 `yaml:"dark_pixel"`   // normalized intensity, pixel is dark iff v <= DarkPixel
	BrightPixel float64 `yaml:"bright_pixel"` // normalized intensity, pixel is bright iff v >= BrightPixel
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Sharpness:   25.0,
		DarkShare:   0.45,
		BrightShare: 0.40,
		DarkPixel:   40.0 / 255.0,
		BrightPixel: 210.0 / 255.0,
	}
}

// Validate rejects non-finite values and ratios outside [0,1].
func (t Thresholds) Validate() error {
	values := map[string]float64{
		"sharpness":    t.Sharpness,
		"dark_share":   t.DarkShare,
		"bright_share": t.BrightShare,
		"dark_pixel":   t.DarkPixel,
		"bright_pixel": t.BrightPixel,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("threshold %s is not finite", name)
		}
		if v < 0 {
			return fmt.Errorf("threshold %s must not be negative: %v", name, v)
		}
		if name != "sharpness" && v > 1 {
			return fmt.Errorf("threshold %s must be within [0,1]: %v", name, v)
		}
	}
	if t.DarkPixel >= t.BrightPixel {
		return fmt.Errorf("dark_pixel (%v) must be below bright_pixel (%v)", t.DarkPixel, t.BrightPixel)
	}
	return nil
}

// MaxBadFramesLimit caps how many bad frames a session may retain.
const MaxBadFramesLimit = 20

type Config struct {
	Port                int
	CamerasPort         int // UDP port for JPEG camera ingestion
	Password            string
	LogDirectory        string
	ThresholdsFile      string
	ProcessingWorkers   int // number of analysis goroutines
	ProcessingQueueSize int // frames waiting for a worker; overflow is dropped
	ResultQueueSize     int // per-frame results waiting for the display side
	MaxBadFrames        int // 1..MaxBadFramesLimit
	Thresholds          Thresholds
	CameraNames         map[string]string // camera IP -> display name
}

// Load reads an optional .env file, then environment variables, then the optional
// YAML thresholds file named by THRESHOLDS_FILE.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:                getEnvAsInt("PORT", 8080),
		CamerasPort:         getEnvAsInt("CAMERAS_PORT", 9000),
		Password:            getEnv("PASSWORD", "framecheck"),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ThresholdsFile:      getEnv("THRESHOLDS_FILE", ""),
		ProcessingWorkers:   getEnvAsInt("PROCESSING_WORKERS", 3),
		ProcessingQueueSize: getEnvAsInt("PROCESSING_QUEUE_SIZE", 100),
		ResultQueueSize:     getEnvAsInt("RESULT_QUEUE_SIZE", 64),
		MaxBadFrames:        getEnvAsInt("MAX_BAD_FRAMES", 20),
		Thresholds:          DefaultThresholds(),
		CameraNames:         parseCameraNames(getEnv("CAMERA_NAMES", "")),
	}

	cfg.Thresholds.Sharpness = getEnvAsFloat("SHARPNESS_THRESHOLD", cfg.Thresholds.Sharpness)
	cfg.Thresholds.DarkShare = getEnvAsFloat("DARK_SHARE_THRESHOLD", cfg.Thresholds.DarkShare)
	cfg.Thresholds.BrightShare = getEnvAsFloat("BRIGHT_SHARE_THRESHOLD", cfg.Thresholds.BrightShare)

	if cfg.ThresholdsFile != "" {
		if err := cfg.loadThresholdsFile(cfg.ThresholdsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	if cfg.ProcessingWorkers < 1 {
		cfg.ProcessingWorkers = 1
	}
	if cfg.MaxBadFrames < 1 || cfg.MaxBadFrames > MaxBadFramesLimit {
		cfg.MaxBadFrames = MaxBadFramesLimit
	}
	return cfg, nil
}

// loadThresholdsFile overlays the fields present in a YAML file on the current thresholds.
func (c *Config) loadThresholdsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read thresholds file: %w", err)
	}
	var file struct {
		Thresholds Thresholds `yaml:"thresholds"`
	}
	file.Thresholds = c.Thresholds
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse thresholds file %s: %w", path, err)
	}
	c.Thresholds = file.Thresholds
	return nil
}

// parseCameraNames parses "10.0.0.5=door,10.0.0.6=desk".
func parseCameraNames(value string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		ip, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || ip == "" || name == "" {
			continue
		}
		names[ip] = name
	}
	return names
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
