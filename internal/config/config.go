// Package config loads mudra's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all mudra configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Display  DisplayConfig  `yaml:"display"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Plugins  PluginsConfig  `yaml:"plugins"`
	Log      LogConfig      `yaml:"log"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// DetectorConfig tunes the MediaPipe landmark service.
type DetectorConfig struct {
	MaxHands               int           `yaml:"max_hands"`
	MinDetectionConfidence float64       `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64       `yaml:"min_tracking_confidence"`
	Script                 string        `yaml:"script"`
	Python                 string        `yaml:"python"`
	IdleTimeout            time.Duration `yaml:"idle_timeout"`
}

// DisplayConfig controls the preview window.
type DisplayConfig struct {
	WindowTitle   string `yaml:"window_title"`
	QuitKey       string `yaml:"quit_key"`
	Headless      bool   `yaml:"headless"`
	DrawLandmarks *bool  `yaml:"draw_landmarks"`
}

// ServerConfig enables the live HTTP/WebSocket feed when Listen is set.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig enables the SQLite session log when Path is set.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// PluginsConfig binds the fist gesture to a plugin action.
type PluginsConfig struct {
	Dir       string        `yaml:"dir"`
	TimeoutMs int           `yaml:"timeout_ms"`
	OnFist    *ActionConfig `yaml:"on_fist"`
}

// ActionConfig names a plugin action and its static configuration.
type ActionConfig struct {
	Plugin string         `yaml:"plugin"`
	Action string         `yaml:"action"`
	Config map[string]any `yaml:"config"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with every default filled in.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Camera.Width <= 0 {
		c.Camera.Width = 640
	}
	if c.Camera.Height <= 0 {
		c.Camera.Height = 480
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = 30
	}
	if c.Detector.MaxHands <= 0 {
		c.Detector.MaxHands = 1
	}
	if c.Detector.MinDetectionConfidence <= 0 {
		c.Detector.MinDetectionConfidence = 0.5
	}
	if c.Detector.MinTrackingConfidence <= 0 {
		c.Detector.MinTrackingConfidence = 0.5
	}
	if c.Detector.IdleTimeout <= 0 {
		c.Detector.IdleTimeout = 30 * time.Second
	}
	if c.Display.WindowTitle == "" {
		c.Display.WindowTitle = "Hand Gesture Detection"
	}
	if c.Display.QuitKey == "" {
		c.Display.QuitKey = "q"
	}
	if c.Display.DrawLandmarks == nil {
		draw := true
		c.Display.DrawLandmarks = &draw
	}
	if c.Plugins.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Plugins.Dir = filepath.Join(home, ".mudra", "plugins")
		} else {
			c.Plugins.Dir = "plugins"
		}
	}
	if c.Plugins.TimeoutMs <= 0 {
		c.Plugins.TimeoutMs = 5000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Load reads a YAML config file and fills in defaults for omitted fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Camera.Device < 0 {
		return fmt.Errorf("%w: camera.device must be >= 0, got %d", ErrInvalid, c.Camera.Device)
	}
	if c.Detector.MaxHands != 1 {
		return fmt.Errorf("%w: detector.max_hands must be 1, got %d", ErrInvalid, c.Detector.MaxHands)
	}
	for name, v := range map[string]float64{
		"detector.min_detection_confidence": c.Detector.MinDetectionConfidence,
		"detector.min_tracking_confidence":  c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %g", ErrInvalid, name, v)
		}
	}
	if len([]rune(c.Display.QuitKey)) != 1 {
		return fmt.Errorf("%w: display.quit_key must be a single character, got %q", ErrInvalid, c.Display.QuitKey)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if a := c.Plugins.OnFist; a != nil && (a.Plugin == "" || a.Action == "") {
		return fmt.Errorf("%w: plugins.on_fist needs both plugin and action", ErrInvalid)
	}
	return nil
}

// QuitKeyCode returns the key code that ends the frame loop.
func (c *Config) QuitKeyCode() int {
	r := []rune(c.Display.QuitKey)
	if len(r) == 0 {
		return 'q'
	}
	return int(r[0])
}

// ShouldDrawLandmarks reports whether the hand skeleton is drawn.
func (c *Config) ShouldDrawLandmarks() bool {
	return c.Display.DrawLandmarks == nil || *c.Display.DrawLandmarks
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalid, s)
}

// ParseAction parses "plugin:action" into an ActionConfig.
func ParseAction(s string) (*ActionConfig, error) {
	plugin, action, ok := strings.Cut(s, ":")
	if !ok || plugin == "" || action == "" {
		return nil, fmt.Errorf("%w: action %q must look like plugin:action", ErrInvalid, s)
	}
	return &ActionConfig{Plugin: plugin, Action: action}, nil
}
