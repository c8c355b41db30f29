package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand landmark providers.
type Detector interface {
	// Detect analyzes an RGB frame and returns the landmarks of the detected
	// hand, or nil when no hand is present.
	Detect(frame *gocv.Mat) (*LandmarkSet, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands the model looks for (default: 1).
	MaxHands int

	// MinDetectionConf is the minimum detection confidence threshold (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Script is the path to mediapipe_service.py. Empty means search the
	// usual locations.
	Script string

	// Python is the interpreter used to run Script. Empty means prefer a
	// virtualenv and fall back to python3.
	Python string

	// IdleTimeout shuts the subprocess down after this long without a frame.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with single-hand tracking and 0.5 thresholds.
func DefaultConfig() Config {
	return Config{
		MaxHands:         1,
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
		IdleTimeout:      30 * time.Second,
	}
}
