// Package app runs the frame loop: acquire, detect, classify, annotate and
// display, one frame at a time.
package app

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
)

// DefaultRetryDelay is the pause after a frame could not be read.
const DefaultRetryDelay = 10 * time.Millisecond

// FrameResult is everything the loop derived from one frame. It is only
// valid for the frame it was produced from.
type FrameResult struct {
	Seq       uint64                `json:"seq"`
	Timestamp time.Time             `json:"timestamp"`
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	Hand      *detector.LandmarkSet `json:"hand,omitempty"`
	gesture.Result
}

// HandPresent reports whether a hand was detected in the frame.
func (r FrameResult) HandPresent() bool {
	return r.Hand != nil
}

// IsClick reports whether cur starts a fist: a fist now, and no fist in the
// previous frame.
func IsClick(prev, cur FrameResult) bool {
	return cur.Status == gesture.StatusFist && prev.Status != gesture.StatusFist
}

// FrameObserver receives every processed frame. frame is the annotated BGR
// image and is only valid during the call; observers must copy what they
// keep and must not block.
type FrameObserver interface {
	OnFrame(res FrameResult, frame *gocv.Mat)
}

// TransitionObserver is told whenever the gesture status changes between
// consecutive frames.
type TransitionObserver interface {
	OnTransition(prev, cur FrameResult)
}

// Config wires the loop's collaborators.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Display  render.Display
	Logger   *slog.Logger

	// QuitKey is the key code that ends the loop (default 'q').
	QuitKey int
	// Render controls frame annotation.
	Render render.Options
	// RetryDelay is the pause after a failed read. Zero uses
	// DefaultRetryDelay; negative disables the pause.
	RetryDelay time.Duration

	FrameObservers      []FrameObserver
	TransitionObservers []TransitionObserver
}

// Stats counts loop activity since the last Run started.
type Stats struct {
	Frames     uint64 `json:"frames"`
	HandFrames uint64 `json:"hand_frames"`
	Dropped    uint64 `json:"dropped"`
	Clicks     uint64 `json:"clicks"`
}

// App owns the frame loop.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	display  render.Display
	logger   *slog.Logger

	mu      sync.RWMutex
	enabled bool
	running bool

	frames     atomic.Uint64
	handFrames atomic.Uint64
	dropped    atomic.Uint64
	clicks     atomic.Uint64
}

// New creates an App. Camera and Detector are required; a nil Display
// means headless.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if config.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if config.Display == nil {
		config.Display = render.NewHeadless()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.QuitKey == 0 {
		config.QuitKey = 'q'
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = DefaultRetryDelay
	}

	return &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		display:  config.Display,
		logger:   config.Logger.With("component", "app"),
		enabled:  true,
	}, nil
}

// SetEnabled enables or disables hand detection. While disabled frames are
// still shown, unannotated.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		a.logger.Info("detection toggled", "enabled", enabled)
	}
	a.enabled = enabled
}

// IsEnabled returns whether hand detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// IsRunning reports whether Run is in progress.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Stats returns loop counters.
func (a *App) Stats() Stats {
	return Stats{
		Frames:     a.frames.Load(),
		HandFrames: a.handFrames.Load(),
		Dropped:    a.dropped.Load(),
		Clicks:     a.clicks.Load(),
	}
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// release closes the camera, display and detector, collecting every error.
func (a *App) release() error {
	var err error
	if cerr := a.camera.Close(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	if derr := a.display.Close(); derr != nil {
		err = multierr.Append(err, derr)
	}
	if derr := a.detector.Close(); derr != nil {
		err = multierr.Append(err, derr)
	}
	return err
}
