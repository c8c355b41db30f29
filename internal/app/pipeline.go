package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/render"
)

// Run opens the camera and processes frames until ctx is done, the quit
// key is pressed, or the camera stops being open. The camera, display and
// detector are released on every return path.
//
// Per iteration:
//  1. Read a BGR frame; on failure skip the iteration and retry
//  2. Convert to RGB and ask the detector for landmarks
//  3. Classify the landmarks (nil landmarks classify as no hand)
//  4. Annotate the frame when a hand is present
//  5. Notify observers, show the frame, poll the quit key
func (a *App) Run(ctx context.Context) (err error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("app: already running")
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.camera.Open(); err != nil {
		return multierr.Combine(fmt.Errorf("open camera: %w", err), a.release())
	}
	defer func() {
		err = multierr.Append(err, a.release())
	}()

	a.frames.Store(0)
	a.handFrames.Store(0)
	a.dropped.Store(0)
	a.clicks.Store(0)

	rgb := gocv.NewMat()
	defer rgb.Close()

	prev := FrameResult{Result: gesture.Result{Status: gesture.StatusNone}}
	var seq uint64

	a.logger.Info("frame loop started", "camera_fps", a.camera.FPS())
	defer a.logger.Info("frame loop stopped", "frames", a.frames.Load(), "dropped", a.dropped.Load())

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stop requested")
			return nil
		default:
		}

		if !a.camera.IsOpen() {
			a.logger.Info("camera closed")
			return nil
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrCameraNotOpen) {
				a.logger.Info("camera closed")
				return nil
			}
			a.dropped.Add(1)
			a.logger.Debug("skipping frame", "err", err)
			if !a.wait(ctx) {
				return nil
			}
			continue
		}

		seq++
		cur := a.process(frame, &rgb, seq)
		key := a.present(frame, cur)
		frame.Close()

		if cur.Status != prev.Status {
			a.transition(prev, cur)
		}
		prev = cur

		if key == a.config.QuitKey {
			a.logger.Info("quit key pressed")
			return nil
		}
	}
}

// ProcessFrame runs detection and classification on a single BGR frame.
func (a *App) ProcessFrame(frame *gocv.Mat) FrameResult {
	rgb := gocv.NewMat()
	defer rgb.Close()
	return a.process(frame, &rgb, 0)
}

// process converts frame into rgb, detects and classifies.
func (a *App) process(frame *gocv.Mat, rgb *gocv.Mat, seq uint64) FrameResult {
	res := FrameResult{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     frame.Cols(),
		Height:    frame.Rows(),
	}

	var hand *detector.LandmarkSet
	if a.IsEnabled() {
		gocv.CvtColor(*frame, rgb, gocv.ColorBGRToRGB)

		var err error
		hand, err = a.detector.Detect(rgb)
		if err != nil {
			// A failed detection is shown as a frame without a hand.
			a.logger.Warn("hand detection failed", "seq", seq, "err", err)
			hand = nil
		}
	}

	res.Hand = hand
	res.Result = gesture.Classify(hand)
	return res
}

// present annotates, notifies frame observers, shows the frame and returns
// the key pressed, if any.
func (a *App) present(frame *gocv.Mat, res FrameResult) int {
	a.frames.Add(1)

	if res.HandPresent() {
		a.handFrames.Add(1)
		render.Annotate(frame, res.Hand, res.Result, a.config.Render)
		a.logger.Debug("hand position",
			"seq", res.Seq,
			"palm_x", res.Position.PalmCenter.X,
			"palm_y", res.Position.PalmCenter.Y,
			"status", res.Status.Label(),
		)
	}

	for _, o := range a.config.FrameObservers {
		o.OnFrame(res, frame)
	}

	if err := a.display.Show(frame); err != nil {
		a.logger.Warn("display failed", "err", err)
	}
	return a.display.PollKey()
}

func (a *App) transition(prev, cur FrameResult) {
	if IsClick(prev, cur) {
		a.clicks.Add(1)
		a.logger.Info("click", "seq", cur.Seq, "palm_x", cur.Position.PalmCenter.X, "palm_y", cur.Position.PalmCenter.Y)
	} else {
		a.logger.Debug("status changed", "from", prev.Status, "to", cur.Status)
	}

	for _, o := range a.config.TransitionObservers {
		o.OnTransition(prev, cur)
	}
}

// wait pauses after a dropped frame. It returns false if ctx ended.
func (a *App) wait(ctx context.Context) bool {
	if a.config.RetryDelay < 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(a.config.RetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
