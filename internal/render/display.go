package render

import (
	"sync"

	"gocv.io/x/gocv"
)

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display shows annotated frames and reports key presses.
type Display interface {
	Show(frame *gocv.Mat) error
	// PollKey waits briefly for a key press and returns its code, or NoKey.
	PollKey() int
	Close() error
}

// Window is a Display backed by an OpenCV highgui window. The window must
// be created and driven from the same goroutine.
type Window struct {
	title  string
	window *gocv.Window
	once   sync.Once
}

// NewWindow opens a highgui window with the given title.
func NewWindow(title string) *Window {
	return &Window{
		title:  title,
		window: gocv.NewWindow(title),
	}
}

// Show draws frame in the window.
func (w *Window) Show(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return nil
	}
	w.window.IMShow(*frame)
	return nil
}

// PollKey pumps the window event loop for 1ms and returns the low byte of
// the pressed key.
func (w *Window) PollKey() int {
	key := w.window.WaitKey(1)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

// Close destroys the window. It is safe to call more than once.
func (w *Window) Close() error {
	var err error
	w.once.Do(func() {
		err = w.window.Close()
	})
	return err
}

// Headless is a Display that shows nothing and never reports a key. Used
// when frames are consumed over the network or the tray drives shutdown.
type Headless struct {
	mu     sync.Mutex
	shown  int
	closed bool
}

// NewHeadless returns a Display that discards frames.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Show(frame *gocv.Mat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown++
	return nil
}

func (h *Headless) PollKey() int { return NoKey }

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Shown returns how many frames were passed to Show.
func (h *Headless) Shown() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

// Closed reports whether Close was called.
func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
