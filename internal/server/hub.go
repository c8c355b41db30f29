package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// clientBuffer is how many messages a subscriber may lag behind before
// frames are dropped for it.
const clientBuffer = 4

// HandMessage is the JSON form of one frame's result sent to clients.
type HandMessage struct {
	Seq       uint64                `json:"seq"`
	Timestamp int64                 `json:"timestamp"`
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	Present   bool                  `json:"present"`
	Status    gesture.Status        `json:"status"`
	Label     string                `json:"label,omitempty"`
	Fist      bool                  `json:"fist"`
	Position  *gesture.HandPosition `json:"position,omitempty"`
	Distances *gesture.Distances    `json:"distances,omitempty"`
	Landmarks *detector.LandmarkSet `json:"landmarks,omitempty"`
}

// NewHandMessage converts a frame result. Fields that need a hand are left
// empty when none was detected.
func NewHandMessage(res app.FrameResult) HandMessage {
	return HandMessage{
		Seq:       res.Seq,
		Timestamp: res.Timestamp.UnixMilli(),
		Width:     res.Width,
		Height:    res.Height,
		Present:   res.HandPresent(),
		Status:    res.Status,
		Label:     res.Status.Label(),
		Fist:      res.Fist,
		Position:  res.Position,
		Distances: res.Distances,
		Landmarks: res.Hand,
	}
}

type subscriber struct {
	ch chan []byte
}

// Hub fans frame results and encoded frames out to HTTP clients. It is an
// app.FrameObserver; OnFrame never blocks on a client.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	state   []byte
	updated time.Time
	hands   map[*subscriber]struct{}
	frames  map[*subscriber]struct{}
	dropped uint64
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	state, _ := json.Marshal(HandMessage{Status: gesture.StatusNone})
	return &Hub{
		logger: logger.With("component", "hub"),
		state:  state,
		hands:  make(map[*subscriber]struct{}),
		frames: make(map[*subscriber]struct{}),
	}
}

// OnFrame publishes res to hand subscribers and, if anyone is watching the
// stream, the JPEG-encoded frame to frame subscribers.
func (h *Hub) OnFrame(res app.FrameResult, frame *gocv.Mat) {
	msg, err := json.Marshal(NewHandMessage(res))
	if err != nil {
		h.logger.Warn("encode hand message", "err", err)
		return
	}

	var jpeg []byte
	if h.frameSubscribers() > 0 && frame != nil && !frame.Empty() {
		buf, err := gocv.IMEncode(".jpg", *frame)
		if err != nil {
			h.logger.Warn("encode frame", "err", err)
		} else {
			jpeg = bytes.Clone(buf.GetBytes())
			buf.Close()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = msg
	h.updated = res.Timestamp
	for s := range h.hands {
		h.offer(s, msg)
	}
	if jpeg != nil {
		for s := range h.frames {
			h.offer(s, jpeg)
		}
	}
}

// offer must be called with mu held.
func (h *Hub) offer(s *subscriber, msg []byte) {
	select {
	case s.ch <- msg:
	default:
		h.dropped++
	}
}

// State returns the latest hand message as JSON.
func (h *Hub) State() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Dropped returns how many messages were skipped for slow clients.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Clients returns the number of hand and frame subscribers.
func (h *Hub) Clients() (hands, frames int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.hands), len(h.frames)
}

func (h *Hub) frameSubscribers() int {
	_, n := h.Clients()
	return n
}

func (h *Hub) subscribeHands() *subscriber  { return h.subscribe(h.hands) }
func (h *Hub) subscribeFrames() *subscriber { return h.subscribe(h.frames) }

func (h *Hub) subscribe(set map[*subscriber]struct{}) *subscriber {
	s := &subscriber{ch: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	delete(h.hands, s)
	delete(h.frames, s)
	h.mu.Unlock()
}

// LastFrame returns the timestamp of the most recent frame, zero if none.
func (h *Hub) LastFrame() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updated
}
