package store

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

// recorderQueue bounds the events waiting to be written.
const recorderQueue = 64

// Recorder logs one session: it counts frames and writes a gesture event
// for every status change. Writes happen on a background goroutine so the
// frame loop never waits on the database; events are dropped if the queue
// is full.
type Recorder struct {
	store   *Store
	logger  *slog.Logger
	session *Session

	frames     atomic.Uint64
	handFrames atomic.Uint64
	dropped    atomic.Uint64

	events    chan *Event
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewRecorder starts a session for cameraID.
func NewRecorder(s *Store, cameraID int, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sess := &Session{
		ID:        uuid.NewString(),
		CameraID:  cameraID,
		StartedAt: time.Now(),
	}
	if err := s.Sessions().Create(sess); err != nil {
		return nil, err
	}

	r := &Recorder{
		store:   s,
		logger:  logger.With("component", "recorder", "session", sess.ID),
		session: sess,
		events:  make(chan *Event, recorderQueue),
		done:    make(chan struct{}),
	}
	go r.run()
	return r, nil
}

// SessionID returns the ID of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// Dropped returns how many events were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// OnFrame counts frames.
func (r *Recorder) OnFrame(res app.FrameResult, _ *gocv.Mat) {
	r.frames.Add(1)
	if res.HandPresent() {
		r.handFrames.Add(1)
	}
}

// OnTransition queues an event for the new status.
func (r *Recorder) OnTransition(_, cur app.FrameResult) {
	e := &Event{
		ID:        uuid.NewString(),
		SessionID: r.session.ID,
		Seq:       cur.Seq,
		Kind:      eventKind(cur.Status),
		CreatedAt: cur.Timestamp,
	}
	if cur.Position != nil {
		x, y := cur.Position.PalmCenter.X, cur.Position.PalmCenter.Y
		e.X, e.Y = &x, &y
	}

	select {
	case r.events <- e:
	default:
		r.dropped.Add(1)
	}
}

func eventKind(s gesture.Status) EventKind {
	switch s {
	case gesture.StatusFist:
		return EventFist
	case gesture.StatusOpen:
		return EventOpen
	}
	return EventLost
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.events {
		if err := r.store.Events().Create(e); err != nil {
			r.logger.Warn("record gesture event", "kind", e.Kind, "err", err)
		}
	}
}

// Close flushes pending events and finishes the session. It is safe to call
// more than once. The store is not closed.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.events)
		<-r.done

		frames, hands := r.frames.Load(), r.handFrames.Load()
		r.closeErr = r.store.Sessions().Finish(r.session.ID, time.Now(), frames, hands)
		r.logger.Info("session finished", "frames", frames, "hand_frames", hands, "dropped_events", r.dropped.Load())
	})
	return r.closeErr
}
