package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests and camera-less runs to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hand     *LandmarkSet
	sequence []*LandmarkSet
	index    int
	err      error
	calls    int
}

// NewMockDetector creates a MockDetector that reports no hand.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHand sets the hand returned by every Detect call. Nil means no hand.
func (m *MockDetector) SetHand(hand *LandmarkSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hand = hand
	m.sequence = nil
}

// SetSequence makes Detect return the given results in order, one per call.
// Once exhausted the last element keeps being returned.
func (m *MockDetector) SetSequence(seq []*LandmarkSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hand, the next sequence element, or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*LandmarkSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	if len(m.sequence) > 0 {
		i := m.index
		if i >= len(m.sequence) {
			i = len(m.sequence) - 1
		} else {
			m.index++
		}
		return copySet(m.sequence[i]), nil
	}

	return copySet(m.hand), nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// copySet hands out a fresh value so callers never share landmark storage.
func copySet(s *LandmarkSet) *LandmarkSet {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ThumbsUpLandmarks returns a right hand with the thumb extended upward and
// the other four fingers curled.
func ThumbsUpLandmarks() LandmarkSet {
	set := LandmarkSet{
		Handedness: "Right",
		Score:      0.95,
	}

	set.Points[Wrist] = Point{X: 0.5, Y: 0.8}

	// Thumb extended upward (Y decreases going up)
	set.Points[ThumbCMC] = Point{X: 0.55, Y: 0.75}
	set.Points[ThumbMCP] = Point{X: 0.58, Y: 0.65}
	set.Points[ThumbIP] = Point{X: 0.58, Y: 0.50}
	set.Points[ThumbTip] = Point{X: 0.58, Y: 0.35}

	curledFingers(&set)
	return set
}

// FistLandmarks returns a right hand closed into a fist, thumb folded across
// the curled fingers.
func FistLandmarks() LandmarkSet {
	set := LandmarkSet{
		Handedness: "Right",
		Score:      0.93,
	}

	set.Points[Wrist] = Point{X: 0.5, Y: 0.8}

	set.Points[ThumbCMC] = Point{X: 0.56, Y: 0.76}
	set.Points[ThumbMCP] = Point{X: 0.59, Y: 0.71}
	set.Points[ThumbIP] = Point{X: 0.56, Y: 0.68}
	set.Points[ThumbTip] = Point{X: 0.52, Y: 0.67}

	curledFingers(&set)
	return set
}

// curledFingers places the four non-thumb fingers with each tip below its
// PIP joint.
func curledFingers(set *LandmarkSet) {
	set.Points[IndexMCP] = Point{X: 0.55, Y: 0.70}
	set.Points[IndexPIP] = Point{X: 0.55, Y: 0.68}
	set.Points[IndexDIP] = Point{X: 0.52, Y: 0.70}
	set.Points[IndexTip] = Point{X: 0.50, Y: 0.72}

	set.Points[MiddleMCP] = Point{X: 0.50, Y: 0.68}
	set.Points[MiddlePIP] = Point{X: 0.50, Y: 0.66}
	set.Points[MiddleDIP] = Point{X: 0.47, Y: 0.68}
	set.Points[MiddleTip] = Point{X: 0.45, Y: 0.70}

	set.Points[RingMCP] = Point{X: 0.45, Y: 0.70}
	set.Points[RingPIP] = Point{X: 0.45, Y: 0.68}
	set.Points[RingDIP] = Point{X: 0.42, Y: 0.70}
	set.Points[RingTip] = Point{X: 0.40, Y: 0.72}

	set.Points[PinkyMCP] = Point{X: 0.40, Y: 0.72}
	set.Points[PinkyPIP] = Point{X: 0.40, Y: 0.70}
	set.Points[PinkyDIP] = Point{X: 0.37, Y: 0.72}
	set.Points[PinkyTip] = Point{X: 0.35, Y: 0.74}
}

// OpenPalmLandmarks returns a right hand with all fingers extended upward.
func OpenPalmLandmarks() LandmarkSet {
	set := LandmarkSet{
		Handedness: "Right",
		Score:      0.95,
	}

	set.Points[Wrist] = Point{X: 0.5, Y: 0.8}

	// Thumb extended to the side
	set.Points[ThumbCMC] = Point{X: 0.55, Y: 0.75}
	set.Points[ThumbMCP] = Point{X: 0.62, Y: 0.70}
	set.Points[ThumbIP] = Point{X: 0.68, Y: 0.65}
	set.Points[ThumbTip] = Point{X: 0.73, Y: 0.60}

	set.Points[IndexMCP] = Point{X: 0.55, Y: 0.68}
	set.Points[IndexPIP] = Point{X: 0.57, Y: 0.55}
	set.Points[IndexDIP] = Point{X: 0.58, Y: 0.45}
	set.Points[IndexTip] = Point{X: 0.58, Y: 0.35}

	// Middle finger is the longest
	set.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66}
	set.Points[MiddlePIP] = Point{X: 0.50, Y: 0.52}
	set.Points[MiddleDIP] = Point{X: 0.50, Y: 0.40}
	set.Points[MiddleTip] = Point{X: 0.50, Y: 0.28}

	set.Points[RingMCP] = Point{X: 0.45, Y: 0.68}
	set.Points[RingPIP] = Point{X: 0.43, Y: 0.55}
	set.Points[RingDIP] = Point{X: 0.42, Y: 0.45}
	set.Points[RingTip] = Point{X: 0.42, Y: 0.35}

	set.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70}
	set.Points[PinkyPIP] = Point{X: 0.37, Y: 0.60}
	set.Points[PinkyDIP] = Point{X: 0.35, Y: 0.50}
	set.Points[PinkyTip] = Point{X: 0.34, Y: 0.42}

	return set
}
