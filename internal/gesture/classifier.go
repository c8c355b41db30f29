// Package gesture classifies a single hand pose as an open hand or a fist
// using static geometric rules over its landmarks.
//
// Every function here is a pure function of its input: nothing is carried
// between frames, so consecutive frames near the decision boundary may
// classify differently.
package gesture

import "github.com/ayusman/mudra/internal/detector"

// FistThreshold is the number of bent non-thumb fingers needed for a fist.
const FistThreshold = 3

// Finger names one digit of the hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// Fingers lists all five fingers in anatomical order.
var Fingers = [...]Finger{Thumb, Index, Middle, Ring, Pinky}

// bendFingers are the fingers that take part in fist detection.
var bendFingers = [...]Finger{Index, Middle, Ring, Pinky}

func (f Finger) String() string {
	switch f {
	case Thumb:
		return "thumb"
	case Index:
		return "index"
	case Middle:
		return "middle"
	case Ring:
		return "ring"
	case Pinky:
		return "pinky"
	}
	return "unknown"
}

// Tip returns the fingertip landmark.
func (f Finger) Tip() detector.Landmark {
	switch f {
	case Thumb:
		return detector.ThumbTip
	case Index:
		return detector.IndexTip
	case Middle:
		return detector.MiddleTip
	case Ring:
		return detector.RingTip
	default:
		return detector.PinkyTip
	}
}

// PIP returns the proximal interphalangeal joint used as the bend reference.
// The thumb has no PIP; its IP joint is returned instead.
func (f Finger) PIP() detector.Landmark {
	switch f {
	case Thumb:
		return detector.ThumbIP
	case Index:
		return detector.IndexPIP
	case Middle:
		return detector.MiddlePIP
	case Ring:
		return detector.RingPIP
	default:
		return detector.PinkyPIP
	}
}

// HandPosition holds the reference points reported for a detected hand.
type HandPosition struct {
	PalmCenter detector.Point `json:"palm_center"`
	IndexTip   detector.Point `json:"index_tip"`
	ThumbTip   detector.Point `json:"thumb_tip"`
}

// ReferencePoints returns the palm center (wrist), index fingertip and
// thumb tip exactly as provided. It returns nil when set is nil.
func ReferencePoints(set *detector.LandmarkSet) *HandPosition {
	if set == nil {
		return nil
	}
	return &HandPosition{
		PalmCenter: set.At(detector.Wrist),
		IndexTip:   set.At(detector.IndexTip),
		ThumbTip:   set.At(detector.ThumbTip),
	}
}

// Bent reports whether the finger's tip sits below its PIP joint in image
// coordinates. The thumb is never reported as bent.
func Bent(set *detector.LandmarkSet, f Finger) bool {
	if set == nil || f == Thumb {
		return false
	}
	return set.At(f.Tip()).Y > set.At(f.PIP()).Y
}

// BentCount returns how many of the index, middle, ring and pinky fingers
// are bent.
func BentCount(set *detector.LandmarkSet) int {
	if set == nil {
		return 0
	}
	n := 0
	for _, f := range bendFingers {
		if Bent(set, f) {
			n++
		}
	}
	return n
}

// IsFist reports whether at least FistThreshold of the four non-thumb
// fingers are bent. A nil set is never a fist.
func IsFist(set *detector.LandmarkSet) bool {
	return BentCount(set) >= FistThreshold
}

// Distances holds the palm-center to fingertip distance for each finger,
// indexed by Finger, in normalized units.
type Distances [len(Fingers)]float64

// Of returns the distance for one finger.
func (d Distances) Of(f Finger) float64 {
	return d[f]
}

// TipDistances computes palm-center to fingertip distances. They describe
// the hand's spread and play no part in IsFist.
func TipDistances(set *detector.LandmarkSet) *Distances {
	if set == nil {
		return nil
	}
	palm := set.At(detector.Wrist)
	var d Distances
	for _, f := range Fingers {
		d[f] = detector.Distance(palm, set.At(f.Tip()))
	}
	return &d
}
