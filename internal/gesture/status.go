package gesture

import "github.com/ayusman/mudra/internal/detector"

// Status is the per-frame gesture outcome.
type Status string

const (
	// StatusNone means no hand was detected.
	StatusNone Status = "none"
	// StatusOpen means a hand was detected and is not a fist.
	StatusOpen Status = "open"
	// StatusFist means a hand was detected and classified as a fist.
	StatusFist Status = "fist"
)

// Label returns the on-screen text for the status.
func (s Status) Label() string {
	switch s {
	case StatusFist:
		return "Fist (Click)"
	case StatusOpen:
		return "Open Hand"
	}
	return ""
}

// Result bundles everything derived from one frame's landmarks.
type Result struct {
	Position  *HandPosition `json:"position,omitempty"`
	Fist      bool          `json:"fist"`
	Status    Status        `json:"status"`
	Distances *Distances    `json:"distances,omitempty"`
}

// Classify derives the reference points, fist decision and fingertip
// distances for set. A nil set yields StatusNone and nil fields.
func Classify(set *detector.LandmarkSet) Result {
	if set == nil {
		return Result{Status: StatusNone}
	}

	fist := IsFist(set)
	status := StatusOpen
	if fist {
		status = StatusFist
	}

	return Result{
		Position:  ReferencePoints(set),
		Fist:      fist,
		Status:    status,
		Distances: TipDistances(set),
	}
}
