// Package detector provides hand landmark types and the landmark provider interface.
package detector

import (
	"fmt"
	"image"
	"math"
)

// Landmark identifies one of the 21 hand keypoints, following the MediaPipe
// hand landmark order.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
type Landmark int

const (
	Wrist Landmark = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip
)

// NumLandmarks is the number of keypoints in a LandmarkSet.
const NumLandmarks = 21

var landmarkNames = [NumLandmarks]string{
	"wrist",
	"thumb_cmc", "thumb_mcp", "thumb_ip", "thumb_tip",
	"index_mcp", "index_pip", "index_dip", "index_tip",
	"middle_mcp", "middle_pip", "middle_dip", "middle_tip",
	"ring_mcp", "ring_pip", "ring_dip", "ring_tip",
	"pinky_mcp", "pinky_pip", "pinky_dip", "pinky_tip",
}

// String returns the snake_case name of the landmark.
func (l Landmark) String() string {
	if l < 0 || int(l) >= NumLandmarks {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// Point is a 2D keypoint in normalized image coordinates. X grows to the
// right and Y grows downward, both in [0,1] relative to the frame size.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pixel converts the normalized point to pixel coordinates for a frame of
// the given size.
func (p Point) Pixel(width, height int) image.Point {
	return image.Point{
		X: int(p.X * float64(width)),
		Y: int(p.Y * float64(height)),
	}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// LandmarkSet holds the 21 keypoints of one detected hand.
type LandmarkSet struct {
	Points     [NumLandmarks]Point `json:"points"`
	Handedness string              `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64             `json:"score"`
}

// At returns the point for the given landmark.
func (s *LandmarkSet) At(l Landmark) Point {
	return s.Points[l]
}

// Scaled returns a copy with every coordinate multiplied by sx and sy.
func (s LandmarkSet) Scaled(sx, sy float64) LandmarkSet {
	out := s
	for i := range out.Points {
		out.Points[i].X *= sx
		out.Points[i].Y *= sy
	}
	return out
}

// HandConnections lists the landmark pairs joined when drawing a hand skeleton.
var HandConnections = [][2]Landmark{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}
