// Package render draws gesture annotations on frames and shows them.
package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Drawing parameters.
const (
	PalmMarkerRadius = 10
	LabelOffsetX     = -50
	LabelOffsetY     = -20
	LabelScale       = 0.7
	LabelThickness   = 2
	jointRadius      = 3
	boneThickness    = 2
)

var (
	palmColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	labelColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	boneColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	jointColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// Options controls what Annotate draws.
type Options struct {
	// DrawLandmarks draws the 21-point hand skeleton under the marker.
	DrawLandmarks bool
}

// Annotate draws the palm marker and status label for a detected hand. It
// leaves the frame untouched and returns false when set is nil.
func Annotate(frame *gocv.Mat, set *detector.LandmarkSet, res gesture.Result, opts Options) bool {
	if frame == nil || frame.Empty() || set == nil || res.Position == nil {
		return false
	}

	w, h := frame.Cols(), frame.Rows()

	if opts.DrawLandmarks {
		drawSkeleton(frame, set, w, h)
	}

	palm := res.Position.PalmCenter.Pixel(w, h)
	gocv.Circle(frame, palm, PalmMarkerRadius, palmColor, -1)

	if label := res.Status.Label(); label != "" {
		org := image.Point{X: palm.X + LabelOffsetX, Y: palm.Y + LabelOffsetY}
		gocv.PutText(frame, label, org, gocv.FontHersheySimplex, LabelScale, labelColor, LabelThickness)
	}

	return true
}

func drawSkeleton(frame *gocv.Mat, set *detector.LandmarkSet, w, h int) {
	for _, c := range detector.HandConnections {
		a := set.At(c[0]).Pixel(w, h)
		b := set.At(c[1]).Pixel(w, h)
		gocv.Line(frame, a, b, boneColor, boneThickness)
	}
	for _, p := range set.Points {
		gocv.Circle(frame, p.Pixel(w, h), jointRadius, jointColor, -1)
	}
}
