// Package testutil builds synthetic frames and hand sequences for tests.
package testutil

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Frames returns n mid-gray BGR frames of the given size. Callers close
// them with CloseFrames.
func Frames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(96, 96, 96, 0), height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

// CloseFrames closes every non-nil frame.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

// HandSequence returns one detector result per pattern character:
//
//	'o' open palm
//	'f' fist
//	't' thumbs up (classifies as a fist)
//	'.' no hand
func HandSequence(pattern string) []*detector.LandmarkSet {
	seq := make([]*detector.LandmarkSet, 0, len(pattern))
	for _, c := range pattern {
		var set detector.LandmarkSet
		switch c {
		case 'o':
			set = detector.OpenPalmLandmarks()
		case 'f':
			set = detector.FistLandmarks()
		case 't':
			set = detector.ThumbsUpLandmarks()
		case '.':
			seq = append(seq, nil)
			continue
		default:
			panic(fmt.Sprintf("testutil: unknown hand %q", c))
		}
		seq = append(seq, &set)
	}
	return seq
}

// Statuses returns the status each HandSequence entry classifies as.
func Statuses(pattern string) []gesture.Status {
	var out []gesture.Status
	for _, set := range HandSequence(pattern) {
		out = append(out, gesture.Classify(set).Status)
	}
	return out
}

// Clicks counts the fist starts in pattern.
func Clicks(pattern string) int {
	n := 0
	prev := gesture.StatusNone
	for _, s := range Statuses(pattern) {
		if s == gesture.StatusFist && prev != gesture.StatusFist {
			n++
		}
		prev = s
	}
	return n
}
