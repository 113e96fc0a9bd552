// Package tracker answers "which targets is the operator currently aiming
// at" from the most recent frame detections, and runs the detection pipeline
// off the video hot path.
package tracker

import (
	"math"

	"github.com/roverduel/arena/internal/protocol"
)

// Native resolution of the device video stream.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// DefaultAimRadius is the aim threshold in pixels around frame center.
const DefaultAimRadius = 120.0

// Tracker holds the latest detection set. It is owned by the orchestrator
// goroutine and is not safe for concurrent use; results from the detection
// pipeline reach it only through the orchestrator inbox, so what the
// simulator sees is the last completed inference, not the frame on screen.
type Tracker struct {
	aimRadius  float64
	detections []protocol.Detection
}

// New creates a tracker with the given aim radius; zero or negative means
// DefaultAimRadius.
func New(aimRadius float64) *Tracker {
	if aimRadius <= 0 {
		aimRadius = DefaultAimRadius
	}
	return &Tracker{aimRadius: aimRadius}
}

// Update replaces the detection set with the latest inference result.
func (t *Tracker) Update(detections []protocol.Detection) {
	t.detections = detections
}

// Detections returns the current detection set.
func (t *Tracker) Detections() []protocol.Detection {
	return t.detections
}

// AimTargets returns the ids of detections whose bounding-box centroid lies
// within the aim radius of frame center.
func (t *Tracker) AimTargets() []string {
	var ids []string
	cx, cy := float64(FrameWidth)/2, float64(FrameHeight)/2
	for _, d := range t.detections {
		x, y := centroid(d.BBox)
		if math.Hypot(x-cx, y-cy) <= t.aimRadius {
			ids = append(ids, d.Text)
		}
	}
	return ids
}

func centroid(bbox [4][2]int) (float64, float64) {
	var sx, sy int
	for _, p := range bbox {
		sx += p[0]
		sy += p[1]
	}
	return float64(sx) / 4, float64(sy) / 4
}
