package tracker

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/roverduel/arena/internal/protocol"
)

// Detector turns a compressed video frame into tagged target detections.
// Implementations are external collaborators (the computer-vision stage);
// errors and panics are absorbed by the pipeline and treated as an empty
// detection set.
type Detector interface {
	Detect(frame []byte) ([]protocol.Detection, error)
}

// NopDetector never detects anything. It keeps deployments without a vision
// stage functional: the empty results still flow out and clear overlays.
type NopDetector struct{}

func (NopDetector) Detect([]byte) ([]protocol.Detection, error) { return nil, nil }

// Pipeline runs detection on a single background worker. Frame submission is
// non-blocking: when inference is still busy with an earlier frame, new
// frames are dropped rather than queued, so the video relay never stalls on
// the detector.
type Pipeline struct {
	detector Detector
	frames   chan []byte
	onResult func([]protocol.Detection)
}

// NewPipeline creates a pipeline delivering results via onResult. The
// callback runs on the worker goroutine; the caller is responsible for
// re-entering its own scheduling domain (the orchestrator inbox).
func NewPipeline(detector Detector, onResult func([]protocol.Detection)) *Pipeline {
	return &Pipeline{
		detector: detector,
		frames:   make(chan []byte, 1),
		onResult: onResult,
	}
}

// Submit offers a frame for inference. Returns false when the worker is busy
// and the frame was dropped.
func (p *Pipeline) Submit(frame []byte) bool {
	select {
	case p.frames <- frame:
		return true
	default:
		return false
	}
}

// Run processes frames until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-p.frames:
			p.onResult(p.detect(frame))
		}
	}
}

// detect isolates the detector: a failing or panicking detector yields "no
// targets this frame" and never crashes the relay loop.
func (p *Pipeline) detect(frame []byte) (detections []protocol.Detection) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("detector panicked; treating frame as empty")
			detections = nil
		}
	}()

	detections, err := p.detector.Detect(frame)
	if err != nil {
		log.Debug().Err(err).Msg("detector error; treating frame as empty")
		return nil
	}
	return detections
}
