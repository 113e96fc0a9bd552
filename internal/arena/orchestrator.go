// Package arena implements the session orchestrator: queue admission, the
// confirmation handshake, the active-session lifecycle, and the combat hooks.
// All state transitions run on one control goroutine fed by an inbox channel,
// so they are atomic with respect to each other without explicit locks.
// Blocking work (stake verification, frame inference) happens on background
// workers and re-enters through the same inbox.
package arena

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/roverduel/arena/internal/leaderboard"
	"github.com/roverduel/arena/internal/protocol"
	"github.com/roverduel/arena/internal/stake"
	"github.com/roverduel/arena/internal/tracker"
)

// Hub is the relay surface the orchestrator drives.
type Hub interface {
	BroadcastText(msg []byte)
	SendTo(id string, msg []byte) error
	ForwardToDevice(frame []byte)
}

// Store persists finished sessions and serves the top-10 board.
type Store interface {
	Append(leaderboard.Record) error
	Top(n int) ([]leaderboard.Record, error)
}

// Config holds the orchestrator's gameplay tuning.
type Config struct {
	ConfirmWindow    time.Duration
	GameDuration     time.Duration
	PostGameCooldown time.Duration
	TickInterval     time.Duration
	WinThreshold     int
	PayoutLamports   uint64
	// VerifyTimeout caps how long the orchestrator waits on the stake
	// gateway even if the gateway fails to bound itself.
	VerifyTimeout time.Duration
	// DetectEvery samples every Nth device frame into the detection pipeline.
	DetectEvery int
	AimRadius   float64
}

// DefaultConfig returns production gameplay tuning.
func DefaultConfig() Config {
	return Config{
		ConfirmWindow:    120 * time.Second,
		GameDuration:     60 * time.Second,
		PostGameCooldown: 3 * time.Second,
		TickInterval:     time.Second,
		WinThreshold:     50,
		PayoutLamports:   stake.PayoutLamports,
		VerifyTimeout:    45 * time.Second,
		DetectEvery:      3,
		AimRadius:        tracker.DefaultAimRadius,
	}
}

// Deps are the orchestrator's collaborators. Zero values get safe defaults:
// real clock, disabled stake gateway, no-op detector.
type Deps struct {
	Hub      Hub
	Store    Store
	Gateway  stake.Gateway
	Detector tracker.Detector
	Clock    clockwork.Clock
	Rand     *rand.Rand
}

// Orchestrator is the session state machine. All fields below inbox are
// owned by the control goroutine.
type Orchestrator struct {
	cfg      Config
	hub      Hub
	store    Store
	gateway  stake.Gateway
	clock    clockwork.Clock
	inbox    chan message
	pipeline *tracker.Pipeline

	frameCount atomic.Uint64

	phase   phase
	queue   *queue
	tracker *tracker.Tracker
	rng     *rand.Rand
}

// inbox messages; see Run.
type message interface{}

type viewerConnectedMsg struct{ id string }
type viewerGoneMsg struct{ id string }
type commandMsg struct {
	id  string
	cmd protocol.Command
}
type controlMsg struct {
	id    string
	frame []byte
}
type confirmTimeoutMsg struct{ pendingID string }
type verifyResultMsg struct {
	pendingID string
	ok        bool
	loadout   *protocol.Loadout
	payerKey  string
}
type sessionTickMsg struct{ sessionID string }
type promoteMsg struct{}

// funcMsg runs a closure on the control goroutine, serialized with every
// other transition.
type funcMsg struct{ fn func() }
type detectionsMsg struct{ detections []protocol.Detection }

// New creates an orchestrator. Call Run to start it.
func New(cfg Config, deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Gateway == nil {
		deps.Gateway = stake.Disabled{}
	}
	if deps.Detector == nil {
		deps.Detector = tracker.NopDetector{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.DetectEvery <= 0 {
		cfg.DetectEvery = 1
	}

	o := &Orchestrator{
		cfg:     cfg,
		hub:     deps.Hub,
		store:   deps.Store,
		gateway: deps.Gateway,
		clock:   deps.Clock,
		inbox:   make(chan message, 256),
		phase:   idlePhase{},
		queue:   &queue{},
		tracker: tracker.New(cfg.AimRadius),
		rng:     deps.Rand,
	}
	o.pipeline = tracker.NewPipeline(deps.Detector, func(detections []protocol.Detection) {
		o.inbox <- detectionsMsg{detections: detections}
	})
	return o
}

// Run drives the control loop and the detection worker until ctx is
// cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	go o.pipeline.Run(ctx)
	log.Info().Msg("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("orchestrator shutting down")
			return
		case m := <-o.inbox:
			o.handle(m)
		}
	}
}

func (o *Orchestrator) handle(m message) {
	switch m := m.(type) {
	case viewerConnectedMsg:
		o.broadcastState()
	case viewerGoneMsg:
		o.handleViewerGone(m.id)
	case commandMsg:
		o.handleCommand(m.id, m.cmd)
	case controlMsg:
		o.handleControl(m.id, m.frame)
	case confirmTimeoutMsg:
		o.handleConfirmTimeout(m.pendingID)
	case verifyResultMsg:
		o.handleVerifyResult(m)
	case sessionTickMsg:
		o.handleSessionTick(m.sessionID)
	case promoteMsg:
		o.tryPromote()
	case funcMsg:
		m.fn()
	case detectionsMsg:
		o.handleDetections(m.detections)
	}
}

// --- relay-facing surface; called from transport goroutines ---

// ViewerConnected re-broadcasts state so a fresh viewer gets a snapshot.
func (o *Orchestrator) ViewerConnected(id string) {
	o.inbox <- viewerConnectedMsg{id: id}
}

// ViewerDisconnected routes a dropped viewer into the recovery transitions.
func (o *Orchestrator) ViewerDisconnected(id string) {
	o.inbox <- viewerGoneMsg{id: id}
}

// HandleCommand queues a decoded command for the control loop.
func (o *Orchestrator) HandleCommand(id string, cmd protocol.Command) {
	o.inbox <- commandMsg{id: id, cmd: cmd}
}

// HandleControl queues a control frame. Control data is only meaningful now:
// when the control loop is saturated the frame is dropped, never replayed
// later.
func (o *Orchestrator) HandleControl(id string, frame []byte) {
	select {
	case o.inbox <- controlMsg{id: id, frame: frame}:
	default:
	}
}

// HandleVideoFrame samples device frames into the detection pipeline. The
// video fan-out itself happens in the relay, off this path entirely; here we
// only hand every Nth frame to inference, dropping when the worker is busy.
func (o *Orchestrator) HandleVideoFrame(frame []byte) {
	n := o.frameCount.Add(1)
	if n%uint64(o.cfg.DetectEvery) != 0 {
		return
	}
	o.pipeline.Submit(frame)
}
