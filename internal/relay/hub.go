// Package relay owns the live connection set and moves bytes: video frames
// from the device fan out to every viewer, control frames forward to the
// device, and JSON state snapshots broadcast to all viewers. It makes no
// gating decisions; authorization lives with the orchestrator.
package relay

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrUnknownViewer is returned by SendTo for connections not in the live set.
var ErrUnknownViewer = errors.New("unknown viewer connection")

// Hub maintains the viewer set and the single device slot. Fan-out is
// best-effort and concurrent per viewer: one slow or broken peer never stalls
// delivery to the rest, and failed peers are pruned after the round, not
// during it.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string]Conn
	device  Conn

	// onViewerGone routes pruned viewers into the orchestrator's disconnect
	// recovery. May be nil in tests.
	onViewerGone func(id string)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{viewers: make(map[string]Conn)}
}

// SetViewerGoneHandler installs the disconnect-recovery hook. Must be called
// before any traffic flows.
func (h *Hub) SetViewerGoneHandler(fn func(id string)) {
	h.onViewerGone = fn
}

// AddViewer registers a viewer connection.
func (h *Hub) AddViewer(c Conn) {
	h.mu.Lock()
	h.viewers[c.ID()] = c
	total := len(h.viewers)
	h.mu.Unlock()
	log.Info().Str("conn_id", c.ID()).Int("viewers", total).Msg("viewer connected")
}

// RemoveViewer drops a viewer from the live set, if present.
func (h *Hub) RemoveViewer(id string) {
	h.mu.Lock()
	c, ok := h.viewers[id]
	if ok {
		delete(h.viewers, id)
	}
	total := len(h.viewers)
	h.mu.Unlock()
	if ok {
		c.Close()
		log.Info().Str("conn_id", id).Int("viewers", total).Msg("viewer removed")
	}
}

// SetDevice installs the device connection, replacing any previous one.
func (h *Hub) SetDevice(c Conn) {
	h.mu.Lock()
	prev := h.device
	h.device = c
	h.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
	log.Info().Str("conn_id", c.ID()).Msg("device connected")
}

// ClearDevice removes the device slot if it still holds the given
// connection. A newer device that already replaced it is left alone.
func (h *Hub) ClearDevice(id string) {
	h.mu.Lock()
	if h.device != nil && h.device.ID() == id {
		h.device = nil
	}
	h.mu.Unlock()
	log.Info().Str("conn_id", id).Msg("device disconnected")
}

// ViewerCount returns the number of live viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// BroadcastBinary fans a video frame out to every viewer concurrently.
func (h *Hub) BroadcastBinary(frame []byte) {
	h.broadcast(func(c Conn) error { return c.SendBinary(frame) })
}

// BroadcastText fans a JSON event out to every viewer concurrently.
func (h *Hub) BroadcastText(msg []byte) {
	h.broadcast(func(c Conn) error { return c.SendText(msg) })
}

func (h *Hub) broadcast(send func(Conn) error) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.viewers))
	for _, c := range h.viewers {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	var (
		wg       sync.WaitGroup
		failedMu sync.Mutex
		failed   []string
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			if err := send(c); err != nil {
				failedMu.Lock()
				failed = append(failed, c.ID())
				failedMu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	for _, id := range failed {
		log.Warn().Str("conn_id", id).Msg("send failed, pruning viewer")
		h.RemoveViewer(id)
		h.notifyViewerGone(id)
	}
}

// notifyViewerGone fires the prune hook on its own goroutine. Broadcasts can
// run on the orchestrator's control goroutine, and the hook feeds that same
// goroutine's inbox; a synchronous call could block on itself.
func (h *Hub) notifyViewerGone(id string) {
	if h.onViewerGone != nil {
		go h.onViewerGone(id)
	}
}

// SendTo delivers a JSON event to one viewer. Returns an error when the
// viewer is unknown or the send fails; a failing viewer is pruned.
func (h *Hub) SendTo(id string, msg []byte) error {
	h.mu.RLock()
	c, ok := h.viewers[id]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownViewer
	}
	if err := c.SendText(msg); err != nil {
		log.Warn().Str("conn_id", id).Err(err).Msg("targeted send failed, pruning viewer")
		h.RemoveViewer(id)
		h.notifyViewerGone(id)
		return err
	}
	return nil
}

// ForwardToDevice pushes a control frame to the device, best effort. Nothing
// is buffered: with no device attached the frame is dropped.
func (h *Hub) ForwardToDevice(frame []byte) {
	h.mu.RLock()
	device := h.device
	h.mu.RUnlock()
	if device == nil {
		return
	}
	if err := device.SendBinary(frame); err != nil {
		log.Warn().Err(err).Msg("control forward to device failed")
	}
}
