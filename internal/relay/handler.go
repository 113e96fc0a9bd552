package relay

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/roverduel/arena/internal/protocol"
)

// Orchestrator is what the relay needs from the session orchestrator: command
// handling, control gating, and connect/disconnect recovery routing.
type Orchestrator interface {
	ViewerConnected(id string)
	ViewerDisconnected(id string)
	HandleCommand(id string, cmd protocol.Command)
	HandleControl(id string, frame []byte)
	HandleVideoFrame(frame []byte)
}

// Config holds websocket transport tuning.
type Config struct {
	WriteTimeout   time.Duration
	MaxMessageSize int64
	CheckOrigin    func(r *http.Request) bool
}

// DefaultConfig returns transport defaults sized for JPEG video frames.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1 << 20, // 1MB, bounded by device JPEG size
		CheckOrigin:    func(r *http.Request) bool { return true },
	}
}

// Handler terminates the two websocket endpoints and feeds the hub and the
// orchestrator.
type Handler struct {
	hub      *Hub
	orch     Orchestrator
	config   Config
	upgrader websocket.Upgrader
}

// NewHandler wires the endpoints to hub and orchestrator, and installs the
// hub's prune hook so send-failure pruning routes into the same disconnect
// recovery as read failures.
func NewHandler(hub *Hub, orch Orchestrator, config Config) *Handler {
	h := &Handler{
		hub:    hub,
		orch:   orch,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	hub.SetViewerGoneHandler(orch.ViewerDisconnected)
	return h
}

// RegisterRoutes registers the websocket routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/client", h.HandleViewer)
	mux.HandleFunc("/ws/device", h.HandleDevice)
}

// HandleViewer upgrades and serves a Viewer/Controller connection.
func (h *Handler) HandleViewer(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade viewer connection")
		return
	}
	conn := newWSConn(ws, h.config.WriteTimeout)
	h.hub.AddViewer(conn)
	h.orch.ViewerConnected(conn.ID())

	go h.viewerReadLoop(conn, ws)
}

func (h *Handler) viewerReadLoop(conn *wsConn, ws *websocket.Conn) {
	defer func() {
		h.hub.RemoveViewer(conn.ID())
		h.orch.ViewerDisconnected(conn.ID())
	}()
	ws.SetReadLimit(h.config.MaxMessageSize)

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn_id", conn.ID()).Msg("viewer read error")
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			h.orch.HandleControl(conn.ID(), data)
		case websocket.TextMessage:
			cmd, err := protocol.DecodeCommand(data)
			if err != nil {
				log.Warn().Err(err).Str("conn_id", conn.ID()).Msg("ignoring bad command")
				continue
			}
			h.orch.HandleCommand(conn.ID(), cmd)
		}
	}
}

// HandleDevice upgrades and serves the device connection. Video frames fan
// out to viewers directly, off the orchestrator's control thread, and are
// sampled into the detection pipeline via the orchestrator.
func (h *Handler) HandleDevice(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade device connection")
		return
	}
	conn := newWSConn(ws, h.config.WriteTimeout)
	h.hub.SetDevice(conn)

	go h.deviceReadLoop(conn, ws)
}

func (h *Handler) deviceReadLoop(conn *wsConn, ws *websocket.Conn) {
	defer func() {
		h.hub.ClearDevice(conn.ID())
		conn.Close()
	}()
	ws.SetReadLimit(h.config.MaxMessageSize)

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn_id", conn.ID()).Msg("device read error")
			}
			return
		}
		switch messageType {
		case websocket.BinaryMessage:
			h.hub.BroadcastBinary(data)
			h.orch.HandleVideoFrame(data)
		case websocket.TextMessage:
			log.Warn().Str("conn_id", conn.ID()).Msg("unexpected text message from device")
		}
	}
}
