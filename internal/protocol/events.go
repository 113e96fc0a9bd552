package protocol

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// EventType identifies an outbound server event.
type EventType string

const (
	EventGameState    EventType = "game_state"
	EventMatchFound   EventType = "match_found"
	EventMatchTimeout EventType = "match_timeout"
	EventGameOver     EventType = "game_over"
	EventQRDetected   EventType = "qr_detected"
)

// GameStateEvent is the full state snapshot broadcast to every viewer on each
// state change and once per timer tick. Ammo, MaxAmmo and Enemies carry the
// combat HUD state and are zero/empty while no session is active.
type GameStateEvent struct {
	Type        EventType          `json:"type"`
	Active      bool               `json:"active"`
	TimeLeft    int                `json:"time_left"`
	Score       int                `json:"score"`
	Player      string             `json:"player"`
	Queue       []string           `json:"queue"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Ammo        int                `json:"ammo"`
	MaxAmmo     int                `json:"max_ammo"`
	Enemies     []EnemyStatus      `json:"enemies"`
}

// EnemyStatus is one roster target's HUD line.
type EnemyStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
}

// LeaderboardEntry is one row of the top-10 board inside a game_state snapshot.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Class string `json:"class"`
	Mode  string `json:"mode"`
	Date  string `json:"date"`
}

// MatchFoundEvent tells the queue head it has been admitted and how long it
// has to confirm, in seconds.
type MatchFoundEvent struct {
	Type    EventType `json:"type"`
	Timeout int       `json:"timeout"`
}

// MatchTimeoutEvent tells a candidate its confirmation window closed, either
// by timer or by a failed ranked verification.
type MatchTimeoutEvent struct {
	Type EventType `json:"type"`
}

// GameOverStats summarizes a finished session for the player.
type GameOverStats struct {
	Score int    `json:"score"`
	Shots int    `json:"shots"`
	Kills int    `json:"kills"`
	Class string `json:"class"`
}

// GameOverEvent is sent to the session owner when the session ends.
type GameOverEvent struct {
	Type  EventType     `json:"type"`
	Stats GameOverStats `json:"stats"`
}

// Detection is one decoded marker in frame space (640x480 native). BBox holds
// the four corner points as [x,y] pairs, clockwise from top left.
type Detection struct {
	Text string    `json:"text"`
	BBox [4][2]int `json:"bbox"`
}

// QRDetectedEvent broadcasts the latest detections. It is sent even when Data
// is empty so clients clear stale overlays.
type QRDetectedEvent struct {
	Type EventType   `json:"type"`
	Data []Detection `json:"data"`
}

func NewGameStateEvent() GameStateEvent {
	return GameStateEvent{
		Type:        EventGameState,
		Queue:       []string{},
		Leaderboard: []LeaderboardEntry{},
		Enemies:     []EnemyStatus{},
	}
}
func NewMatchFoundEvent(timeoutSec int) MatchFoundEvent {
	return MatchFoundEvent{Type: EventMatchFound, Timeout: timeoutSec}
}
func NewMatchTimeoutEvent() MatchTimeoutEvent { return MatchTimeoutEvent{Type: EventMatchTimeout} }
func NewGameOverEvent(stats GameOverStats) GameOverEvent {
	return GameOverEvent{Type: EventGameOver, Stats: stats}
}
func NewQRDetectedEvent(data []Detection) QRDetectedEvent {
	if data == nil {
		data = []Detection{}
	}
	return QRDetectedEvent{Type: EventQRDetected, Data: data}
}

// MustEncode marshals an event, logging instead of failing on the (static)
// event types that cannot actually fail to marshal.
func MustEncode(event any) []byte {
	b, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return nil
	}
	return b
}
