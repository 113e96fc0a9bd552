package protocol

import (
	"encoding/json"
	"fmt"
)

// Action identifies an inbound client command.
type Action string

const (
	ActionJoinQueue    Action = "join_queue"
	ActionLeaveQueue   Action = "leave_queue"
	ActionConfirmMatch Action = "confirm_match"
	ActionStopGame     Action = "stop_game"
	ActionAddScore     Action = "add_score"
)

// Command is the closed set of inbound client commands. Messages are decoded
// exactly once, at the websocket boundary; everything past that point works
// with these types.
type Command interface {
	Action() Action
}

// Loadout is the class selection a player carries into a session.
type Loadout struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JoinQueue enters the matchmaking queue.
type JoinQueue struct {
	Name    string   `json:"name"`
	Loadout *Loadout `json:"loadout,omitempty"`
}

// LeaveQueue withdraws from the queue, or aborts a pending confirmation.
type LeaveQueue struct{}

// ConfirmMatch accepts a match_found offer. Ranked mode additionally carries
// the entry-fee transaction signature and the payer's wallet public key.
type ConfirmMatch struct {
	Loadout   *Loadout `json:"loadout"`
	Mode      string   `json:"mode"`
	Signature string   `json:"signature,omitempty"`
	PublicKey string   `json:"publicKey,omitempty"`
}

// StopGame ends the sender's active session early.
type StopGame struct{}

// AddScore is the simulated scoring path used during development. The wire
// field is "score" for compatibility with the client.
type AddScore struct {
	Points int `json:"score"`
}

func (JoinQueue) Action() Action    { return ActionJoinQueue }
func (LeaveQueue) Action() Action   { return ActionLeaveQueue }
func (ConfirmMatch) Action() Action { return ActionConfirmMatch }
func (StopGame) Action() Action     { return ActionStopGame }
func (AddScore) Action() Action     { return ActionAddScore }

type envelope struct {
	Action Action `json:"action"`
}

// ErrUnknownAction is returned for actions outside the closed command set.
type ErrUnknownAction struct {
	Got Action
}

func (e ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action %q", string(e.Got))
}

// DecodeCommand parses a raw text message into its typed command.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode command envelope: %w", err)
	}

	switch env.Action {
	case ActionJoinQueue:
		var cmd JoinQueue
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to decode join_queue: %w", err)
		}
		return cmd, nil

	case ActionLeaveQueue:
		return LeaveQueue{}, nil

	case ActionConfirmMatch:
		var cmd ConfirmMatch
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to decode confirm_match: %w", err)
		}
		return cmd, nil

	case ActionStopGame:
		return StopGame{}, nil

	case ActionAddScore:
		var cmd AddScore
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to decode add_score: %w", err)
		}
		return cmd, nil

	default:
		return nil, ErrUnknownAction{Got: env.Action}
	}
}
