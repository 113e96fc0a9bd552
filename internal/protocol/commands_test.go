package protocol

import (
	"errors"
	"testing"
)

func TestDecodeJoinQueue(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"action":"join_queue","name":"Ada","loadout":{"id":"juggernaut","name":"Juggernaut"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	join, ok := cmd.(JoinQueue)
	if !ok {
		t.Fatalf("expected JoinQueue, got %T", cmd)
	}
	if join.Name != "Ada" {
		t.Fatalf("name = %q, want Ada", join.Name)
	}
	if join.Loadout == nil || join.Loadout.ID != "juggernaut" {
		t.Fatalf("loadout not decoded: %+v", join.Loadout)
	}
}

func TestDecodeConfirmMatchRanked(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"action":"confirm_match","loadout":{"id":"vanguard","name":"Vanguard"},"mode":"ranked","signature":"5Kd3","publicKey":"9xQe"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	confirm, ok := cmd.(ConfirmMatch)
	if !ok {
		t.Fatalf("expected ConfirmMatch, got %T", cmd)
	}
	if confirm.Mode != "ranked" || confirm.Signature != "5Kd3" || confirm.PublicKey != "9xQe" {
		t.Fatalf("ranked fields lost: %+v", confirm)
	}
}

func TestDecodeAddScoreUsesScoreField(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"action":"add_score","score":15}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	add, ok := cmd.(AddScore)
	if !ok {
		t.Fatalf("expected AddScore, got %T", cmd)
	}
	if add.Points != 15 {
		t.Fatalf("points = %d, want 15", add.Points)
	}
}

func TestDecodeUnknownAction(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"action":"self_destruct"}`))
	var unknown ErrUnknownAction
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if unknown.Got != "self_destruct" {
		t.Fatalf("unexpected action in error: %q", unknown.Got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeCommand([]byte(`{notjson`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
