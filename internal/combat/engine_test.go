package combat

import (
	"math/rand"
	"testing"
	"time"
)

func newTestEngine(t *testing.T, class Class) *Engine {
	t.Helper()
	return NewEngine(class, rand.New(rand.NewSource(1)))
}

func TestRosterGeneration(t *testing.T) {
	e := newTestEngine(t, Vanguard)
	roster := e.Roster()
	if len(roster) != RosterSize {
		t.Fatalf("roster size = %d, want %d", len(roster), RosterSize)
	}
	seen := map[string]bool{}
	for _, tgt := range roster {
		if tgt.HP < TargetMinHP || tgt.HP > TargetMaxHP {
			t.Fatalf("target %s hp %d outside [%d,%d]", tgt.Callsign, tgt.HP, TargetMinHP, TargetMaxHP)
		}
		if tgt.HP != tgt.MaxHP {
			t.Fatalf("fresh target %s hp %d != max %d", tgt.Callsign, tgt.HP, tgt.MaxHP)
		}
		if seen[tgt.ID] {
			t.Fatalf("duplicate target id %s", tgt.ID)
		}
		seen[tgt.ID] = true
	}
}

func TestCooldownGate(t *testing.T) {
	e := newTestEngine(t, Vanguard)
	start := time.Unix(100, 0)

	if !e.Fire(start, nil).Fired {
		t.Fatal("first shot should not be cooldown gated")
	}
	if e.Fire(start.Add(100*time.Millisecond), nil).Fired {
		t.Fatal("shot inside 500ms cooldown should be rejected")
	}
	if !e.Fire(start.Add(Vanguard.Cooldown), nil).Fired {
		t.Fatal("shot at exactly the cooldown boundary should be accepted")
	}
}

func TestAmmoDecrementsOncePerAcceptedShotIncludingMisses(t *testing.T) {
	e := newTestEngine(t, Juggernaut)
	now := time.Unix(100, 0)

	for i := 0; i < Juggernaut.MaxAmmo; i++ {
		res := e.Fire(now, nil) // all misses
		if !res.Fired {
			t.Fatalf("shot %d rejected unexpectedly", i)
		}
		if want := Juggernaut.MaxAmmo - i - 1; e.Ammo() != want {
			t.Fatalf("ammo after shot %d = %d, want %d", i, e.Ammo(), want)
		}
		now = now.Add(Juggernaut.Cooldown)
	}

	// Empty: further fire attempts are rejected and ammo never goes negative.
	if e.Fire(now, nil).Fired {
		t.Fatal("fire with zero ammo should be rejected")
	}
	if e.Ammo() != 0 {
		t.Fatalf("ammo = %d, want 0", e.Ammo())
	}
}

func TestRejectedShotDoesNotCountOrStamp(t *testing.T) {
	e := newTestEngine(t, Vanguard)
	start := time.Unix(100, 0)
	e.Fire(start, nil)
	e.Fire(start.Add(time.Millisecond), nil) // gated

	if e.Shots() != 1 {
		t.Fatalf("shots = %d, want 1", e.Shots())
	}
	if e.Ammo() != Vanguard.MaxAmmo-1 {
		t.Fatalf("ammo = %d, want %d", e.Ammo(), Vanguard.MaxAmmo-1)
	}
}

func TestDamageAndKillBonus(t *testing.T) {
	e := newTestEngine(t, Juggernaut)
	now := time.Unix(100, 0)
	alpha := e.Roster()[0]

	var score int
	shots := 0
	for !alpha.Dead() {
		res := e.Fire(now, []string{"target-1"})
		if !res.Fired {
			t.Fatal("shot rejected")
		}
		if len(res.Hits) != 1 || res.Hits[0] != "Alpha" {
			t.Fatalf("hits = %v, want [Alpha]", res.Hits)
		}
		score += res.ScoreDelta
		shots++
		now = now.Add(Juggernaut.Cooldown)
		if shots > 10 {
			t.Fatal("target never died")
		}
	}

	if score != KillBonus {
		t.Fatalf("score = %d, want exactly one kill bonus %d", score, KillBonus)
	}
	if alpha.HP != 0 {
		t.Fatalf("dead target hp = %d, want clamped 0", alpha.HP)
	}
}

func TestDeadTargetHitsAreNoOps(t *testing.T) {
	e := newTestEngine(t, Juggernaut)
	now := time.Unix(100, 0)
	alpha := e.Roster()[0]

	for !alpha.Dead() {
		e.Fire(now, []string{"target-1"})
		now = now.Add(Juggernaut.Cooldown)
	}

	res := e.Fire(now, []string{"target-1"})
	if !res.Fired {
		t.Fatal("shot should still fire (and consume ammo)")
	}
	if res.ScoreDelta != 0 {
		t.Fatalf("score delta on dead target = %d, want 0", res.ScoreDelta)
	}
	if len(res.Hits) != 0 {
		t.Fatalf("hits on dead target = %v, want none", res.Hits)
	}
	if alpha.HP != 0 {
		t.Fatalf("dead target hp changed to %d", alpha.HP)
	}
}

func TestSquadWipeRefillsAmmoAndRerollsRoster(t *testing.T) {
	e := newTestEngine(t, Juggernaut)
	now := time.Unix(100, 0)

	ids := []string{"target-1", "target-2", "target-3", "target-4", "target-5", "target-6"}
	var wiped bool
	for i := 0; i < 100 && !wiped; i++ {
		res := e.Fire(now, ids)
		wiped = res.SquadWiped
		now = now.Add(Juggernaut.Cooldown)
	}
	if !wiped {
		t.Fatal("squad wipe never triggered")
	}

	// Wipe effects land in the same step as the last kill.
	if e.Ammo() != Juggernaut.MaxAmmo {
		t.Fatalf("ammo after wipe = %d, want refilled %d", e.Ammo(), Juggernaut.MaxAmmo)
	}
	for _, tgt := range e.Roster() {
		if tgt.Dead() {
			t.Fatalf("target %s still dead after wipe", tgt.Callsign)
		}
		if tgt.HP < TargetMinHP || tgt.HP > TargetMaxHP {
			t.Fatalf("rerolled hp %d outside [%d,%d]", tgt.HP, TargetMinHP, TargetMaxHP)
		}
	}
}

func TestResolveTargetNumericSuffix(t *testing.T) {
	e := newTestEngine(t, Vanguard)
	roster := e.Roster()

	cases := map[string]string{
		"target-3": "Charlie",
		"TARGET_1": "Alpha",
		"enemy6":   "Foxtrot",
		"bravo":    "Bravo",   // case-insensitive callsign fallback
		"ECHO":     "Echo",
	}
	for id, want := range cases {
		got := resolveTarget(roster, id)
		if got == nil || got.Callsign != want {
			t.Fatalf("resolve(%q) = %v, want %s", id, got, want)
		}
	}

	for _, id := range []string{"target-7", "target-0", "unknown", ""} {
		if got := resolveTarget(roster, id); got != nil {
			t.Fatalf("resolve(%q) = %s, want nil", id, got.Callsign)
		}
	}
}

func TestClassByIDFallsBackToVanguard(t *testing.T) {
	if c := ClassByID("juggernaut"); c.ID != "juggernaut" {
		t.Fatalf("got %q", c.ID)
	}
	if c := ClassByID("nonsense"); c.ID != Vanguard.ID {
		t.Fatalf("unknown class resolved to %q, want vanguard", c.ID)
	}
	if c := ClassByID(""); c.ID != Vanguard.ID {
		t.Fatalf("empty class resolved to %q, want vanguard", c.ID)
	}
}
