// Package combat implements the per-session ammo, cooldown, damage and
// respawn rules. The engine is deterministic given its clock inputs and RNG;
// target selection comes from the caller (the aim tracker), never from the
// engine itself.
package combat

import (
	"math/rand"
	"time"
)

// KillBonus is the score awarded exactly once per destroyed target.
const KillBonus = 10

// FireResult reports the outcome of one fire attempt. Hits lists the
// callsigns damaged this invocation, for UI feedback only; callers must not
// infer damage amounts from it.
type FireResult struct {
	Fired      bool
	Hits       []string
	ScoreDelta int
	SquadWiped bool
}

// Engine owns one session's combat state. It is not safe for concurrent use;
// the orchestrator invokes it from its single control goroutine.
type Engine struct {
	class    Class
	ammo     int
	lastFire time.Time
	fired    bool
	roster   []*Target
	rng      *rand.Rand

	shots int
	kills int
}

// NewEngine creates a session engine with full ammo and a fresh roster.
func NewEngine(class Class, rng *rand.Rand) *Engine {
	return &Engine{
		class:  class,
		ammo:   class.MaxAmmo,
		roster: newRoster(rng),
		rng:    rng,
	}
}

// Fire processes one fire input at time now against the target ids currently
// under the aim threshold. Gates run in order: cooldown, then ammo. A shot
// that passes the gates consumes ammo whether or not it hits anything.
func (e *Engine) Fire(now time.Time, aimTargets []string) FireResult {
	if e.fired && now.Sub(e.lastFire) < e.class.Cooldown {
		return FireResult{}
	}
	if e.ammo <= 0 {
		return FireResult{}
	}

	e.ammo--
	e.lastFire = now
	e.fired = true
	e.shots++

	res := FireResult{Fired: true}
	for _, id := range aimTargets {
		t := resolveTarget(e.roster, id)
		if t == nil || t.Dead() {
			// Unknown ids and already-destroyed targets are no-ops.
			continue
		}
		t.HP -= e.class.Damage
		if t.HP <= 0 {
			t.HP = 0
			res.ScoreDelta += KillBonus
			e.kills++
		}
		res.Hits = append(res.Hits, t.Callsign)
	}

	if e.allDead() {
		e.respawn()
		res.SquadWiped = true
	}
	return res
}

func (e *Engine) allDead() bool {
	for _, t := range e.roster {
		if !t.Dead() {
			return false
		}
	}
	return true
}

// respawn refills ammo and re-rolls every target's HP. Ids and callsigns are
// stable across respawns.
func (e *Engine) respawn() {
	e.ammo = e.class.MaxAmmo
	for _, t := range e.roster {
		hp := rollHP(e.rng)
		t.HP = hp
		t.MaxHP = hp
	}
}

// Ammo returns the remaining ammo.
func (e *Engine) Ammo() int { return e.ammo }

// MaxAmmo returns the class ammo capacity.
func (e *Engine) MaxAmmo() int { return e.class.MaxAmmo }

// Class returns the session's combat class.
func (e *Engine) Class() Class { return e.class }

// Shots returns the number of accepted fire inputs so far.
func (e *Engine) Shots() int { return e.shots }

// Kills returns the number of targets destroyed so far.
func (e *Engine) Kills() int { return e.kills }

// Roster returns the live roster. Callers must treat it as read-only.
func (e *Engine) Roster() []*Target { return e.roster }
