package arena

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/roverduel/arena/internal/combat"
	"github.com/roverduel/arena/internal/leaderboard"
	"github.com/roverduel/arena/internal/protocol"
)

func (o *Orchestrator) handleCommand(id string, cmd protocol.Command) {
	switch cmd := cmd.(type) {
	case protocol.JoinQueue:
		o.joinQueue(id, cmd)
	case protocol.LeaveQueue:
		o.leaveQueue(id)
	case protocol.ConfirmMatch:
		o.confirmMatch(id, cmd)
	case protocol.StopGame:
		if o.ownsControl(id) {
			o.endSession("stopped by player")
		}
	case protocol.AddScore:
		o.addScore(id, cmd.Points)
	}
}

// ownsControl is the single authorization predicate: does this connection
// currently own session control. Every gated command and every control frame
// goes through it.
func (o *Orchestrator) ownsControl(id string) bool {
	ph, ok := o.phase.(activePhase)
	return ok && ph.session.connID == id
}

func (o *Orchestrator) joinQueue(id string, cmd protocol.JoinQueue) {
	name := cmd.Name
	if name == "" {
		name = "Anonymous"
	}
	if !o.queue.push(queueEntry{name: name, connID: id, loadout: cmd.Loadout}) {
		return // already queued
	}
	log.Info().Str("name", name).Int("queue_len", o.queue.len()).Msg("player joined queue")
	o.broadcastState()
	if _, idle := o.phase.(idlePhase); idle {
		o.tryPromote()
	}
}

func (o *Orchestrator) leaveQueue(id string) {
	removed := o.queue.remove(id)

	// Leaving while holding the pending confirmation aborts it and frees the
	// slot for the next candidate.
	if ph, ok := o.phase.(confirmingPhase); ok && ph.pending.entry.connID == id {
		ph.pending.timer.Stop()
		o.phase = idlePhase{}
		log.Info().Str("name", ph.pending.entry.name).Msg("candidate cancelled during confirmation")
		o.broadcastState()
		o.tryPromote()
		return
	}

	if removed {
		o.broadcastState()
	}
}

// tryPromote admits the queue head into the confirmation handshake. A
// candidate that cannot be reached is discarded and the next entry tried, so
// a promotion attempt never leaves a half-admitted candidate behind.
func (o *Orchestrator) tryPromote() {
	if _, idle := o.phase.(idlePhase); !idle {
		return
	}

	for {
		entry, ok := o.queue.pop()
		if !ok {
			return
		}

		found := protocol.NewMatchFoundEvent(int(o.cfg.ConfirmWindow.Seconds()))
		if err := o.hub.SendTo(entry.connID, protocol.MustEncode(found)); err != nil {
			log.Warn().Str("name", entry.name).Err(err).Msg("candidate unreachable, trying next")
			continue
		}

		pendingID := uuid.New().String()
		timer := o.clock.AfterFunc(o.cfg.ConfirmWindow, func() {
			o.inbox <- confirmTimeoutMsg{pendingID: pendingID}
		})
		o.phase = confirmingPhase{pending: &pendingConfirmation{
			id:    pendingID,
			entry: entry,
			timer: timer,
		}}
		log.Info().Str("name", entry.name).Msg("match found, awaiting confirmation")
		o.broadcastState()
		return
	}
}

func (o *Orchestrator) handleConfirmTimeout(pendingID string) {
	ph, ok := o.phase.(confirmingPhase)
	if !ok || ph.pending.id != pendingID {
		return // stale timer; the phase it guarded is gone
	}

	log.Info().Str("name", ph.pending.entry.name).Msg("confirmation timed out")
	if err := o.hub.SendTo(ph.pending.entry.connID, protocol.MustEncode(protocol.NewMatchTimeoutEvent())); err != nil {
		log.Debug().Err(err).Msg("timeout notice undeliverable")
	}
	o.phase = idlePhase{}
	o.broadcastState()
	o.tryPromote()
}

func (o *Orchestrator) confirmMatch(id string, cmd protocol.ConfirmMatch) {
	ph, ok := o.phase.(confirmingPhase)
	if !ok || ph.pending.entry.connID != id {
		return
	}

	if cmd.Mode == "ranked" {
		if cmd.Signature == "" || cmd.PublicKey == "" {
			log.Warn().Str("name", ph.pending.entry.name).Msg("ranked confirm missing signature or key")
			return
		}
		if ph.pending.verifying {
			return
		}
		ph.pending.verifying = true
		o.verifyStake(ph.pending.id, cmd)
		return
	}

	ph.pending.timer.Stop()
	o.startSession(ph.pending.entry, cmd.Loadout, false, "")
}

// verifyStake runs gateway verification on a background worker. The phase
// stays Confirming; the result re-enters the control loop tagged with the
// pending id, so a confirmation that was superseded meanwhile is dropped.
func (o *Orchestrator) verifyStake(pendingID string, cmd protocol.ConfirmMatch) {
	log.Info().Str("payer", cmd.PublicKey).Msg("verifying ranked entry stake")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.VerifyTimeout)
		defer cancel()

		ok, err := o.gateway.Verify(ctx, cmd.Signature, cmd.PublicKey)
		if err != nil {
			log.Warn().Err(err).Msg("stake verification errored")
			ok = false
		}
		o.inbox <- verifyResultMsg{
			pendingID: pendingID,
			ok:        ok,
			loadout:   cmd.Loadout,
			payerKey:  cmd.PublicKey,
		}
	}()
}

func (o *Orchestrator) handleVerifyResult(m verifyResultMsg) {
	ph, ok := o.phase.(confirmingPhase)
	if !ok || ph.pending.id != m.pendingID {
		return // candidate timed out, left, or disconnected while verifying
	}

	ph.pending.timer.Stop()
	if !m.ok {
		log.Warn().Str("name", ph.pending.entry.name).Msg("stake verification failed, aborting ranked entry")
		if err := o.hub.SendTo(ph.pending.entry.connID, protocol.MustEncode(protocol.NewMatchTimeoutEvent())); err != nil {
			log.Debug().Err(err).Msg("abort notice undeliverable")
		}
		o.phase = idlePhase{}
		o.broadcastState()
		o.tryPromote()
		return
	}

	o.startSession(ph.pending.entry, m.loadout, true, m.payerKey)
}

func (o *Orchestrator) startSession(entry queueEntry, loadout *protocol.Loadout, ranked bool, payerKey string) {
	classID := ""
	switch {
	case loadout != nil:
		classID = loadout.ID
	case entry.loadout != nil:
		classID = entry.loadout.ID
	}
	class := combat.ClassByID(classID)

	s := &session{
		id:        uuid.New().String(),
		name:      entry.name,
		connID:    entry.connID,
		engine:    combat.NewEngine(class, o.rng),
		ranked:    ranked,
		payerKey:  payerKey,
		startedAt: o.clock.Now(),
		duration:  o.cfg.GameDuration,
		stop:      make(chan struct{}),
	}
	o.phase = activePhase{session: s}

	log.Info().
		Str("player", s.name).
		Str("class", class.Name).
		Bool("ranked", ranked).
		Msg("session started")
	o.broadcastState()
	o.runSessionTicker(s)
}

// runSessionTicker drives the periodic broadcast loop for one session. Ticks
// carry the session id; once the session ends, any tick still in flight is
// discarded by the id check.
func (o *Orchestrator) runSessionTicker(s *session) {
	go func() {
		ticker := o.clock.NewTicker(o.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.Chan():
				select {
				case o.inbox <- sessionTickMsg{sessionID: s.id}:
				case <-s.stop:
					return
				}
			}
		}
	}()
}

func (o *Orchestrator) handleSessionTick(sessionID string) {
	ph, ok := o.phase.(activePhase)
	if !ok || ph.session.id != sessionID {
		return
	}
	if o.timeLeft(ph.session) <= 0 {
		o.endSession("time expired")
		return
	}
	o.broadcastState()
}

func (o *Orchestrator) timeLeft(s *session) int {
	elapsed := o.clock.Now().Sub(s.startedAt)
	left := int((s.duration - elapsed).Seconds())
	if left < 0 {
		return 0
	}
	return left
}

// endSession tears down the active session: payout gate, leaderboard append,
// game-over notice, cleared broadcast, and delayed promotion of the next
// candidate. Idempotent: calling it while not active is a no-op, which makes
// the racing disconnect and timer paths safe.
func (o *Orchestrator) endSession(reason string) {
	ph, ok := o.phase.(activePhase)
	if !ok {
		return
	}
	s := ph.session
	o.phase = idlePhase{}
	close(s.stop)

	log.Info().
		Str("player", s.name).
		Int("score", s.score).
		Str("reason", reason).
		Msg("session ended")

	if s.ranked && s.score >= o.cfg.WinThreshold && s.payerKey != "" {
		o.payout(s)
	}

	record := leaderboard.Record{
		Name:      s.name,
		Score:     s.score,
		Class:     s.engine.Class().Name,
		Mode:      sessionMode(s),
		CreatedAt: o.clock.Now(),
	}
	if err := o.store.Append(record); err != nil {
		log.Error().Err(err).Msg("failed to append leaderboard record")
	}

	stats := protocol.GameOverStats{
		Score: s.score,
		Shots: s.engine.Shots(),
		Kills: s.engine.Kills(),
		Class: s.engine.Class().Name,
	}
	if err := o.hub.SendTo(s.connID, protocol.MustEncode(protocol.NewGameOverEvent(stats))); err != nil {
		log.Debug().Err(err).Msg("game-over notice undeliverable")
	}

	o.broadcastState()

	// Hold the slot briefly so viewers see the cleared state before the next
	// confirmation starts.
	o.clock.AfterFunc(o.cfg.PostGameCooldown, func() {
		o.inbox <- promoteMsg{}
	})
}

// payout is fire-and-forget: failure is logged and never blocks teardown.
func (o *Orchestrator) payout(s *session) {
	dest := s.payerKey
	amount := o.cfg.PayoutLamports
	log.Info().Str("player", s.name).Str("destination", dest).Msg("ranked win, initiating payout")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.VerifyTimeout)
		defer cancel()
		if _, err := o.gateway.Payout(ctx, dest, amount); err != nil {
			log.Error().Err(err).Str("destination", dest).Msg("payout failed")
		}
	}()
}

func sessionMode(s *session) string {
	if s.ranked {
		return "ranked"
	}
	return "casual"
}

func (o *Orchestrator) addScore(id string, points int) {
	if !o.ownsControl(id) {
		return
	}
	ph := o.phase.(activePhase)
	ph.session.score += points
	if ph.session.score < 0 {
		ph.session.score = 0
	}
	o.broadcastState()
}

// handleControl gates and forwards one control frame, and feeds fire inputs
// to the combat engine.
func (o *Orchestrator) handleControl(id string, frame []byte) {
	if !o.ownsControl(id) {
		return // silently dropped; not an error
	}
	parsed, err := protocol.ParseControlFrame(frame)
	if err != nil {
		log.Debug().Err(err).Msg("dropping malformed control frame")
		return
	}

	o.hub.ForwardToDevice(frame)

	if parsed.FirePressed() {
		o.handleFire()
	}
}

func (o *Orchestrator) handleFire() {
	ph := o.phase.(activePhase)
	s := ph.session

	result := s.engine.Fire(o.clock.Now(), o.tracker.AimTargets())
	if !result.Fired {
		return
	}
	s.score += result.ScoreDelta

	if len(result.Hits) > 0 {
		log.Debug().Strs("hits", result.Hits).Int("score", s.score).Msg("shot hit")
	}
	if result.SquadWiped {
		log.Info().Str("player", s.name).Msg("squad wiped, roster respawned")
	}
	o.broadcastState()
}

func (o *Orchestrator) handleDetections(detections []protocol.Detection) {
	o.tracker.Update(detections)
	// Broadcast even when empty so clients drop stale overlays.
	o.hub.BroadcastText(protocol.MustEncode(protocol.NewQRDetectedEvent(detections)))
}

// handleViewerGone routes disconnects through the same transitions as
// explicit leave/stop: there is no separate disconnect state.
func (o *Orchestrator) handleViewerGone(id string) {
	if o.ownsControl(id) {
		o.queue.remove(id)
		log.Info().Str("conn_id", id).Msg("session owner disconnected")
		o.endSession("owner disconnected")
		return
	}
	o.leaveQueue(id)
}

// broadcastState serializes the current snapshot and fans it out to every
// viewer.
func (o *Orchestrator) broadcastState() {
	ev := protocol.NewGameStateEvent()
	ev.Queue = o.queue.names()

	top, err := o.store.Top(10)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard for snapshot")
	}
	for _, r := range top {
		ev.Leaderboard = append(ev.Leaderboard, protocol.LeaderboardEntry{
			Name:  r.Name,
			Score: r.Score,
			Class: r.Class,
			Mode:  r.Mode,
			Date:  r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	if ph, ok := o.phase.(activePhase); ok {
		s := ph.session
		ev.Active = true
		ev.TimeLeft = o.timeLeft(s)
		ev.Score = s.score
		ev.Player = s.name
		ev.Ammo = s.engine.Ammo()
		ev.MaxAmmo = s.engine.MaxAmmo()
		for _, t := range s.engine.Roster() {
			ev.Enemies = append(ev.Enemies, protocol.EnemyStatus{
				ID:    t.ID,
				Name:  t.Callsign,
				HP:    t.HP,
				MaxHP: t.MaxHP,
			})
		}
	}

	o.hub.BroadcastText(protocol.MustEncode(ev))
}
