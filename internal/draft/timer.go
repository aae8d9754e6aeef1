// internal/draft/timer.go
package draft

import (
	"log"
	"time"

	"github.com/civbuilder/civdraft/internal/models"
)

// The turn timer is modelled as an absolute deadline rather than a ticking
// counter: remaining time is derived on demand from the deadline (or from
// the frozen remainder while paused), which makes pause/resume drift-free
// and lets a restarted process re-arm from the persisted snapshot.

// armTimerLocked starts the countdown for the current turn. No-op when the
// preset has no timer or the draft is not picking.
func (s *Session) armTimerLocked() {
	if !s.Draft.Preset.TimerEnabled || s.Draft.Gamestate.Phase != models.PhasePicking {
		return
	}
	d := time.Duration(s.Draft.Preset.TimerDuration) * time.Second
	s.Draft.Gamestate.TimerDeadline = s.Clock.Now().Add(d).UnixMilli()
	s.Draft.Gamestate.TimerPaused = false
	s.scheduleExpiryLocked(d)
}

// scheduleExpiryLocked replaces the scheduled expiry callback. The captured
// turn and generation guard the callback against firing for a turn it was
// not armed for.
func (s *Session) scheduleExpiryLocked(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	turn := s.Draft.Gamestate.Turn
	s.timer = s.Clock.AfterFunc(d, func() {
		s.expire(turn, gen)
	})
}

// stopTimerLocked disarms the countdown entirely.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.Draft.Gamestate.TimerDeadline = 0
	s.Draft.Gamestate.TimerPaused = false
	s.Draft.Gamestate.TimerRemaining = 0
}

// remainingLocked derives the seconds left on the clock.
func (s *Session) remainingLocked() float64 {
	gs := &s.Draft.Gamestate
	if !s.Draft.Preset.TimerEnabled {
		return 0
	}
	if gs.TimerPaused {
		return gs.TimerRemaining
	}
	if gs.TimerDeadline == 0 {
		return 0
	}
	rem := float64(gs.TimerDeadline-s.Clock.Now().UnixMilli()) / 1000
	if rem < 0 {
		rem = 0
	}
	return rem
}

// refreshTimerLocked updates the derived snapshot fields before a broadcast.
func (s *Session) refreshTimerLocked() {
	if !s.Draft.Preset.TimerEnabled {
		return
	}
	s.Draft.Gamestate.TimerRemaining = s.remainingLocked()
	s.Draft.Gamestate.TimerLastUpdate = s.Clock.Now().UnixMilli()
}

// PauseTimer freezes the countdown. Host only.
func (s *Session) PauseTimer(actor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor != s.Draft.HostSeat() {
		return ErrHostOnly
	}
	if !s.Draft.Preset.TimerEnabled {
		return ErrTimerDisabled
	}
	gs := &s.Draft.Gamestate
	if gs.Phase != models.PhasePicking || gs.TimerPaused {
		return ErrIllegalPhase
	}
	gs.TimerRemaining = s.remainingLocked()
	gs.TimerPaused = true
	gs.TimerDeadline = 0
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.notifyTimerLocked()
	return s.flushLocked()
}

// ResumeTimer restarts a paused countdown from the frozen remainder. Host
// only.
func (s *Session) ResumeTimer(actor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor != s.Draft.HostSeat() {
		return ErrHostOnly
	}
	if !s.Draft.Preset.TimerEnabled {
		return ErrTimerDisabled
	}
	gs := &s.Draft.Gamestate
	if gs.Phase != models.PhasePicking || !gs.TimerPaused {
		return ErrIllegalPhase
	}
	rem := time.Duration(gs.TimerRemaining * float64(time.Second))
	gs.TimerDeadline = s.Clock.Now().Add(rem).UnixMilli()
	gs.TimerPaused = false
	s.scheduleExpiryLocked(rem)
	s.notifyTimerLocked()
	return s.flushLocked()
}

// TimerState reports the derived countdown for a sync request.
func (s *Session) TimerState() (remaining float64, paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked(), s.Draft.Gamestate.TimerPaused
}

// CheckExpiry handles a client-side "timer expired" hint. The server
// re-derives the deadline itself; a hint for a finished or future turn does
// nothing.
func (s *Session) CheckExpiry(turn int) {
	s.mu.Lock()
	gen := s.timerGen
	s.mu.Unlock()
	s.expire(turn, gen)
}

// expire performs the automatic pick once the deadline truly passes. Only
// the first caller to observe expiry for a given turn acts; stale callbacks
// and duplicate hints are discarded by the turn/generation guards.
func (s *Session) expire(turn, gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := &s.Draft.Gamestate
	if gen != s.timerGen || turn != gs.Turn {
		return // stale callback from an earlier turn or a replaced timer
	}
	if gs.Phase != models.PhasePicking || gs.TimerPaused || !s.Draft.Preset.TimerEnabled {
		return
	}
	if s.remainingLocked() > 0 {
		return
	}

	seat := CurrentSeat(s.Draft.Preset, gs.Order, gs.Turn)
	if gs.CustomUUPhase {
		// No design arrived in time; skip the subphase and move on.
		log.Printf("Draft %s: turn %d timed out during custom unit design, skipping seat %d.",
			s.Draft.ID, gs.Turn, seat)
		rt := RoundType(s.Draft.Preset, gs.Turn)
		s.advanceTurnLocked(rt)
	} else if len(gs.Cards) > 0 {
		idx := s.rng.Intn(len(gs.Cards))
		log.Printf("Draft %s: turn %d timed out, auto-picking card %d for seat %d.",
			s.Draft.ID, gs.Turn, gs.Cards[idx], seat)
		if err := s.selectCardLocked(seat, idx, gs.Turn); err != nil {
			log.Printf("Draft %s: auto-pick failed: %v", s.Draft.ID, err)
			return
		}
	} else {
		log.Printf("Draft %s: turn %d timed out with an empty table, advancing.", s.Draft.ID, gs.Turn)
		rt := RoundType(s.Draft.Preset, gs.Turn)
		s.advanceTurnLocked(rt)
	}
	if err := s.flushLocked(); err != nil {
		return
	}
	s.notifyTimerLocked()
}

// Resume re-arms the countdown after the session is rebuilt from a
// persisted snapshot, honoring the stored deadline. A deadline that lapsed
// while the process was down expires immediately.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := &s.Draft.Gamestate
	if !s.Draft.Preset.TimerEnabled || gs.Phase != models.PhasePicking || gs.TimerPaused {
		return
	}
	if gs.TimerDeadline == 0 {
		s.armTimerLocked()
		return
	}
	rem := time.Duration(gs.TimerDeadline-s.Clock.Now().UnixMilli()) * time.Millisecond
	if rem < 0 {
		rem = 0
	}
	s.scheduleExpiryLocked(rem)
}

func (s *Session) notifyTimerLocked() {
	if s.TimerUpdateFn != nil {
		s.TimerUpdateFn(s.remainingLocked(), s.Draft.Gamestate.TimerPaused)
	}
}
