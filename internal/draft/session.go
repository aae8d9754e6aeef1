// internal/draft/session.go
package draft

import (
	"log"
	"math/rand"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/civbuilder/civdraft/internal/cards"
	"github.com/civbuilder/civdraft/internal/models"
)

// Session is the live, in-memory side of one draft. All state that matters
// lives on the Draft aggregate; the session adds the lock, the turn timer
// and the callbacks that persist and publish snapshots after a mutation.
//
// Every exported method acquires the lock, validates, mutates, then flushes
// (persist, then broadcast). Methods suffixed Locked assume the lock is
// held.
type Session struct {
	Draft   *models.Draft
	Catalog cards.Catalog
	Clock   clockwork.Clock

	// SaveFn persists the draft. It is awaited before any broadcast; if it
	// fails the snapshot is not published.
	SaveFn func(*models.Draft) error
	// BroadcastFn publishes the full draft snapshot to the room.
	BroadcastFn func(*models.Draft)
	// TimerUpdateFn publishes a timer-only update to the room.
	TimerUpdateFn func(remaining float64, paused bool)

	mu  sync.Mutex
	rng *rand.Rand

	timer    clockwork.Timer
	timerGen int // invalidates scheduled callbacks on stop/re-arm
}

// NewSession wraps a draft for live play. The caller wires SaveFn and
// BroadcastFn before the first mutation.
func NewSession(d *models.Draft, catalog cards.Catalog, clock clockwork.Clock) *Session {
	models.NormalizeDraft(d)
	return &Session{
		Draft:   d,
		Catalog: catalog,
		Clock:   clock,
		rng:     rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// WithDraft runs fn with the lock held and derived timer fields refreshed.
// Used for reads (snapshot replies) so they never observe a half-applied
// mutation.
func (s *Session) WithDraft(fn func(*models.Draft)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTimerLocked()
	fn(s.Draft)
}

// ClaimSeat attaches a named player to a seat. The host always gets seat
// 0; everyone else takes the first unclaimed seat. Claiming an already
// named host seat is treated as a reconnect, not an error.
func (s *Session) ClaimSeat(name string, asHost bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if asHost {
		seat := s.Draft.HostSeat()
		s.Draft.Players[seat].Name = name
		return seat, s.flushLocked()
	}
	for i, p := range s.Draft.Players {
		if i == s.Draft.HostSeat() || p.Name != "" {
			continue
		}
		p.Name = name
		return i, s.flushLocked()
	}
	return -1, ErrDraftFull
}

// ToggleReady flips a seat's lobby ready flag.
func (s *Session) ToggleReady(seat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Draft.Gamestate.Phase != models.PhaseLobby {
		return ErrIllegalPhase
	}
	if seat < 0 || seat >= len(s.Draft.Players) {
		return ErrInvalidSeat
	}
	s.Draft.Players[seat].Ready = (s.Draft.Players[seat].Ready + 1) % 2
	return s.flushLocked()
}

// StartDraft moves the lobby into flag customization. Host only. The host's
// start is authoritative: it does not wait on individual ready flags, which
// exist so the host can see who is settled before pulling the trigger.
func (s *Session) StartDraft(actor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor != s.Draft.HostSeat() {
		return ErrHostOnly
	}
	if s.Draft.Gamestate.Phase != models.PhaseLobby {
		return ErrIllegalPhase
	}
	s.Draft.Gamestate.Phase = models.PhaseFlagCustomization
	s.resetReadyLocked()
	return s.flushLocked()
}

// UpdateCivInfo stores a seat's civilization identity during flag
// customization and marks the seat ready. When every seat has submitted the
// draft deals the opening hand, draws the seating order and enters the
// picking phase.
func (s *Session) UpdateCivInfo(seat int, alias string, palette []int, architecture, language int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Draft.Gamestate.Phase != models.PhaseFlagCustomization {
		return ErrIllegalPhase
	}
	if seat < 0 || seat >= len(s.Draft.Players) {
		return ErrInvalidSeat
	}
	p := s.Draft.Players[seat]
	p.Alias = alias
	p.FlagPalette = palette
	p.Architecture = architecture
	p.Language = language
	p.Ready = 1
	models.NormalizePlayer(p)

	if s.allReadyLocked() {
		s.beginPickingLocked()
	}
	return s.flushLocked()
}

// UpdateTree stores a seat's tech tree selection. With final set, the seat
// is marked ready and the draft completes once every seat has submitted;
// without it this is an incremental save.
func (s *Session) UpdateTree(seat int, tree [][]int, final bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	phase := s.Draft.Gamestate.Phase
	if phase != models.PhaseFlagCustomization && phase != models.PhaseTreeEditing {
		return ErrIllegalPhase
	}
	if seat < 0 || seat >= len(s.Draft.Players) {
		return ErrInvalidSeat
	}
	p := s.Draft.Players[seat]
	p.Tree = tree
	models.NormalizePlayer(p)

	if final && phase == models.PhaseTreeEditing {
		p.Ready = 1
		if s.allReadyLocked() {
			s.Draft.Gamestate.Phase = models.PhaseComplete
			s.resetReadyLocked()
			log.Printf("Draft %s: complete after %d turns.", s.Draft.ID, s.Draft.Gamestate.Turn)
		}
	}
	return s.flushLocked()
}

// SelectCard is the only path that advances the turn counter. The acting
// seat must be on the clock and expectedTurn must echo the server's turn;
// the loser of a near-simultaneous double submission is rejected with
// ErrStaleTurn and mutates nothing.
func (s *Session) SelectCard(seat, cardIndex, expectedTurn int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selectCardLocked(seat, cardIndex, expectedTurn); err != nil {
		return err
	}
	return s.flushLocked()
}

func (s *Session) selectCardLocked(seat, cardIndex, expectedTurn int) error {
	gs := &s.Draft.Gamestate
	if gs.Phase != models.PhasePicking || gs.CustomUUPhase {
		return ErrIllegalPhase
	}
	if expectedTurn != gs.Turn {
		return ErrStaleTurn
	}
	if seat != CurrentSeat(s.Draft.Preset, gs.Order, gs.Turn) {
		return ErrWrongSeat
	}
	if cardIndex < 0 || cardIndex >= len(gs.Cards) {
		return ErrInvalidCard
	}

	rt := RoundType(s.Draft.Preset, gs.Turn)
	card := gs.Cards[cardIndex]
	s.Draft.Players[seat].Bonuses[rt] = append(s.Draft.Players[seat].Bonuses[rt], card)
	gs.Cards = slices.Delete(gs.Cards, cardIndex, cardIndex+1)
	gs.Highlighted = []int{}

	s.advanceTurnLocked(rt)
	return nil
}

// SubmitCustomUnit resolves the active seat's custom-unit design turn.
func (s *Session) SubmitCustomUnit(seat int, unit *models.CustomUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := &s.Draft.Gamestate
	if gs.Phase != models.PhasePicking || !gs.CustomUUPhase {
		return ErrIllegalPhase
	}
	if seat != CurrentSeat(s.Draft.Preset, gs.Order, gs.Turn) {
		return ErrWrongSeat
	}
	if err := validateCustomUnit(unit); err != nil {
		return err
	}

	rt := RoundType(s.Draft.Preset, gs.Turn)
	s.Draft.Players[seat].CustomUU = unit
	s.Draft.Players[seat].Bonuses[rt] = append(s.Draft.Players[seat].Bonuses[rt], unit.BaseUnit)

	s.advanceTurnLocked(rt)
	return s.flushLocked()
}

func validateCustomUnit(unit *models.CustomUnit) error {
	if unit == nil || unit.Name == "" || unit.Health <= 0 || unit.Attack < 0 {
		return ErrInvalidCustomUnit
	}
	switch unit.UnitType {
	case "infantry", "archer", "cavalry", "siege", "monk", "naval":
		return nil
	}
	return ErrInvalidCustomUnit
}

// advanceTurnLocked increments the turn and performs the side effects of a
// completed pick: redealing on a category change, topping up a thin table,
// flagging the custom-UU subphase, ending the picking phase, and re-arming
// the timer.
func (s *Session) advanceTurnLocked(prevRoundType int) {
	gs := &s.Draft.Gamestate
	gs.Turn++

	if gs.Turn >= TotalTurns(s.Draft.Preset) {
		gs.Phase = models.PhaseTreeEditing
		gs.CustomUUPhase = false
		s.resetReadyLocked()
		s.stopTimerLocked()
		return
	}

	rt := RoundType(s.Draft.Preset, gs.Turn)
	if rt != prevRoundType {
		Clear(s.Draft)
		Refill(s.Draft, s.Catalog, s.rng)
	} else if len(gs.Cards) < minCardsOnTable {
		Refill(s.Draft, s.Catalog, s.rng)
	}

	gs.CustomUUPhase = s.Draft.Preset.CustomUUMode && rt == models.RoundUniqueUnit
	s.armTimerLocked()
}

// RefillTable is the host's manual refill.
func (s *Session) RefillTable(actor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor != s.Draft.HostSeat() {
		return ErrHostOnly
	}
	if s.Draft.Gamestate.Phase != models.PhasePicking {
		return ErrIllegalPhase
	}
	Refill(s.Draft, s.Catalog, s.rng)
	return s.flushLocked()
}

// ClearTable is the host's manual clear; it empties the table without
// touching the decks.
func (s *Session) ClearTable(actor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if actor != s.Draft.HostSeat() {
		return ErrHostOnly
	}
	if s.Draft.Gamestate.Phase != models.PhasePicking {
		return ErrIllegalPhase
	}
	Clear(s.Draft)
	return s.flushLocked()
}

func (s *Session) allReadyLocked() bool {
	for _, p := range s.Draft.Players {
		if p.Ready != 1 {
			return false
		}
	}
	return true
}

func (s *Session) resetReadyLocked() {
	for _, p := range s.Draft.Players {
		p.Ready = 0
	}
}

// beginPickingLocked transitions into the picking phase: build the category
// decks, deal the opening civ-bonus hand, draw a random seating order and
// arm the first turn's timer.
func (s *Session) beginPickingLocked() {
	gs := &s.Draft.Gamestate
	gs.Phase = models.PhasePicking
	s.resetReadyLocked()

	BuildDecks(s.Draft, s.Catalog)
	Refill(s.Draft, s.Catalog, s.rng)
	gs.Order = s.rng.Perm(s.Draft.Preset.Slots)
	gs.CustomUUPhase = false

	log.Printf("Draft %s: picking started, order %v, %d cards on the table.",
		s.Draft.ID, gs.Order, len(gs.Cards))
	s.armTimerLocked()
}

// flushLocked persists the draft and, only if that succeeds, broadcasts the
// snapshot. Clients must never observe state that failed to persist.
func (s *Session) flushLocked() error {
	s.refreshTimerLocked()
	if s.SaveFn != nil {
		if err := s.SaveFn(s.Draft); err != nil {
			log.Printf("Draft %s: persist failed: %v", s.Draft.ID, err)
			return err
		}
	}
	if s.BroadcastFn != nil {
		s.BroadcastFn(s.Draft)
	}
	return nil
}
