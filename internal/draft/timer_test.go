// internal/draft/timer_test.go
package draft

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civbuilder/civdraft/internal/models"
)

func newTimedSession(t *testing.T, duration int) (*Session, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	d := &models.Draft{
		ID: "123456789012345",
		Preset: models.Preset{
			Slots: 2, Rounds: 1, SnakeDraft: true,
			TimerEnabled: true, TimerDuration: duration,
		},
	}
	for i := 0; i < d.Preset.Slots; i++ {
		d.Players = append(d.Players, models.NewPlayer())
	}
	s := NewSession(d, smallCatalog(), fc)
	startPicking(t, s)
	return s, fc
}

func turnOf(s *Session) int {
	var turn int
	s.WithDraft(func(d *models.Draft) { turn = d.Gamestate.Turn })
	return turn
}

func TestTimerArmsWhenPickingStarts(t *testing.T) {
	s, _ := newTimedSession(t, 60)
	remaining, paused := s.TimerState()
	assert.False(t, paused)
	assert.Equal(t, 60.0, remaining)
	s.WithDraft(func(d *models.Draft) {
		assert.NotZero(t, d.Gamestate.TimerDeadline)
	})
}

func TestDisabledTimerNeverArms(t *testing.T) {
	s := newTestSession(t, models.Preset{Slots: 2, Rounds: 1})
	startPicking(t, s)

	remaining, paused := s.TimerState()
	assert.Zero(t, remaining)
	assert.False(t, paused)
	s.WithDraft(func(d *models.Draft) {
		assert.Zero(t, d.Gamestate.TimerDeadline)
	})
	assert.ErrorIs(t, s.PauseTimer(0), ErrTimerDisabled)
	assert.ErrorIs(t, s.ResumeTimer(0), ErrTimerDisabled)
}

func TestPauseFreezesRemainingTime(t *testing.T) {
	s, fc := newTimedSession(t, 60)

	fc.Advance(10 * time.Second)
	require.NoError(t, s.PauseTimer(0))
	remaining, paused := s.TimerState()
	assert.True(t, paused)
	assert.Equal(t, 50.0, remaining)

	// The clock keeps moving; the frozen remainder does not.
	fc.Advance(5 * time.Minute)
	remaining, _ = s.TimerState()
	assert.Equal(t, 50.0, remaining)
	assert.Zero(t, turnOf(s))

	require.NoError(t, s.ResumeTimer(0))
	remaining, paused = s.TimerState()
	assert.False(t, paused)
	assert.Equal(t, 50.0, remaining)

	fc.Advance(20 * time.Second)
	remaining, _ = s.TimerState()
	assert.Equal(t, 30.0, remaining)
}

func TestPauseResumeHostOnly(t *testing.T) {
	s, _ := newTimedSession(t, 60)
	assert.ErrorIs(t, s.PauseTimer(1), ErrHostOnly)
	require.NoError(t, s.PauseTimer(0))
	assert.ErrorIs(t, s.ResumeTimer(1), ErrHostOnly)
	assert.ErrorIs(t, s.PauseTimer(0), ErrIllegalPhase) // already paused
	require.NoError(t, s.ResumeTimer(0))
	assert.ErrorIs(t, s.ResumeTimer(0), ErrIllegalPhase) // already running
}

func TestExpiryAutoPicksForTheSeatOnClock(t *testing.T) {
	s, fc := newTimedSession(t, 60)
	seat := CurrentSeat(s.Draft.Preset, s.Draft.Gamestate.Order, 0)

	fc.Advance(61 * time.Second)
	s.CheckExpiry(0)

	assert.Equal(t, 1, turnOf(s))
	s.WithDraft(func(d *models.Draft) {
		assert.Len(t, d.Players[seat].Bonuses[models.RoundCivBonus], 1)
		// The next turn's deadline is re-armed from the current clock.
		assert.Greater(t, d.Gamestate.TimerDeadline, int64(0))
	})
}

// Duplicate and concurrent expiry reports for the same turn act exactly
// once.
func TestExpiryIsIdempotent(t *testing.T) {
	s, fc := newTimedSession(t, 60)
	fc.Advance(61 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.CheckExpiry(0)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, turnOf(s))
	s.WithDraft(func(d *models.Draft) {
		total := 0
		for _, p := range d.Players {
			total += len(p.Bonuses[models.RoundCivBonus])
		}
		assert.Equal(t, 1, total)
	})

	// A stale report for the finished turn changes nothing further.
	s.CheckExpiry(0)
	assert.Equal(t, 1, turnOf(s))
}

func TestExpiryIgnoredBeforeDeadline(t *testing.T) {
	s, fc := newTimedSession(t, 60)
	fc.Advance(30 * time.Second)
	s.CheckExpiry(0)
	assert.Zero(t, turnOf(s))
}

func TestExpiryIgnoredWhilePaused(t *testing.T) {
	s, fc := newTimedSession(t, 60)
	require.NoError(t, s.PauseTimer(0))
	fc.Advance(10 * time.Minute)
	s.CheckExpiry(0)
	assert.Zero(t, turnOf(s))
}

func TestExpirySkipsCustomUnitDesign(t *testing.T) {
	fc := clockwork.NewFakeClock()
	d := &models.Draft{
		ID: "123456789012345",
		Preset: models.Preset{
			Slots: 2, Rounds: 1, SnakeDraft: true, CustomUUMode: true,
			TimerEnabled: true, TimerDuration: 60,
		},
	}
	for i := 0; i < 2; i++ {
		d.Players = append(d.Players, models.NewPlayer())
	}
	s := NewSession(d, smallCatalog(), fc)
	startPicking(t, s)

	for turn := 0; turn < 2; turn++ {
		seat := CurrentSeat(d.Preset, d.Gamestate.Order, turn)
		require.NoError(t, s.SelectCard(seat, 0, turn))
	}
	require.True(t, s.Draft.Gamestate.CustomUUPhase)
	seat := CurrentSeat(d.Preset, d.Gamestate.Order, 2)

	fc.Advance(61 * time.Second)
	s.CheckExpiry(2)

	assert.Equal(t, 3, turnOf(s))
	s.WithDraft(func(d *models.Draft) {
		// No design arrived, so nothing was drafted for the skipped seat.
		assert.Nil(t, d.Players[seat].CustomUU)
		assert.Empty(t, d.Players[seat].Bonuses[models.RoundUniqueUnit])
	})
}

// A session rebuilt from a persisted snapshot honors the stored deadline.
func TestResumeRearmsFromPersistedDeadline(t *testing.T) {
	fc := clockwork.NewFakeClock()
	d := &models.Draft{
		ID: "123456789012345",
		Preset: models.Preset{
			Slots: 2, Rounds: 1, SnakeDraft: true,
			TimerEnabled: true, TimerDuration: 60,
		},
		Gamestate: models.GameState{
			Phase:         models.PhasePicking,
			Turn:          0,
			Order:         []int{0, 1},
			TimerDeadline: fc.Now().Add(30 * time.Second).UnixMilli(),
		},
	}
	for i := 0; i < 2; i++ {
		d.Players = append(d.Players, models.NewPlayer())
	}
	s := NewSession(d, smallCatalog(), fc)
	s.WithDraft(func(d *models.Draft) {
		BuildDecks(d, s.Catalog)
		Refill(d, s.Catalog, s.rng)
	})
	s.Resume()

	remaining, paused := s.TimerState()
	assert.False(t, paused)
	assert.Equal(t, 30.0, remaining)

	fc.Advance(31 * time.Second)
	s.CheckExpiry(0)
	assert.Equal(t, 1, turnOf(s))
}
