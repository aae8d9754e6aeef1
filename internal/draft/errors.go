// internal/draft/errors.go
package draft

import "errors"

var (
	// ErrIllegalPhase rejects an action that is not legal in the draft's
	// current phase.
	ErrIllegalPhase = errors.New("action not allowed in current phase")
	// ErrStaleTurn rejects a pick whose expected turn no longer matches the
	// server's turn counter. Retry-safe: the losing submission changes
	// nothing.
	ErrStaleTurn = errors.New("stale turn")
	// ErrWrongSeat rejects a pick from a seat that is not on the clock.
	ErrWrongSeat = errors.New("not your turn")
	// ErrHostOnly rejects a host-gated action from a non-host seat.
	ErrHostOnly = errors.New("host only")
	// ErrInvalidSeat rejects a player index outside the draft's seats, or a
	// spectator attempting a seated action.
	ErrInvalidSeat = errors.New("invalid player number")
	// ErrInvalidCard rejects a table index that does not reference an
	// offered card.
	ErrInvalidCard = errors.New("invalid card index")
	// ErrInvalidCustomUnit rejects a malformed custom unit design.
	ErrInvalidCustomUnit = errors.New("invalid custom unit")
	// ErrTimerDisabled rejects timer control on a draft created without a
	// timer.
	ErrTimerDisabled = errors.New("timer not enabled")
	// ErrDraftFull rejects a join when every non-host seat is claimed.
	ErrDraftFull = errors.New("draft is full")
)
