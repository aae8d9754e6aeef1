// internal/handlers/draft_server.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/civbuilder/civdraft/internal/cards"
	"github.com/civbuilder/civdraft/internal/draft"
	"github.com/civbuilder/civdraft/internal/models"
	"github.com/civbuilder/civdraft/internal/store"
)

// DraftServer owns the draft store, the rooms, and the live sessions. A
// session is hydrated from the store on first touch and kept resident so
// its turn timer can fire; everything a handler does goes through it.
type DraftServer struct {
	Store   store.DraftStore
	Rooms   *Rooms
	Catalog cards.Catalog
	Clock   clockwork.Clock
	Logger  *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*draft.Session
}

func NewDraftServer(st store.DraftStore, logger *logrus.Logger) *DraftServer {
	return &DraftServer{
		Store:    st,
		Rooms:    NewRooms(),
		Catalog:  cards.Default(),
		Clock:    clockwork.NewRealClock(),
		Logger:   logger,
		sessions: make(map[string]*draft.Session),
	}
}

// Session returns the live session for a draft, hydrating it from the
// store if needed. store.ErrNotFound propagates untouched so callers can
// emit the typed "draft not found" event.
func (srv *DraftServer) Session(ctx context.Context, id string) (*draft.Session, error) {
	srv.mu.Lock()
	if s, ok := srv.sessions[id]; ok {
		srv.mu.Unlock()
		return s, nil
	}
	srv.mu.Unlock()

	d, err := srv.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if s, ok := srv.sessions[id]; ok {
		return s, nil // lost the hydration race, keep the winner
	}
	s := draft.NewSession(d, srv.Catalog, srv.Clock)
	s.SaveFn = func(d *models.Draft) error {
		return srv.Store.Put(context.Background(), d)
	}
	s.BroadcastFn = func(d *models.Draft) {
		srv.publishSnapshot(d)
	}
	s.TimerUpdateFn = func(remaining float64, paused bool) {
		srv.publishTimer(id, remaining, paused)
	}
	srv.sessions[id] = s
	s.Resume()
	return s, nil
}

func (srv *DraftServer) publishSnapshot(d *models.Draft) {
	frame, err := json.Marshal(ServerMessage{Type: MsgSetGamestate, DraftID: d.ID, Draft: d})
	if err != nil {
		srv.Logger.Errorf("marshal snapshot for draft %s: %v", d.ID, err)
		return
	}
	srv.Rooms.Publish(d.ID, frame)
}

func (srv *DraftServer) publishTimer(id string, remaining float64, paused bool) {
	frame, err := json.Marshal(ServerMessage{
		Type:           MsgTimerUpdate,
		DraftID:        id,
		TimerRemaining: remaining,
		TimerPaused:    paused,
	})
	if err != nil {
		srv.Logger.Errorf("marshal timer update for draft %s: %v", id, err)
		return
	}
	srv.Rooms.Publish(id, frame)
}

// CreateDraft builds a fresh draft from a validated preset, assigns an
// unused id and persists it in the lobby phase.
func (srv *DraftServer) CreateDraft(ctx context.Context, preset models.Preset) (*models.Draft, error) {
	if preset.Slots < 1 {
		return nil, fmt.Errorf("preset needs at least one slot")
	}
	if preset.Rounds < 1 {
		preset.Rounds = 1
	}
	if preset.TimerEnabled {
		if preset.TimerDuration == 0 {
			preset.TimerDuration = 60
		}
		if preset.TimerDuration < 5 {
			preset.TimerDuration = 5
		}
		if preset.TimerDuration > 300 {
			preset.TimerDuration = 300
		}
	}

	id, err := srv.uniqueDraftID(ctx)
	if err != nil {
		return nil, err
	}

	d := &models.Draft{
		ID:        id,
		Timestamp: srv.Clock.Now().UnixMilli(),
		Preset:    preset,
		Gamestate: models.GameState{
			Phase:       models.PhaseLobby,
			Order:       []int{},
			Cards:       []int{},
			Highlighted: []int{},
		},
	}
	for i := 0; i < preset.Slots; i++ {
		d.Players = append(d.Players, models.NewPlayer())
	}
	models.NormalizeDraft(d)

	if err := srv.Store.Put(ctx, d); err != nil {
		return nil, err
	}
	srv.Logger.Infof("Created draft %s (%d slots, %d rounds, snake=%v, timer=%v)",
		d.ID, preset.Slots, preset.Rounds, preset.SnakeDraft, preset.TimerEnabled)
	return d, nil
}

// uniqueDraftID draws 15-digit numeric ids until one misses the store.
func (srv *DraftServer) uniqueDraftID(ctx context.Context) (string, error) {
	rng := rand.New(rand.NewSource(srv.Clock.Now().UnixNano()))
	for attempt := 0; attempt < 100; attempt++ {
		id := make([]byte, 15)
		for i := range id {
			id[i] = byte('0' + rng.Intn(10))
		}
		if _, err := srv.Store.Get(ctx, string(id)); errors.Is(err, store.ErrNotFound) {
			return string(id), nil
		}
	}
	return "", fmt.Errorf("could not allocate a draft id")
}

// JoinSeat claims a seat for a named player. The host joins seat 0; other
// players take the first unclaimed seat. Returns the seat index.
func (srv *DraftServer) JoinSeat(ctx context.Context, id, name string, asHost bool) (int, error) {
	s, err := srv.Session(ctx, id)
	if err != nil {
		return -1, err
	}
	return s.ClaimSeat(name, asHost)
}

// SnapshotFrame marshals the latest state of a draft as a set-gamestate
// frame, for the immediate send on (re)join.
func (srv *DraftServer) SnapshotFrame(ctx context.Context, id string) ([]byte, error) {
	s, err := srv.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	var frame []byte
	var marshalErr error
	s.WithDraft(func(d *models.Draft) {
		frame, marshalErr = json.Marshal(ServerMessage{Type: MsgSetGamestate, DraftID: d.ID, Draft: d})
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	return frame, nil
}

// ReapIdleSessions drops resident sessions whose drafts finished or have
// no room members, keeping the session map bounded. The persisted draft is
// untouched. Runs until ctx is cancelled.
func (srv *DraftServer) ReapIdleSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.mu.Lock()
			for id, s := range srv.sessions {
				if srv.Rooms.Size(id) > 0 {
					continue
				}
				done := false
				s.WithDraft(func(d *models.Draft) {
					done = d.Gamestate.Phase == models.PhaseComplete ||
						d.Gamestate.Phase == models.PhaseLobby
				})
				if done {
					delete(srv.sessions, id)
				}
			}
			srv.mu.Unlock()
		}
	}
}
