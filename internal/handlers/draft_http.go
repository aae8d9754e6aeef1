// internal/handlers/draft_http.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/civbuilder/civdraft/internal/draft"
	"github.com/civbuilder/civdraft/internal/models"
	"github.com/civbuilder/civdraft/internal/store"
)

type createDraftRequest struct {
	NumPlayers       int    `json:"num_players"`
	Rounds           int    `json:"rounds"`
	TechtreeCurrency int    `json:"techtree_currency"`
	AllowedRarities  []bool `json:"allowed_rarities"`
	Cards            []int  `json:"cards,omitempty"`
	SnakeDraft       bool   `json:"snake_draft"`
	CustomUUMode     bool   `json:"custom_uu_mode"`
	TimerEnabled     bool   `json:"timer_enabled"`
	TimerDuration    int    `json:"timer_duration"`
}

type createDraftResponse struct {
	DraftID       string `json:"draft_id"`
	HostLink      string `json:"host_link"`
	PlayerLink    string `json:"player_link"`
	SpectatorLink string `json:"spectator_link"`
}

type joinDraftRequest struct {
	JoinType string `json:"join_type"` // "host" or "player"
	CivName  string `json:"civ_name"`
}

type joinDraftResponse struct {
	DraftID      string `json:"draft_id"`
	PlayerNumber int    `json:"player_number"`
}

// CreateDraftHandler builds a draft from the submitted preset and returns
// the shareable links.
func (srv *DraftServer) CreateDraftHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.NumPlayers < 1 || req.NumPlayers > 8 {
		http.Error(w, "num_players must be between 1 and 8", http.StatusBadRequest)
		return
	}
	if req.Rounds < 1 || req.Rounds > 10 {
		http.Error(w, "rounds must be between 1 and 10", http.StatusBadRequest)
		return
	}

	preset := models.Preset{
		Slots:         req.NumPlayers,
		Rounds:        req.Rounds,
		Points:        req.TechtreeCurrency,
		Rarities:      req.AllowedRarities,
		Cards:         req.Cards,
		SnakeDraft:    req.SnakeDraft,
		CustomUUMode:  req.CustomUUMode,
		TimerEnabled:  req.TimerEnabled,
		TimerDuration: req.TimerDuration,
	}
	d, err := srv.CreateDraft(r.Context(), preset)
	if err != nil {
		srv.Logger.Errorf("create draft: %v", err)
		http.Error(w, "failed to create draft", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createDraftResponse{
		DraftID:       d.ID,
		HostLink:      "/draft/" + d.ID + "?join=host",
		PlayerLink:    "/draft/" + d.ID + "?join=player",
		SpectatorLink: "/draft/" + d.ID,
	})
}

// JoinDraftHandler claims a seat and hands the client its identity via
// cookies, matching what the websocket layer expects in the player query
// parameter.
func (srv *DraftServer) JoinDraftHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/draft/join/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "missing draft id", http.StatusBadRequest)
		return
	}
	var req joinDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	seat, err := srv.JoinSeat(r.Context(), id, req.CivName, req.JoinType == "host")
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeJSONError(w, http.StatusNotFound, "draft not found")
		case errors.Is(err, draft.ErrDraftFull):
			writeJSONError(w, http.StatusConflict, "draft is full")
		default:
			srv.Logger.Errorf("join draft %s: %v", id, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to join draft")
		}
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "draftID", Value: id, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "playerNumber", Value: strconv.Itoa(seat), Path: "/"})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(joinDraftResponse{DraftID: id, PlayerNumber: seat})
}

// DraftConfigHandler returns the full persisted draft, for page loads and
// result export.
func (srv *DraftServer) DraftConfigHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/draft/config/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "missing draft id", http.StatusBadRequest)
		return
	}

	var snapshot *models.Draft
	sess, err := srv.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "draft not found")
			return
		}
		srv.Logger.Errorf("load draft %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to load draft")
		return
	}
	sess.WithDraft(func(d *models.Draft) {
		buf, merr := json.Marshal(d)
		if merr != nil {
			return
		}
		clone := &models.Draft{}
		if json.Unmarshal(buf, clone) == nil {
			snapshot = clone
		}
	})
	if snapshot == nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode draft")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// HealthzHandler is the liveness probe.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
