// internal/handlers/draft_server_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civbuilder/civdraft/internal/models"
	"github.com/civbuilder/civdraft/internal/store"
)

func newTestServer(t *testing.T) *DraftServer {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	srv := NewDraftServer(store.NewMemoryStore(), logger)
	srv.Clock = clockwork.NewFakeClock()
	return srv
}

func mustCreate(t *testing.T, srv *DraftServer, preset models.Preset) *models.Draft {
	t.Helper()
	d, err := srv.CreateDraft(context.Background(), preset)
	require.NoError(t, err)
	return d
}

func TestCreateDraftAssignsNumericID(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 4, Rounds: 3})

	assert.Len(t, d.ID, 15)
	for _, ch := range d.ID {
		assert.True(t, ch >= '0' && ch <= '9', "id %q is not numeric", d.ID)
	}
	assert.Len(t, d.Players, 4)
	assert.Equal(t, models.PhaseLobby, d.Gamestate.Phase)

	// Persisted immediately.
	got, err := srv.Store.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
}

func TestCreateDraftClampsTimerDuration(t *testing.T) {
	srv := newTestServer(t)

	d := mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1, TimerEnabled: true})
	assert.Equal(t, 60, d.Preset.TimerDuration)

	d = mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1, TimerEnabled: true, TimerDuration: 2})
	assert.Equal(t, 5, d.Preset.TimerDuration)

	d = mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1, TimerEnabled: true, TimerDuration: 900})
	assert.Equal(t, 300, d.Preset.TimerDuration)
}

func TestSessionMissingDraft(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.Session(context.Background(), "000000000000000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJoinRoomDeliversSnapshot(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1})
	conn := newTestConn(0)

	srv.HandleMessage(context.Background(), conn, ClientMessage{Type: MsgJoinRoom, DraftID: d.ID})

	frames := drain(conn)
	require.Len(t, frames, 1)
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(frames[0], &msg))
	assert.Equal(t, MsgSetGamestate, msg.Type)
	require.NotNil(t, msg.Draft)
	assert.Equal(t, d.ID, msg.Draft.ID)
	assert.Equal(t, 1, srv.Rooms.Size(d.ID))
}

func TestJoinRoomUnknownDraft(t *testing.T) {
	srv := newTestServer(t)
	conn := newTestConn(0)

	srv.HandleMessage(context.Background(), conn, ClientMessage{Type: MsgJoinRoom, DraftID: "000000000000000"})

	frames := drain(conn)
	require.Len(t, frames, 1)
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(frames[0], &msg))
	assert.Equal(t, MsgDraftNotFound, msg.Type)
	assert.Zero(t, srv.Rooms.Size("000000000000000"))
}

func TestMutationsBroadcastToRoom(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1})
	ctx := context.Background()

	host, guest := newTestConn(0), newTestConn(1)
	srv.HandleMessage(ctx, host, ClientMessage{Type: MsgJoinRoom, DraftID: d.ID})
	srv.HandleMessage(ctx, guest, ClientMessage{Type: MsgJoinRoom, DraftID: d.ID})
	drain(host)
	drain(guest)

	srv.HandleMessage(ctx, guest, ClientMessage{Type: MsgToggleReady, DraftID: d.ID})

	for _, c := range []*Conn{host, guest} {
		frames := drain(c)
		require.Len(t, frames, 1)
		var msg ServerMessage
		require.NoError(t, json.Unmarshal(frames[0], &msg))
		assert.Equal(t, MsgSetGamestate, msg.Type)
		assert.Equal(t, 1, msg.Draft.Players[1].Ready)
	}
}

func TestEngineErrorsGoToSenderOnly(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1})
	ctx := context.Background()

	host, guest := newTestConn(0), newTestConn(1)
	srv.HandleMessage(ctx, host, ClientMessage{Type: MsgJoinRoom, DraftID: d.ID})
	srv.HandleMessage(ctx, guest, ClientMessage{Type: MsgJoinRoom, DraftID: d.ID})
	drain(host)
	drain(guest)

	// Guest tries a host-only action.
	srv.HandleMessage(ctx, guest, ClientMessage{Type: MsgStartDraft, DraftID: d.ID})

	frames := drain(guest)
	require.Len(t, frames, 1)
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(frames[0], &msg))
	assert.Equal(t, MsgError, msg.Type)
	assert.NotEmpty(t, msg.Message)
	assert.Empty(t, drain(host), "rejection must not reach the room")
}

// A drained clock must arrive as an explicit zero, not an absent field.
func TestTimerUpdateCarriesZeroRemaining(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1, TimerEnabled: true})
	conn := newTestConn(0)
	srv.Rooms.Join(d.ID, conn)

	srv.publishTimer(d.ID, 0, false)

	frames := drain(conn)
	require.Len(t, frames, 1)
	assert.Contains(t, string(frames[0]), `"timer_remaining":0`)
	assert.Contains(t, string(frames[0]), `"timer_paused":false`)

	var msg ServerMessage
	require.NoError(t, json.Unmarshal(frames[0], &msg))
	assert.Equal(t, MsgTimerUpdate, msg.Type)
	assert.Zero(t, msg.TimerRemaining)
}

func TestCreateDraftHandler(t *testing.T) {
	srv := newTestServer(t)

	body := `{"num_players":4,"rounds":3,"snake_draft":true,"timer_enabled":true,"timer_duration":90}`
	req := httptest.NewRequest("POST", "/draft/create", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	srv.CreateDraftHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp createDraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.DraftID, 15)
	assert.Contains(t, resp.HostLink, resp.DraftID)

	d, err := srv.Store.Get(context.Background(), resp.DraftID)
	require.NoError(t, err)
	assert.True(t, d.Preset.SnakeDraft)
	assert.Equal(t, 90, d.Preset.TimerDuration)
}

func TestCreateDraftHandlerValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []string{
		`{"num_players":0,"rounds":3}`,
		`{"num_players":9,"rounds":3}`,
		`{"num_players":4,"rounds":0}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest("POST", "/draft/create", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		srv.CreateDraftHandler(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}

	req := httptest.NewRequest("GET", "/draft/create", nil)
	w := httptest.NewRecorder()
	srv.CreateDraftHandler(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestJoinDraftHandlerSeatsAndCookies(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 2, Rounds: 1})

	join := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/draft/join/"+d.ID, bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		srv.JoinDraftHandler(w, req)
		return w
	}

	w := join(`{"join_type":"host","civ_name":"Franks"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp joinDraftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.PlayerNumber)

	cookies := w.Result().Cookies()
	names := map[string]string{}
	for _, c := range cookies {
		names[c.Name] = c.Value
	}
	assert.Equal(t, d.ID, names["draftID"])
	assert.Equal(t, "0", names["playerNumber"])

	w = join(`{"join_type":"player","civ_name":"Mongols"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.PlayerNumber)

	w = join(`{"join_type":"player","civ_name":"Goths"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJoinDraftHandlerNotFound(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("POST", "/draft/join/000000000000000",
		bytes.NewBufferString(`{"join_type":"player","civ_name":"x"}`))
	w := httptest.NewRecorder()
	srv.JoinDraftHandler(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftConfigHandler(t *testing.T) {
	srv := newTestServer(t)
	d := mustCreate(t, srv, models.Preset{Slots: 3, Rounds: 2})

	req := httptest.NewRequest("GET", "/draft/config/"+d.ID, nil)
	w := httptest.NewRecorder()
	srv.DraftConfigHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Draft
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, d.ID, got.ID)
	assert.Len(t, got.Players, 3)

	req = httptest.NewRequest("GET", "/draft/config/000000000000000", nil)
	w = httptest.NewRecorder()
	srv.DraftConfigHandler(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	HealthzHandler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
