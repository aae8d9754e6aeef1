// internal/handlers/dispatch.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/civbuilder/civdraft/internal/store"
)

// HandleMessage routes one inbound frame. Engine rejections and missing
// drafts are reported to the sending connection only; accepted mutations
// reach everyone through the session's broadcast callback.
func (srv *DraftServer) HandleMessage(ctx context.Context, conn *Conn, msg ClientMessage) {
	if msg.DraftID == "" {
		srv.sendError(conn, "missing draft_id")
		return
	}

	if msg.Type == MsgJoinRoom {
		srv.handleJoin(ctx, conn, msg)
		return
	}

	sess, err := srv.Session(ctx, msg.DraftID)
	if err != nil {
		srv.reportError(conn, msg.DraftID, err)
		return
	}

	seat := conn.Seat

	switch msg.Type {
	case MsgGetGamestate, MsgGetPrivateState:
		// Seated clients ask after reconnect gaps; refresh the whole room.
		// Spectators get a direct reply so they cannot trigger fan-out.
		srv.publishSnapshotFor(ctx, conn, msg.DraftID, seat >= 0 && msg.Type == MsgGetGamestate)
		return

	case MsgToggleReady:
		err = sess.ToggleReady(seat)
	case MsgStartDraft:
		err = sess.StartDraft(seat)
	case MsgUpdateCivInfo:
		err = sess.UpdateCivInfo(seat, msg.CivName, msg.FlagPalette, msg.Architecture, msg.Language)
	case MsgUpdateTree:
		err = sess.UpdateTree(seat, msg.Tree, true)
	case MsgUpdateTreeProgess:
		err = sess.UpdateTree(seat, msg.Tree, false)
	case MsgEndTurn:
		err = sess.SelectCard(seat, msg.Card, msg.Turn)
	case MsgSubmitCustomUU:
		err = sess.SubmitCustomUnit(seat, msg.CustomUU)
	case MsgRefill:
		err = sess.RefillTable(seat)
	case MsgClear:
		err = sess.ClearTable(seat)
	case MsgPauseTimer:
		err = sess.PauseTimer(seat)
	case MsgResumeTimer:
		err = sess.ResumeTimer(seat)
	case MsgSyncTimer:
		remaining, paused := sess.TimerState()
		frame, merr := json.Marshal(ServerMessage{
			Type:           MsgTimerUpdate,
			DraftID:        msg.DraftID,
			TimerRemaining: remaining,
			TimerPaused:    paused,
		})
		if merr == nil {
			conn.Send(frame)
		}
		return
	case MsgTimerExpired:
		// Client-side deadline hint. The session re-derives the remaining
		// time itself, so a forged or early report is harmless.
		sess.CheckExpiry(msg.Turn)
		return
	default:
		srv.sendError(conn, "unknown message type: "+msg.Type)
		return
	}

	if err != nil {
		srv.reportError(conn, msg.DraftID, err)
	}
}

// handleJoin subscribes the connection to the draft's room and replies
// with the current snapshot so a reconnecting client is consistent before
// the next broadcast.
func (srv *DraftServer) handleJoin(ctx context.Context, conn *Conn, msg ClientMessage) {
	frame, err := srv.SnapshotFrame(ctx, msg.DraftID)
	if err != nil {
		srv.reportError(conn, msg.DraftID, err)
		return
	}
	srv.Rooms.Join(msg.DraftID, conn)
	conn.Send(frame)
	srv.Logger.Infof("Draft %s: connection %s joined as seat %d (room size %d).",
		msg.DraftID, conn.ID, conn.Seat, srv.Rooms.Size(msg.DraftID))
}

// publishSnapshotFor answers a state request: to the whole room or to the
// requesting connection alone.
func (srv *DraftServer) publishSnapshotFor(ctx context.Context, conn *Conn, draftID string, broadcast bool) {
	frame, err := srv.SnapshotFrame(ctx, draftID)
	if err != nil {
		srv.reportError(conn, draftID, err)
		return
	}
	if broadcast {
		srv.Rooms.Publish(draftID, frame)
	} else {
		conn.Send(frame)
	}
}

// reportError maps an engine or store failure onto a typed frame for the
// sending client.
func (srv *DraftServer) reportError(conn *Conn, draftID string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		frame, merr := json.Marshal(ServerMessage{Type: MsgDraftNotFound, DraftID: draftID})
		if merr == nil {
			conn.Send(frame)
		}
		return
	}
	srv.sendError(conn, err.Error())
}

func (srv *DraftServer) sendError(conn *Conn, text string) {
	frame, err := json.Marshal(ServerMessage{Type: MsgError, Message: text})
	if err == nil {
		conn.Send(frame)
	}
}
