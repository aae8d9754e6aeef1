// internal/handlers/draft_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/civbuilder/civdraft/internal/store"
)

// DraftWSHandler upgrades /draft/ws?draft=<id>&player=<seat> to the
// civdraft subprotocol and runs the read/write pumps. A missing or
// non-numeric player parameter connects as a spectator.
func DraftWSHandler(logger *logrus.Logger, srv *DraftServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftID := r.URL.Query().Get("draft")
		if draftID == "" {
			http.Error(w, "missing draft id", http.StatusBadRequest)
			return
		}

		seat := -1
		if raw := r.URL.Query().Get("player"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				seat = n
			}
		}

		// Reject unknown drafts before paying for the upgrade.
		if _, err := srv.Session(r.Context(), draftID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "draft not found", http.StatusNotFound)
			} else {
				logger.Warnf("Draft %s: session load failed: %v", draftID, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"civdraft"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "civdraft" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the civdraft subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &Conn{
			ID:   uuid.New(),
			Seat: seat,
			Out:  make(chan []byte, 16),
		}
		logger.Infof("Draft %s: connection %s (%s) opened as seat %d.",
			draftID, conn.ID, r.RemoteAddr, seat)

		go writePump(ctx, c, conn, logger)

		// Auto-join the room so the client is consistent before its first
		// explicit request.
		srv.HandleMessage(ctx, conn, ClientMessage{Type: MsgJoinRoom, DraftID: draftID})

		readPump(ctx, c, srv, conn, draftID, logger)

		srv.Rooms.Leave(conn)
		logger.Infof("Draft %s: connection %s closed.", draftID, conn.ID)
	}
}

// readPump decodes inbound frames and hands them to the dispatcher. It
// blocks until the connection dies or the context is cancelled.
func readPump(ctx context.Context, c *websocket.Conn, srv *DraftServer, conn *Conn, draftID string, logger *logrus.Logger) {
	for {
		typ, raw, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return
			}
			if strings.Contains(err.Error(), "context canceled") {
				return
			}
			logger.Warnf("Draft %s: read error on %s: %v", draftID, conn.ID, err)
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("Draft %s: ignoring non-text frame from %s.", draftID, conn.ID)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logger.Warnf("Draft %s: invalid json from %s: %v", draftID, conn.ID, err)
			srv.sendError(conn, "invalid JSON format")
			continue
		}
		if msg.DraftID == "" {
			msg.DraftID = draftID
		}
		srv.HandleMessage(ctx, conn, msg)
	}
}

// writePump drains the connection's outbound channel onto the socket and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-conn.Out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Warnf("Conn %s: write failed: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Conn %s: ping failed, assuming disconnect: %v", conn.ID, err)
				return
			}
		}
	}
}
