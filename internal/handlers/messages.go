// internal/handlers/messages.go
package handlers

import "github.com/civbuilder/civdraft/internal/models"

// Event type names are carried in the "type" field of every frame. The
// names (including the embedded spaces) are the protocol the existing
// clients speak.
const (
	// client -> server
	MsgJoinRoom          = "join room"
	MsgGetGamestate      = "get gamestate"
	MsgGetPrivateState   = "get private gamestate"
	MsgToggleReady       = "toggle ready"
	MsgStartDraft        = "start draft"
	MsgUpdateCivInfo     = "update civ info"
	MsgUpdateTree        = "update tree"
	MsgUpdateTreeProgess = "update tree progress"
	MsgEndTurn           = "end turn"
	MsgSubmitCustomUU    = "submit custom uu"
	MsgRefill            = "refill"
	MsgClear             = "clear"
	MsgPauseTimer        = "pause timer"
	MsgResumeTimer       = "resume timer"
	MsgSyncTimer         = "sync timer"
	MsgTimerExpired      = "timer expired"

	// server -> client
	MsgSetGamestate  = "set gamestate"
	MsgTimerUpdate   = "timer update"
	MsgDraftNotFound = "draft not found"
	MsgError         = "error"
)

// ClientMessage is one inbound frame. Fields beyond Type and DraftID are
// populated per message type.
type ClientMessage struct {
	Type    string `json:"type"`
	DraftID string `json:"draft_id"`

	// Player is the seat index the client claims. Handlers never read it:
	// the acting seat is always the one the connection opened with, so a
	// frame cannot act for another seat. Kept on the wire shape because
	// existing clients send it.
	Player       int                `json:"player,omitempty"`
	CivName      string             `json:"civ_name,omitempty"`
	FlagPalette  []int              `json:"flag_palette,omitempty"`
	Architecture int                `json:"architecture,omitempty"`
	Language     int                `json:"language,omitempty"`
	Tree         [][]int            `json:"tree,omitempty"`
	Card         int                `json:"card,omitempty"`
	Turn         int                `json:"turn,omitempty"`
	CustomUU     *models.CustomUnit `json:"custom_uu,omitempty"`
}

// ServerMessage is one outbound frame. Draft rides along on snapshot
// frames, the timer fields on timer updates, Message on errors.
type ServerMessage struct {
	Type    string        `json:"type"`
	DraftID string        `json:"draft_id,omitempty"`
	Draft   *models.Draft `json:"draft,omitempty"`
	Message string        `json:"message,omitempty"`

	// Never omitted: a drained clock is an explicit timer_remaining of 0,
	// matching the always-present field in the snapshot's gamestate.
	TimerRemaining float64 `json:"timer_remaining"`
	TimerPaused    bool    `json:"timer_paused"`
}
