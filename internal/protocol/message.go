// Package protocol defines the JSON wire format spoken between the gateway
// and its clients. Every frame is a Message envelope whose Data payload is
// decoded according to Type.
package protocol

import (
	"encoding/json"
	"time"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// PlayerRef identifies a player in wire payloads.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client → Server Messages

// HelloData identifies the client. PlayerID is optional: a reconnecting
// client presents the id it was minted last time, a fresh client leaves it
// empty and receives one in the welcome.
type HelloData struct {
	Name     string `json:"name"`
	PlayerID string `json:"playerId,omitempty"`
}

// NewGameData opens a lobby. An empty group asks the gateway to mint a
// group id.
type NewGameData struct {
	Group string `json:"group,omitempty"`
}

type JoinGameData struct {
	Group string `json:"group"`
}

type ListPlayersData struct {
	Group string `json:"group"`
}

type GameStatusData struct {
	Group string `json:"group"`
}

type BeginGameData struct {
	Group string `json:"group"`
}

type StartNightData struct {
	Group string `json:"group"`
}

type EndNightData struct {
	Group string `json:"group"`
}

// NightActionData is a private role submission. It carries no group; the
// gateway routes it to whichever game the sender is playing in. Target is a
// player id taken from the night menu.
type NightActionData struct {
	Role   string `json:"role"`
	Target string `json:"target"`
}

// VoteData casts a day vote. Target is a display name, matched
// case-insensitively among the living.
type VoteData struct {
	Group  string `json:"group"`
	Target string `json:"target"`
}

// Server → Client Messages

type WelcomeData struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GameCreatedData struct {
	Group string `json:"group"`
}

type PlayerJoinedData struct {
	Group  string    `json:"group"`
	Player PlayerRef `json:"player"`
	Count  int       `json:"count"`
}

type PlayerListData struct {
	Group   string   `json:"group"`
	Players []string `json:"players"`
}

type StatusData struct {
	Group   string   `json:"group"`
	Phase   string   `json:"phase"`
	Started bool     `json:"started"`
	Round   int      `json:"round"`
	Alive   []string `json:"alive"`
}

type GameStartedData struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// RoleAssignedData is sent privately to each player when roles are dealt.
type RoleAssignedData struct {
	Group string `json:"group"`
	Role  string `json:"role"`
}

type NightStartedData struct {
	Group string `json:"group"`
	Round int    `json:"round"`
}

// NightMenuData privately offers a special role its legal targets for the
// current night.
type NightMenuData struct {
	Group   string      `json:"group"`
	Role    string      `json:"role"`
	Targets []PlayerRef `json:"targets"`
}

type NightConfirmedData struct {
	Group  string    `json:"group"`
	Role   string    `json:"role"`
	Target PlayerRef `json:"target"`
}

// InvestigationData is the investigator's finding, announced to the whole
// group with the night result.
type InvestigationData struct {
	Target PlayerRef `json:"target"`
	Role   string    `json:"role"`
}

// NightResultData reports how a night resolved. Victim is null when nobody
// died.
type NightResultData struct {
	Group         string             `json:"group"`
	Victim        *PlayerRef         `json:"victim,omitempty"`
	Investigation *InvestigationData `json:"investigation,omitempty"`
	Alive         []string           `json:"alive"`
}

type VoteRecordedData struct {
	Group  string    `json:"group"`
	Voter  PlayerRef `json:"voter"`
	Target string    `json:"target"`
	Cast   int       `json:"cast"`
	Needed int       `json:"needed"`
}

// VoteResultData reports a concluded day vote. Eliminated is null on a tie
// or when the deadline lapsed with no votes.
type VoteResultData struct {
	Group      string     `json:"group"`
	Eliminated *PlayerRef `json:"eliminated,omitempty"`
	Tie        bool       `json:"tie"`
	Alive      []string   `json:"alive"`
}

// RoleRevealData pairs a player with the role they held, for the endgame
// report.
type RoleRevealData struct {
	Player PlayerRef `json:"player"`
	Role   string    `json:"role"`
}

type GameEndedData struct {
	Group  string           `json:"group"`
	Winner string           `json:"winner"`
	Reveal []RoleRevealData `json:"reveal"`
}
