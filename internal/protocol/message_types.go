package protocol

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-gateway communication
const (
	// Client to server messages
	MessageTypeHello       MessageType = "hello"
	MessageTypeNewGame     MessageType = "new_game"
	MessageTypeJoinGame    MessageType = "join_game"
	MessageTypeListPlayers MessageType = "list_players"
	MessageTypeGameStatus  MessageType = "game_status"
	MessageTypeBeginGame   MessageType = "begin_game"
	MessageTypeStartNight  MessageType = "start_night"
	MessageTypeEndNight    MessageType = "end_night"
	MessageTypeNightAction MessageType = "night_action"
	MessageTypeVote        MessageType = "vote"

	// Server to client messages
	MessageTypeWelcome        MessageType = "welcome"
	MessageTypeError          MessageType = "error"
	MessageTypeGameCreated    MessageType = "game_created"
	MessageTypePlayerJoined   MessageType = "player_joined"
	MessageTypePlayerList     MessageType = "player_list"
	MessageTypeStatus         MessageType = "status"
	MessageTypeGameStarted    MessageType = "game_started"
	MessageTypeRoleAssigned   MessageType = "role_assigned"
	MessageTypeNightStarted   MessageType = "night_started"
	MessageTypeNightMenu      MessageType = "night_menu"
	MessageTypeNightConfirmed MessageType = "night_confirmed"
	MessageTypeNightResult    MessageType = "night_result"
	MessageTypeVoteRecorded   MessageType = "vote_recorded"
	MessageTypeVoteResult     MessageType = "vote_result"
	MessageTypeGameEnded      MessageType = "game_ended"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
