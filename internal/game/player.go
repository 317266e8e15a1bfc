package game

// Player is a participant in a session. The ID is the chat platform's stable
// identifier; Name is the display name used in group messages and vote
// targeting.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
