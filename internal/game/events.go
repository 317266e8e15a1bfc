package game

import "time"

// EventType represents an outbound notification type with type safety
type EventType string

// EventType constants for session notifications
// These represent everything a session tells the outside world
const (
	EventTypeGameCreated    EventType = "game_created"
	EventTypePlayerJoined   EventType = "player_joined"
	EventTypeGameStarted    EventType = "game_started"
	EventTypeRoleAssigned   EventType = "role_assigned"
	EventTypeNightStarted   EventType = "night_started"
	EventTypeNightPrompt    EventType = "night_prompt"
	EventTypeNightConfirmed EventType = "night_confirmed"
	EventTypeNightResult    EventType = "night_result"
	EventTypeVoteRecorded   EventType = "vote_recorded"
	EventTypeVoteResult     EventType = "vote_result"
	EventTypeGameEnded      EventType = "game_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any notification produced by a session. Events that
// implement PrivateEvent are for one player only; everything else is meant
// for the whole group.
type GameEvent interface {
	EventType() EventType
	Group() string
	Timestamp() time.Time
}

// PrivateEvent is a notification addressed to a single player.
type PrivateEvent interface {
	GameEvent
	Recipient() Player
}

// Notifier delivers events to the outside world. Notify is called while the
// session lock is held, so implementations must only describe or enqueue the
// delivery, never perform blocking I/O. A returned error is logged by the
// session and never aborts the operation that produced the event.
type Notifier interface {
	Notify(event GameEvent) error
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(GameEvent) error { return nil }

// GameCreatedEvent is published when a fresh session opens in a group
type GameCreatedEvent struct {
	group     string
	timestamp time.Time
}

func (e GameCreatedEvent) EventType() EventType { return EventTypeGameCreated }
func (e GameCreatedEvent) Group() string        { return e.group }
func (e GameCreatedEvent) Timestamp() time.Time { return e.timestamp }

// NewGameCreatedEvent creates a new game created event
func NewGameCreatedEvent(group string) GameCreatedEvent {
	return GameCreatedEvent{group: group, timestamp: time.Now()}
}

// PlayerJoinedEvent is published when a player enters the lobby
type PlayerJoinedEvent struct {
	Player    Player
	Count     int
	group     string
	timestamp time.Time
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }
func (e PlayerJoinedEvent) Group() string        { return e.group }
func (e PlayerJoinedEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerJoinedEvent creates a new player joined event
func NewPlayerJoinedEvent(group string, player Player, count int) PlayerJoinedEvent {
	return PlayerJoinedEvent{
		Player:    player,
		Count:     count,
		group:     group,
		timestamp: time.Now(),
	}
}

// GameStartedEvent is published when roles have been dealt and night falls
type GameStartedEvent struct {
	Count     int
	group     string
	timestamp time.Time
}

func (e GameStartedEvent) EventType() EventType { return EventTypeGameStarted }
func (e GameStartedEvent) Group() string        { return e.group }
func (e GameStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewGameStartedEvent creates a new game started event
func NewGameStartedEvent(group string, count int) GameStartedEvent {
	return GameStartedEvent{Count: count, group: group, timestamp: time.Now()}
}

// RoleAssignedEvent privately tells one player the role they were dealt
type RoleAssignedEvent struct {
	Player    Player
	Role      Role
	group     string
	timestamp time.Time
}

func (e RoleAssignedEvent) EventType() EventType { return EventTypeRoleAssigned }
func (e RoleAssignedEvent) Group() string        { return e.group }
func (e RoleAssignedEvent) Timestamp() time.Time { return e.timestamp }
func (e RoleAssignedEvent) Recipient() Player    { return e.Player }

// NewRoleAssignedEvent creates a new role assigned event
func NewRoleAssignedEvent(group string, player Player, role Role) RoleAssignedEvent {
	return RoleAssignedEvent{
		Player:    player,
		Role:      role,
		group:     group,
		timestamp: time.Now(),
	}
}

// NightStartedEvent is published when a night begins
type NightStartedEvent struct {
	Round     int
	group     string
	timestamp time.Time
}

func (e NightStartedEvent) EventType() EventType { return EventTypeNightStarted }
func (e NightStartedEvent) Group() string        { return e.group }
func (e NightStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewNightStartedEvent creates a new night started event
func NewNightStartedEvent(group string, round int) NightStartedEvent {
	return NightStartedEvent{Round: round, group: group, timestamp: time.Now()}
}

// NightPromptEvent privately offers a special role its legal targets
type NightPromptEvent struct {
	Player    Player
	Slot      Role
	Targets   []Player
	group     string
	timestamp time.Time
}

func (e NightPromptEvent) EventType() EventType { return EventTypeNightPrompt }
func (e NightPromptEvent) Group() string        { return e.group }
func (e NightPromptEvent) Timestamp() time.Time { return e.timestamp }
func (e NightPromptEvent) Recipient() Player    { return e.Player }

// NewNightPromptEvent creates a new night prompt event
func NewNightPromptEvent(group string, player Player, slot Role, targets []Player) NightPromptEvent {
	copied := make([]Player, len(targets))
	copy(copied, targets)
	return NightPromptEvent{
		Player:    player,
		Slot:      slot,
		Targets:   copied,
		group:     group,
		timestamp: time.Now(),
	}
}

// NightConfirmedEvent privately acknowledges a stored night action
type NightConfirmedEvent struct {
	Player    Player
	Slot      Role
	Target    Player
	group     string
	timestamp time.Time
}

func (e NightConfirmedEvent) EventType() EventType { return EventTypeNightConfirmed }
func (e NightConfirmedEvent) Group() string        { return e.group }
func (e NightConfirmedEvent) Timestamp() time.Time { return e.timestamp }
func (e NightConfirmedEvent) Recipient() Player    { return e.Player }

// NewNightConfirmedEvent creates a new night confirmed event
func NewNightConfirmedEvent(group string, player Player, slot Role, target Player) NightConfirmedEvent {
	return NightConfirmedEvent{
		Player:    player,
		Slot:      slot,
		Target:    target,
		group:     group,
		timestamp: time.Now(),
	}
}

// InvestigationReveal pairs the investigated player with their true role.
type InvestigationReveal struct {
	Target Player
	Role   Role
}

// NightResultEvent is published when a night resolves and day breaks. Victim
// is nil when the kill was cancelled or never chosen. The investigation is
// announced to the whole group, exactly like the table talk it replaces.
type NightResultEvent struct {
	Victim        *Player
	Investigation *InvestigationReveal
	Alive         []Player
	group         string
	timestamp     time.Time
}

func (e NightResultEvent) EventType() EventType { return EventTypeNightResult }
func (e NightResultEvent) Group() string        { return e.group }
func (e NightResultEvent) Timestamp() time.Time { return e.timestamp }

// NewNightResultEvent creates a new night result event
func NewNightResultEvent(group string, victim *Player, investigation *InvestigationReveal, alive []Player) NightResultEvent {
	copied := make([]Player, len(alive))
	copy(copied, alive)
	return NightResultEvent{
		Victim:        victim,
		Investigation: investigation,
		Alive:         copied,
		group:         group,
		timestamp:     time.Now(),
	}
}

// VoteRecordedEvent is published after each accepted day vote
type VoteRecordedEvent struct {
	Voter      Player
	TargetName string
	Cast       int
	Needed     int
	group      string
	timestamp  time.Time
}

func (e VoteRecordedEvent) EventType() EventType { return EventTypeVoteRecorded }
func (e VoteRecordedEvent) Group() string        { return e.group }
func (e VoteRecordedEvent) Timestamp() time.Time { return e.timestamp }

// NewVoteRecordedEvent creates a new vote recorded event
func NewVoteRecordedEvent(group string, voter Player, targetName string, cast, needed int) VoteRecordedEvent {
	return VoteRecordedEvent{
		Voter:      voter,
		TargetName: targetName,
		Cast:       cast,
		Needed:     needed,
		group:      group,
		timestamp:  time.Now(),
	}
}

// VoteResultEvent is published when a day's vote concludes. Eliminated is nil
// on a tie or when no votes were cast before the day deadline.
type VoteResultEvent struct {
	Eliminated *Player
	Tie        bool
	Alive      []Player
	group      string
	timestamp  time.Time
}

func (e VoteResultEvent) EventType() EventType { return EventTypeVoteResult }
func (e VoteResultEvent) Group() string        { return e.group }
func (e VoteResultEvent) Timestamp() time.Time { return e.timestamp }

// NewVoteResultEvent creates a new vote result event
func NewVoteResultEvent(group string, eliminated *Player, tie bool, alive []Player) VoteResultEvent {
	copied := make([]Player, len(alive))
	copy(copied, alive)
	return VoteResultEvent{
		Eliminated: eliminated,
		Tie:        tie,
		Alive:      copied,
		group:      group,
		timestamp:  time.Now(),
	}
}

// RoleReveal pairs a player with the role they held, for the endgame report.
type RoleReveal struct {
	Player Player
	Role   Role
}

// GameEndedEvent is published once when a win condition is met; the session
// is removed from the registry immediately after.
type GameEndedEvent struct {
	Winner    Faction
	Reveal    []RoleReveal
	group     string
	timestamp time.Time
}

func (e GameEndedEvent) EventType() EventType { return EventTypeGameEnded }
func (e GameEndedEvent) Group() string        { return e.group }
func (e GameEndedEvent) Timestamp() time.Time { return e.timestamp }

// NewGameEndedEvent creates a new game ended event
func NewGameEndedEvent(group string, winner Faction, reveal []RoleReveal) GameEndedEvent {
	copied := make([]RoleReveal, len(reveal))
	copy(copied, reveal)
	return GameEndedEvent{
		Winner:    winner,
		Reveal:    copied,
		group:     group,
		timestamp: time.Now(),
	}
}
