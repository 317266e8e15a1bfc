package game

import "errors"

// Sentinel errors returned by registry and session operations. Callers match
// them with errors.Is; the gateway maps them to wire error codes.
var (
	// ErrNoSuchGame indicates the group has no active session.
	ErrNoSuchGame = errors.New("no game in this group")

	// ErrAlreadyStarted indicates a join or begin arrived after roles were dealt.
	ErrAlreadyStarted = errors.New("game already started")

	// ErrAlreadyJoined indicates the player is already in this game's lobby.
	ErrAlreadyJoined = errors.New("already joined this game")

	// ErrInAnotherGame indicates the player is active in a different group.
	ErrInAnotherGame = errors.New("already playing in another group")

	// ErrInsufficientPlayers indicates the lobby is too small to deal roles.
	ErrInsufficientPlayers = errors.New("not enough players to start")

	// ErrWrongPhase indicates the operation is not legal in the current phase.
	ErrWrongPhase = errors.New("not allowed in the current phase")

	// ErrWrongRole indicates a night action claimed a role slot the player
	// does not hold.
	ErrWrongRole = errors.New("player does not hold that role")

	// ErrNotAlive indicates the acting player has been eliminated.
	ErrNotAlive = errors.New("player is not alive")

	// ErrInvalidTarget indicates the chosen target is dead or otherwise
	// illegal for the acting role.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrNoSuchPlayer indicates the referenced player was not found in the
	// game, for example a vote naming nobody alive.
	ErrNoSuchPlayer = errors.New("no such player")

	// ErrNotInAnyGame indicates a private action from a player the index does
	// not know about.
	ErrNotInAnyGame = errors.New("player is not in any game")
)
