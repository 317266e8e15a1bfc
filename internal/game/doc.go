// Package game implements the state engine for a social deduction party
// game played in chat groups.
//
// The central types are Registry and Session. A Registry owns at most one
// Session per chat group plus a secondary index from player id to the group
// the player is currently in; every inbound operation enters through the
// Registry. A Session is the per-group phase machine: a lobby collects
// players, Begin deals roles and opens the first night, nights collect
// private role actions, days collect votes, and the game ends the moment a
// win condition holds.
//
// # Basic Usage
//
// Create a registry and drive a game through it:
//
//	r := game.NewRegistry(logger, notifier)
//	r.NewGame("den")
//	r.Join("den", "u1", "Alice")
//	r.Join("den", "u2", "Bob")
//	r.Join("den", "u3", "Carol")
//	r.Begin("den")
//	// Night actions arrive on private channels and carry no group.
//	r.SubmitNightAction("u1", game.NightAction{Slot: game.RoleKiller, Target: "u2"})
//	r.EndNight("den")
//	r.SubmitVote("den", "u1", "Bob")
//
// Everything a session tells the outside world is a typed event handed to
// the Notifier; delivery failures are logged and never abort the operation
// that produced the event.
//
// # Deterministic Testing
//
// Role assignment is a uniform shuffle over seats. Inject a seed for
// reproducible deals and a quartz clock for deadline control:
//
//	clock := quartz.NewMock(t)
//	r := game.NewRegistry(logger, notifier,
//	    game.WithSeed(42),
//	    game.WithClock(clock),
//	)
//
// # Resolution Rules
//
// The phase-boundary rules live in pure functions so they can be tested in
// isolation: AssignRoles deals the role composition, ResolveNight decides
// who the night claims, TallyVotes counts a day's votes, and Winner checks
// the win condition after every change to the alive set.
package game
