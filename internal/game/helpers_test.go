package game

import (
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync"
	"testing"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lox/nightfall/internal/randutil"
)

// testLogger returns a disabled logger for tests.
func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}

func newTestClock() quartz.Clock {
	return quartz.NewReal()
}

func newTestRNG() *rand.Rand {
	return randutil.New(11)
}

// act builds a night action for the given slot and target.
func act(slot Role, target string) NightAction {
	return NightAction{Slot: slot, Target: target}
}

// recordingNotifier captures every event for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []GameEvent
}

func (n *recordingNotifier) Notify(ev GameEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) byType(et EventType) []GameEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []GameEvent
	for _, ev := range n.events {
		if ev.EventType() == et {
			out = append(out, ev)
		}
	}
	return out
}

func (n *recordingNotifier) last(t *testing.T, et EventType) GameEvent {
	t.Helper()
	matches := n.byType(et)
	require.NotEmpty(t, matches, "no %s event recorded", et)
	return matches[len(matches)-1]
}

// roles rebuilds the dealt roles from the private role events, which is how
// players themselves learn them.
func (n *recordingNotifier) roles() map[string]Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	roles := make(map[string]Role)
	for _, ev := range n.events {
		if ra, ok := ev.(RoleAssignedEvent); ok {
			roles[ra.Player.ID] = ra.Role
		}
	}
	return roles
}

// testGame is a started game plus the bookkeeping tests need to pick actors
// and targets by role.
type testGame struct {
	group string
	ids   []string
	names map[string]string
	roles map[string]Role
}

// holder returns the id of the player dealt the given role.
func (g *testGame) holder(t *testing.T, role Role) string {
	t.Helper()
	for _, id := range g.ids {
		if g.roles[id] == role {
			return id
		}
	}
	t.Fatalf("no player holds role %s", role)
	return ""
}

// civilians returns the ids of every civilian in join order.
func (g *testGame) civilians() []string {
	var out []string
	for _, id := range g.ids {
		if g.roles[id] == RoleCivilian {
			out = append(out, id)
		}
	}
	return out
}

// startGame creates a game in the group, joins one player per name and deals
// roles. Player ids are group-scoped so one registry can host several games.
func startGame(t *testing.T, r *Registry, n *recordingNotifier, group string, names ...string) *testGame {
	t.Helper()

	g := &testGame{group: group, names: make(map[string]string)}

	r.NewGame(group)
	for i, name := range names {
		id := fmt.Sprintf("%s-u%d", group, i+1)
		require.NoError(t, r.Join(group, id, name))
		g.ids = append(g.ids, id)
		g.names[id] = name
	}
	require.NoError(t, r.Begin(group))

	g.roles = make(map[string]Role)
	for id, role := range n.roles() {
		if _, ours := g.names[id]; ours {
			g.roles[id] = role
		}
	}
	require.Len(t, g.roles, len(names), "every player must be dealt a role")
	return g
}

// newTestSession builds a standalone session with a lobby, bypassing the
// registry, for tests that need direct access to session internals.
func newTestSession(t *testing.T, n Notifier, names ...string) *Session {
	t.Helper()

	s := newSession("den", DefaultConfig(), testLogger(), n, newTestClock(), newTestRNG(), nil)
	for i, name := range names {
		require.NoError(t, s.Join(Player{ID: fmt.Sprintf("u%d", i+1), Name: name}))
	}
	return s
}
