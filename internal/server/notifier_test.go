package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/nightfall/internal/game"
	"github.com/lox/nightfall/internal/protocol"
)

func decodeData(t *testing.T, msg *protocol.Message, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Data, out))
}

func TestMessageFromEventMapsPayloads(t *testing.T) {
	t.Parallel()

	alice := game.Player{ID: "u1", Name: "Alice"}
	bob := game.Player{ID: "u2", Name: "Bob"}

	t.Run("player joined", func(t *testing.T) {
		msg, err := messageFromEvent(game.NewPlayerJoinedEvent("den", alice, 2))
		require.NoError(t, err)
		require.Equal(t, protocol.MessageTypePlayerJoined, msg.Type)

		var data protocol.PlayerJoinedData
		decodeData(t, msg, &data)
		assert.Equal(t, "den", data.Group)
		assert.Equal(t, protocol.PlayerRef{ID: "u1", Name: "Alice"}, data.Player)
		assert.Equal(t, 2, data.Count)
	})

	t.Run("role assigned", func(t *testing.T) {
		msg, err := messageFromEvent(game.NewRoleAssignedEvent("den", alice, game.RoleInvestigator))
		require.NoError(t, err)
		require.Equal(t, protocol.MessageTypeRoleAssigned, msg.Type)

		var data protocol.RoleAssignedData
		decodeData(t, msg, &data)
		assert.Equal(t, "investigator", data.Role)
	})

	t.Run("night menu carries target ids", func(t *testing.T) {
		ev := game.NewNightPromptEvent("den", alice, game.RoleKiller, []game.Player{bob})
		msg, err := messageFromEvent(ev)
		require.NoError(t, err)
		require.Equal(t, protocol.MessageTypeNightMenu, msg.Type)

		var data protocol.NightMenuData
		decodeData(t, msg, &data)
		assert.Equal(t, "killer", data.Role)
		require.Len(t, data.Targets, 1)
		assert.Equal(t, "u2", data.Targets[0].ID)
		assert.Equal(t, "Bob", data.Targets[0].Name)
	})

	t.Run("night result with victim and investigation", func(t *testing.T) {
		inv := &game.InvestigationReveal{Target: bob, Role: game.RoleKiller}
		ev := game.NewNightResultEvent("den", &alice, inv, []game.Player{bob})
		msg, err := messageFromEvent(ev)
		require.NoError(t, err)

		var data protocol.NightResultData
		decodeData(t, msg, &data)
		require.NotNil(t, data.Victim)
		assert.Equal(t, "Alice", data.Victim.Name)
		require.NotNil(t, data.Investigation)
		assert.Equal(t, "Bob", data.Investigation.Target.Name)
		assert.Equal(t, "killer", data.Investigation.Role)
		assert.Equal(t, []string{"Bob"}, data.Alive)
	})

	t.Run("quiet night omits victim", func(t *testing.T) {
		ev := game.NewNightResultEvent("den", nil, nil, []game.Player{alice, bob})
		msg, err := messageFromEvent(ev)
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(msg.Data, &raw))
		assert.NotContains(t, raw, "victim")
		assert.NotContains(t, raw, "investigation")
	})

	t.Run("tied vote", func(t *testing.T) {
		ev := game.NewVoteResultEvent("den", nil, true, []game.Player{alice, bob})
		msg, err := messageFromEvent(ev)
		require.NoError(t, err)

		var data protocol.VoteResultData
		decodeData(t, msg, &data)
		assert.Nil(t, data.Eliminated)
		assert.True(t, data.Tie)
		assert.Equal(t, []string{"Alice", "Bob"}, data.Alive)
	})

	t.Run("game ended reveals every role", func(t *testing.T) {
		reveal := []game.RoleReveal{
			{Player: alice, Role: game.RoleKiller},
			{Player: bob, Role: game.RoleCivilian},
		}
		msg, err := messageFromEvent(game.NewGameEndedEvent("den", game.FactionGood, reveal))
		require.NoError(t, err)

		var data protocol.GameEndedData
		decodeData(t, msg, &data)
		assert.Equal(t, "good", data.Winner)
		require.Len(t, data.Reveal, 2)
		assert.Equal(t, "Alice", data.Reveal[0].Player.Name)
		assert.Equal(t, "killer", data.Reveal[0].Role)
	})
}

func TestNotifyPrivateEventNeedsConnection(t *testing.T) {
	t.Parallel()

	srv := NewServer(testLogger())
	notifier := srv.Notifier()

	ghost := game.Player{ID: "ghost", Name: "Ghost"}
	err := notifier.Notify(game.NewRoleAssignedEvent("den", ghost, game.RoleKiller))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestNotifyBroadcastWithoutWatchers(t *testing.T) {
	t.Parallel()

	srv := NewServer(testLogger())
	notifier := srv.Notifier()

	// Broadcasts to an unwatched group simply go nowhere.
	require.NoError(t, notifier.Notify(game.NewGameCreatedEvent("den")))
}
