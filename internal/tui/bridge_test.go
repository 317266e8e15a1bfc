package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/nightfall/internal/protocol"
)

func TestFormatStatus(t *testing.T) {
	t.Run("lobby", func(t *testing.T) {
		line := formatStatus(protocol.StatusData{Group: "den", Phase: "lobby"})
		assert.Equal(t, "den: waiting in the lobby", line)
	})

	t.Run("running game", func(t *testing.T) {
		line := formatStatus(protocol.StatusData{
			Group:   "den",
			Phase:   "night",
			Started: true,
			Round:   2,
			Alive:   []string{"Alice", "Bob", "Carol"},
		})
		assert.Equal(t, "den: night 2 • 3 alive: Alice, Bob, Carol", line)
	})
}

func TestFormatNightResult(t *testing.T) {
	t.Run("kill with investigation", func(t *testing.T) {
		lines := formatNightResult(protocol.NightResultData{
			Group:  "den",
			Victim: &protocol.PlayerRef{ID: "u2", Name: "Bob"},
			Investigation: &protocol.InvestigationData{
				Target: protocol.PlayerRef{ID: "u3", Name: "Carol"},
				Role:   "civilian",
			},
			Alive: []string{"Alice", "Carol", "Dave"},
		})

		require.Len(t, lines, 3)
		assert.Equal(t, "Dawn breaks. Bob was found dead.", lines[0])
		assert.Equal(t, "The investigation points at Carol: they are a civilian.", lines[1])
		assert.Equal(t, "3 players remain. Discuss and /vote <name>.", lines[2])
	})

	t.Run("quiet night", func(t *testing.T) {
		lines := formatNightResult(protocol.NightResultData{
			Group: "den",
			Alive: []string{"Alice", "Bob"},
		})

		require.Len(t, lines, 2)
		assert.Equal(t, "Dawn breaks. Everyone is still alive.", lines[0])
	})
}

func TestFormatVoteResult(t *testing.T) {
	t.Run("banished", func(t *testing.T) {
		lines := formatVoteResult(protocol.VoteResultData{
			Group:      "den",
			Eliminated: &protocol.PlayerRef{ID: "u1", Name: "Alice"},
			Alive:      []string{"Bob", "Carol"},
		})

		require.Len(t, lines, 2)
		assert.Equal(t, "The group has decided: Alice is banished.", lines[0])
		assert.Equal(t, "2 players remain.", lines[1])
	})

	t.Run("tie", func(t *testing.T) {
		lines := formatVoteResult(protocol.VoteResultData{
			Group: "den",
			Tie:   true,
			Alive: []string{"Alice", "Bob", "Carol"},
		})

		require.NotEmpty(t, lines)
		assert.Equal(t, "The vote is tied. Nobody is banished.", lines[0])
	})

	t.Run("no votes", func(t *testing.T) {
		lines := formatVoteResult(protocol.VoteResultData{
			Group: "den",
			Alive: []string{"Alice", "Bob"},
		})

		require.NotEmpty(t, lines)
		assert.Equal(t, "No votes were cast. Nobody is banished.", lines[0])
	})
}

func TestFormatGameEnded(t *testing.T) {
	t.Run("good wins with reveal", func(t *testing.T) {
		lines := formatGameEnded(protocol.GameEndedData{
			Group:  "den",
			Winner: "good",
			Reveal: []protocol.RoleRevealData{
				{Player: protocol.PlayerRef{ID: "u1", Name: "Alice"}, Role: "killer"},
				{Player: protocol.PlayerRef{ID: "u2", Name: "Bob"}, Role: "protector"},
			},
		})

		require.Len(t, lines, 3)
		assert.Equal(t, "THE VILLAGE WINS: the killer is gone", lines[0])
		assert.Equal(t, "  Alice was the killer", lines[1])
		assert.Equal(t, "  Bob was the protector", lines[2])
	})

	t.Run("evil wins", func(t *testing.T) {
		lines := formatGameEnded(protocol.GameEndedData{
			Group:  "den",
			Winner: "evil",
		})

		require.Len(t, lines, 1)
		assert.Equal(t, "THE KILLER WINS: the village has fallen", lines[0])
	})
}

func TestHelpLinesCoverEveryCommand(t *testing.T) {
	commands := []string{
		"/new", "/join", "/players", "/status", "/begin",
		"/pick", "/day", "/vote", "/night", "/quit",
	}

	help := helpLines()
	joined := ""
	for _, line := range help {
		joined += line + "\n"
	}

	for _, command := range commands {
		assert.Contains(t, joined, command)
	}
}
