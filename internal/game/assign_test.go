package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/nightfall/internal/randutil"
)

func TestAssignRolesComposition(t *testing.T) {
	t.Parallel()

	for _, n := range []int{3, 4, 5, 8} {
		ids := testPlayerIDs(n)
		roles, err := AssignRoles(ids, randutil.New(42))
		require.NoError(t, err)
		require.Len(t, roles, n)

		counts := make(map[Role]int)
		for _, id := range ids {
			role, ok := roles[id]
			require.True(t, ok, "player %s was not dealt a role", id)
			counts[role]++
		}
		assert.Equal(t, 1, counts[RoleKiller], "players=%d", n)
		assert.Equal(t, 1, counts[RoleProtector], "players=%d", n)
		assert.Equal(t, 1, counts[RoleInvestigator], "players=%d", n)
		assert.Equal(t, n-3, counts[RoleCivilian], "players=%d", n)
	}
}

func TestAssignRolesInsufficientPlayers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2} {
		_, err := AssignRoles(testPlayerIDs(n), randutil.New(1))
		assert.ErrorIs(t, err, ErrInsufficientPlayers, "players=%d", n)
	}
}

func TestAssignRolesDeterministicForSeed(t *testing.T) {
	t.Parallel()

	ids := testPlayerIDs(6)
	first, err := AssignRoles(ids, randutil.New(99))
	require.NoError(t, err)
	second, err := AssignRoles(ids, randutil.New(99))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssignRolesVariesWithSeed(t *testing.T) {
	t.Parallel()

	ids := testPlayerIDs(5)
	killers := make(map[string]struct{})
	for seed := int64(0); seed < 50; seed++ {
		roles, err := AssignRoles(ids, randutil.New(seed))
		require.NoError(t, err)
		for id, role := range roles {
			if role == RoleKiller {
				killers[id] = struct{}{}
			}
		}
	}
	assert.Greater(t, len(killers), 1, "killer landed on the same seat for every seed")
}

func testPlayerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i+1)
	}
	return ids
}
