package game

import (
	rand "math/rand/v2"
)

// MinPlayers is the smallest lobby that can start a game: the three special
// roles must each land on a distinct player.
const MinPlayers = 3

// AssignRoles deals exactly one Killer, one Protector and one Investigator to
// the given players and fills the remaining seats with Civilians. The deal is
// a uniform shuffle driven by rng so callers can inject a seeded source for
// reproducible games.
func AssignRoles(playerIDs []string, rng *rand.Rand) (map[string]Role, error) {
	if len(playerIDs) < MinPlayers {
		return nil, ErrInsufficientPlayers
	}

	roles := make([]Role, 0, len(playerIDs))
	roles = append(roles, RoleKiller, RoleProtector, RoleInvestigator)
	for len(roles) < len(playerIDs) {
		roles = append(roles, RoleCivilian)
	}

	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	assigned := make(map[string]Role, len(playerIDs))
	for i, id := range playerIDs {
		assigned[id] = roles[i]
	}
	return assigned, nil
}
