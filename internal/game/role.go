package game

// Role identifies the ability a player was dealt at the start of a game.
type Role string

// Role constants for the dealt roles
const (
	RoleKiller       Role = "killer"
	RoleProtector    Role = "protector"
	RoleInvestigator Role = "investigator"
	RoleCivilian     Role = "civilian"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the dealt roles.
func (r Role) Valid() bool {
	switch r {
	case RoleKiller, RoleProtector, RoleInvestigator, RoleCivilian:
		return true
	}
	return false
}

// Acts reports whether the role takes a night action.
func (r Role) Acts() bool {
	switch r {
	case RoleKiller, RoleProtector, RoleInvestigator:
		return true
	}
	return false
}

// CanTarget reports whether the role may aim its night action at the given
// player. Only the protector may choose itself.
func (r Role) CanTarget(actorID, targetID string) bool {
	if actorID != targetID {
		return true
	}
	return r == RoleProtector
}

// Faction identifies which side a role wins with.
type Faction string

// Faction constants
const (
	FactionGood Faction = "good"
	FactionEvil Faction = "evil"
)

// String returns the string representation of the faction
func (f Faction) String() string {
	return string(f)
}

// Faction returns the side the role wins with.
func (r Role) Faction() Faction {
	if r == RoleKiller {
		return FactionEvil
	}
	return FactionGood
}
