package game

// NightAction is a single special-role submission for the current night.
// Actions arrive tagged with the role slot they exercise so the session can
// verify the sender actually holds that role before anything is stored.
type NightAction struct {
	Slot   Role
	Target string // target player id
}

// Investigation is the investigator's finding for one night.
type Investigation struct {
	Target string
	Role   Role
}

// NightOutcome is the result of resolving one night's actions.
type NightOutcome struct {
	Victim        string // empty when nobody died
	Investigation *Investigation
}

// ResolveNight applies the collected night actions. The kill lands unless the
// protector picked the same target; a missing submission means no action. The
// investigation is computed whenever one was submitted, independent of the
// kill outcome: the investigator learns the target's true role even on a
// night the investigator dies.
func ResolveNight(actions map[Role]string, roles map[string]Role) NightOutcome {
	var out NightOutcome

	if target := actions[RoleKiller]; target != "" && target != actions[RoleProtector] {
		out.Victim = target
	}

	if target := actions[RoleInvestigator]; target != "" {
		out.Investigation = &Investigation{Target: target, Role: roles[target]}
	}

	return out
}
