package game

// Winner returns the faction that has won, if any. Good wins the moment no
// living killer remains; evil wins when it matches or outnumbers the living
// good players. The two conditions cannot hold at once: the first requires
// zero living evil, the second at least one. An empty alive set reports no
// winner.
func Winner(roles map[string]Role, alive map[string]struct{}) (Faction, bool) {
	if len(alive) == 0 {
		return "", false
	}

	var evil, good int
	for id := range alive {
		if roles[id].Faction() == FactionEvil {
			evil++
		} else {
			good++
		}
	}

	if evil == 0 {
		return FactionGood, true
	}
	if evil >= good {
		return FactionEvil, true
	}
	return "", false
}
