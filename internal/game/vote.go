package game

// VoteOutcome is the result of counting one day's votes.
type VoteOutcome struct {
	Eliminated string // target player id, empty when the vote eliminated nobody
	Tie        bool
}

// TallyVotes counts votes per target and eliminates the unique leader. Two or
// more targets sharing the maximum is a tie and nobody is eliminated. An
// empty vote map eliminates nobody without reporting a tie. The result is
// independent of map iteration order.
func TallyVotes(votes map[string]string) VoteOutcome {
	if len(votes) == 0 {
		return VoteOutcome{}
	}

	counts := make(map[string]int)
	for _, target := range votes {
		counts[target]++
	}

	var leader string
	top := 0
	tie := false
	for target, n := range counts {
		switch {
		case n > top:
			leader, top, tie = target, n, false
		case n == top:
			tie = true
		}
	}

	if tie {
		return VoteOutcome{Tie: true}
	}
	return VoteOutcome{Eliminated: leader}
}
