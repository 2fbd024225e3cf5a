package referral

// Rank is one tier in the fixed 9-step movement ladder. Advancing to a tier
// requires meeting BOTH thresholds at once.
type Rank struct {
	Tier      int
	Name      string
	MinDirect int64
	MinTeam   int64
}

// Ladder is ordered lowest tier first. Thresholds increase monotonically.
var Ladder = []Rank{
	{Tier: 1, Name: "Member", MinDirect: 0, MinTeam: 0},
	{Tier: 2, Name: "Activist", MinDirect: 2, MinTeam: 2},
	{Tier: 3, Name: "Organizer", MinDirect: 5, MinTeam: 10},
	{Tier: 4, Name: "Village Coordinator", MinDirect: 10, MinTeam: 25},
	{Tier: 5, Name: "Mandal Coordinator", MinDirect: 15, MinTeam: 75},
	{Tier: 6, Name: "District Coordinator", MinDirect: 25, MinTeam: 200},
	{Tier: 7, Name: "Zonal Coordinator", MinDirect: 40, MinTeam: 500},
	{Tier: 8, Name: "State Coordinator", MinDirect: 60, MinTeam: 1500},
	{Tier: 9, Name: "National Coordinator", MinDirect: 100, MinTeam: 5000},
}

// EvaluateRank walks the ladder from the highest tier down and returns the
// first tier whose direct-referral AND team-size thresholds are both met.
func EvaluateRank(directReferrals, teamSize int64) Rank {
	for i := len(Ladder) - 1; i >= 0; i-- {
		r := Ladder[i]
		if directReferrals >= r.MinDirect && teamSize >= r.MinTeam {
			return r
		}
	}
	return Ladder[0]
}

// RankByTier returns the ladder entry for tier, or tier 1 for anything out of
// range.
func RankByTier(tier int) Rank {
	if tier < 1 || tier > len(Ladder) {
		return Ladder[0]
	}
	return Ladder[tier-1]
}
