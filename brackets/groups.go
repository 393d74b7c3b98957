package brackets

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

// AssignGroups shuffles teamIDs and deals them into numberOfGroups groups:
// the i-th shuffled team goes to group (i mod G)+1.
func AssignGroups(teamIDs []int, numberOfGroups int, rng *rand.Rand) (map[int]int, error) {
	if numberOfGroups < 1 {
		return nil, fmt.Errorf("number of groups must be at least 1, got %d", numberOfGroups)
	}
	shuffled := make([]int, len(teamIDs))
	copy(shuffled, teamIDs)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make(map[int]int, len(shuffled))
	for i, id := range shuffled {
		groups[id] = (i % numberOfGroups) + 1
	}
	return groups, nil
}

// GroupFixtures runs a round robin inside each group with at least two teams
// and tags the rows with stage group and the group number. Rows come out
// ordered by round, then group, so the scheduler interleaves groups.
func GroupFixtures(groups map[int][]int, doubleLeg bool) ([]*BracketMatch, error) {
	numbers := make([]int, 0, len(groups))
	for g, ids := range groups {
		if g > 0 && len(ids) >= 2 {
			numbers = append(numbers, g)
		}
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: no group has two or more teams", ErrNotEnoughTeams)
	}
	sort.Ints(numbers)

	var out []*BracketMatch
	for _, g := range numbers {
		pairings, err := RoundRobin(groups[g], doubleLeg)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", g, err)
		}
		for i, p := range pairings {
			group := g
			out = append(out, pairingToMatch(p, models.MatchStageGroup, &group, fmt.Sprintf("G%d_R%dM%d", g, p.Round, i+1)))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return *out[i].GroupNumber < *out[j].GroupNumber
	})
	return out, nil
}

// RankTeams sorts teams best first by points, then goal difference, then goals
// scored. The order of exact ties is kept.
func RankTeams(teams []models.Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})
}

// GroupStandings splits teams by group number and ranks each group. Teams
// without a group are left out.
func GroupStandings(teams []models.Team) []models.GroupStanding {
	byGroup := map[int][]models.Team{}
	for _, t := range teams {
		if g := t.Group(); g > 0 {
			byGroup[g] = append(byGroup[g], t)
		}
	}
	numbers := make([]int, 0, len(byGroup))
	for g := range byGroup {
		numbers = append(numbers, g)
	}
	sort.Ints(numbers)

	standings := make([]models.GroupStanding, 0, len(numbers))
	for _, g := range numbers {
		members := byGroup[g]
		RankTeams(members)
		standings = append(standings, models.GroupStanding{GroupNumber: g, Teams: members})
	}
	return standings
}

// Qualifiers takes the top perGroup teams of every group.
func Qualifiers(standings []models.GroupStanding, perGroup int) []models.Qualifier {
	var out []models.Qualifier
	for _, gs := range standings {
		for i, t := range gs.Teams {
			if i >= perGroup {
				break
			}
			out = append(out, models.Qualifier{Team: t, GroupNumber: gs.GroupNumber, Position: i + 1})
		}
	}
	return out
}
