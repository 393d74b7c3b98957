package brackets

import (
	"sort"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

// SeedEntry is a numbered knockout seed. TeamID is nil for placeholder seeds
// created before the group stage has finished.
type SeedEntry struct {
	Number      int
	TeamID      *int
	GroupNumber int
	Position    int
}

// SeedQualifiers ranks group winners first and everyone else after them, each
// part ordered by points, goal difference and goals scored.
func SeedQualifiers(qualifiers []models.Qualifier) []SeedEntry {
	var winners, rest []models.Qualifier
	for _, q := range qualifiers {
		if q.Position <= 1 {
			winners = append(winners, q)
		} else {
			rest = append(rest, q)
		}
	}
	sortQualifiers(winners)
	sortQualifiers(rest)

	seeds := make([]SeedEntry, 0, len(qualifiers))
	for _, q := range append(winners, rest...) {
		id := q.Team.ID
		seeds = append(seeds, SeedEntry{
			Number:      len(seeds) + 1,
			TeamID:      &id,
			GroupNumber: q.GroupNumber,
			Position:    q.Position,
		})
	}
	return seeds
}

func sortQualifiers(qs []models.Qualifier) {
	sort.SliceStable(qs, func(i, j int) bool {
		a, b := qs[i].Team, qs[j].Team
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})
}

// PlaceholderSeeds returns n seeds without teams.
func PlaceholderSeeds(n int) []SeedEntry {
	seeds := make([]SeedEntry, n)
	for i := range seeds {
		seeds[i] = SeedEntry{Number: i + 1}
	}
	return seeds
}

// BracketSize returns the smallest power of two holding q teams (at least 2)
// and how many top seeds skip the first round.
func BracketSize(q int) (size, byes int) {
	size = 2
	for size < q {
		size <<= 1
	}
	if q < size {
		byes = size - q
	}
	return size, byes
}

// SeedOrder lists seed numbers in bracket-slot order so that seeds 1 and 2
// can only meet in the final: 2 -> [1 2], 4 -> [1 4 2 3], 8 -> [1 8 4 5 2 7 3 6].
func SeedOrder(size int) []int {
	order := []int{1, 2}
	for n := 4; n <= size; n <<= 1 {
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order
}

// FirstRoundPairing is one round-one slot. Bye is set when the away seed does
// not exist.
type FirstRoundPairing struct {
	Position int
	Home     SeedEntry
	Away     SeedEntry
	Bye      bool
}

// PairFirstRound lays seeds into a bracket of the given size: seed s meets
// seed size+1-s, so the top size-len(seeds) seeds meet a missing seed and get
// a bye. A pairing of two teams from the same group gets one greedy swap of its
// away seed with the away seed of the first other pairing where the swap leaves
// both pairings mixed. When no such pairing exists the same-group pairing stands.
func PairFirstRound(seeds []SeedEntry, size int) []FirstRoundPairing {
	byNumber := make(map[int]SeedEntry, len(seeds))
	for _, s := range seeds {
		byNumber[s.Number] = s
	}

	order := SeedOrder(size)
	pairings := make([]FirstRoundPairing, 0, size/2)
	for k := 0; k < size/2; k++ {
		a, b := order[2*k], order[2*k+1]
		if b < a {
			a, b = b, a
		}
		home := byNumber[a]
		away, ok := byNumber[b]
		if !ok {
			away = SeedEntry{Number: b}
		}
		pairings = append(pairings, FirstRoundPairing{
			Position: k + 1,
			Home:     home,
			Away:     away,
			Bye:      !ok,
		})
	}

	avoidSameGroup(pairings)
	return pairings
}

func avoidSameGroup(pairings []FirstRoundPairing) {
	for k := range pairings {
		p := &pairings[k]
		if p.Bye || p.Home.GroupNumber == 0 || p.Home.GroupNumber != p.Away.GroupNumber {
			continue
		}
		for j := range pairings {
			q := &pairings[j]
			if j == k || q.Bye {
				continue
			}
			if q.Away.GroupNumber == p.Home.GroupNumber || p.Away.GroupNumber == q.Home.GroupNumber {
				continue
			}
			p.Away, q.Away = q.Away, p.Away
			break
		}
	}
}

// StageLabels names each knockout round from the first to the final.
func StageLabels(size int) []models.MatchStage {
	var labels []models.MatchStage
	for left := size; left >= 2; left >>= 1 {
		switch left {
		case 2:
			labels = append(labels, models.MatchStageFinal)
		case 4:
			labels = append(labels, models.MatchStageSemiFinal)
		case 8:
			labels = append(labels, models.MatchStageQuarterFinal)
		default:
			labels = append(labels, models.RoundOfStage(left))
		}
	}
	return labels
}
