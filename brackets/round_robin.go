package brackets

import (
	"errors"
	"fmt"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

var ErrNotEnoughTeams = errors.New("not enough teams")

// Pairing is one round-robin fixture between two teams.
type Pairing struct {
	Round      int
	Leg        int
	HomeTeamID int
	AwayTeamID int
}

// RoundRobin pairs every team with every other team once per leg using the
// circle method: index N-1 stays fixed and the rest rotate one step per round.
// An odd field gets a bye index and whoever meets it sits the round out.
// Home and away are swapped on every second round so the fixed team alternates.
// Output is round-major; the second leg (if any) follows as rounds
// numRounds+1..2*numRounds with home and away reversed.
func RoundRobin(teamIDs []int, doubleLeg bool) ([]Pairing, error) {
	n := len(teamIDs)
	if n < 2 {
		return nil, fmt.Errorf("%w (found %d, min 2 required)", ErrNotEnoughTeams, n)
	}

	size := n
	if size%2 == 1 {
		size++
	}
	bye := -1
	if size != n {
		bye = size - 1
	}
	numRounds := size - 1
	perRound := size / 2

	pairings := make([]Pairing, 0, numRounds*perRound)
	for r := 0; r < numRounds; r++ {
		for m := 0; m < perRound; m++ {
			home := (r + m) % (size - 1)
			away := (size - 1 - m + r) % (size - 1)
			if m == 0 {
				away = size - 1
			}
			if home == bye || away == bye {
				continue
			}
			if r%2 == 1 {
				home, away = away, home
			}
			pairings = append(pairings, Pairing{
				Round:      r + 1,
				Leg:        1,
				HomeTeamID: teamIDs[home],
				AwayTeamID: teamIDs[away],
			})
		}
	}

	if doubleLeg {
		firstLeg := len(pairings)
		for i := 0; i < firstLeg; i++ {
			p := pairings[i]
			pairings = append(pairings, Pairing{
				Round:      numRounds + p.Round,
				Leg:        2,
				HomeTeamID: p.AwayTeamID,
				AwayTeamID: p.HomeTeamID,
			})
		}
	}
	return pairings, nil
}

// LeagueFixtures turns a full round-robin over teamIDs into league-stage rows.
func LeagueFixtures(teamIDs []int, doubleLeg bool) ([]*BracketMatch, error) {
	pairings, err := RoundRobin(teamIDs, doubleLeg)
	if err != nil {
		return nil, err
	}
	out := make([]*BracketMatch, 0, len(pairings))
	for i, p := range pairings {
		out = append(out, pairingToMatch(p, models.MatchStageLeague, nil, fmt.Sprintf("L_R%dM%d", p.Round, i+1)))
	}
	return out, nil
}

func pairingToMatch(p Pairing, stage models.MatchStage, group *int, uid string) *BracketMatch {
	home, away := p.HomeTeamID, p.AwayTeamID
	return &BracketMatch{
		UID:         uid,
		Stage:       stage,
		Round:       p.Round,
		Leg:         p.Leg,
		GroupNumber: group,
		HomeTeamID:  &home,
		AwayTeamID:  &away,
		Status:      models.StatusScheduled,
	}
}
