package brackets

import (
	"fmt"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

type KnockoutParams struct {
	Seeds      []SeedEntry
	ThirdPlace bool
}

// KnockoutBracket is a generated single-elimination bracket. Matches are in
// round order, then bracket position; the third-place match follows the final.
type KnockoutBracket struct {
	Size    int
	Byes    int
	Stages  []models.MatchStage
	Matches []*BracketMatch
}

// BuildKnockout creates every match of a single-elimination bracket. Round one
// carries seeds; later rounds are placeholders fed by WINNER_OF the two matches
// at positions 2k-1 and 2k of the previous round. Byes are created as completed
// matches won by the seeded team, and that team is written straight into its
// round-two slot.
func BuildKnockout(params KnockoutParams) (*KnockoutBracket, error) {
	q := len(params.Seeds)
	if q < 2 {
		return nil, fmt.Errorf("%w for a knockout bracket (found %d, min 2 required)", ErrNotEnoughTeams, q)
	}

	size, byes := BracketSize(q)
	stages := StageLabels(size)
	bracket := &KnockoutBracket{Size: size, Byes: byes, Stages: stages}

	prev := make([]*BracketMatch, 0, size/2)
	for _, p := range PairFirstRound(params.Seeds, size) {
		pos := p.Position
		bm := &BracketMatch{
			UID:             fmt.Sprintf("R1M%d", pos),
			Stage:           stages[0],
			Round:           1,
			Leg:             1,
			BracketPosition: &pos,
			HomeTeamID:      p.Home.TeamID,
			AwayTeamID:      p.Away.TeamID,
			HomeFrom:        seedRef(p.Home.Number),
			AwayFrom:        seedRef(p.Away.Number),
			Status:          models.StatusScheduled,
		}
		if p.Bye && p.Home.TeamID != nil {
			bm.AwayTeamID = nil
			bm.Status = models.StatusCompleted
			bm.WinnerTeamID = p.Home.TeamID
		}
		prev = append(prev, bm)
	}
	bracket.Matches = append(bracket.Matches, prev...)

	for r := 2; r <= len(stages); r++ {
		current := make([]*BracketMatch, 0, len(prev)/2)
		for k := 1; k <= len(prev)/2; k++ {
			pos := k
			homeFeed, awayFeed := prev[2*k-2], prev[2*k-1]
			bm := &BracketMatch{
				UID:             fmt.Sprintf("R%dM%d", r, k),
				Stage:           stages[r-1],
				Round:           r,
				Leg:             1,
				BracketPosition: &pos,
				HomeFrom:        winnerOf(homeFeed.UID),
				AwayFrom:        winnerOf(awayFeed.UID),
				HomeTeamID:      byeWinner(homeFeed),
				AwayTeamID:      byeWinner(awayFeed),
				Status:          models.StatusScheduled,
			}
			current = append(current, bm)
		}
		bracket.Matches = append(bracket.Matches, current...)
		if r == len(stages) && params.ThirdPlace && len(prev) == 2 && !prev[0].IsBye() && !prev[1].IsBye() {
			pos := 2
			bracket.Matches = append(bracket.Matches, &BracketMatch{
				UID:             fmt.Sprintf("R%dTP", r),
				Stage:           models.MatchStageThirdPlace,
				Round:           r,
				Leg:             1,
				BracketPosition: &pos,
				HomeFrom:        loserOf(prev[0].UID),
				AwayFrom:        loserOf(prev[1].UID),
				Status:          models.StatusScheduled,
			})
		}
		prev = current
	}
	return bracket, nil
}

func byeWinner(feed *BracketMatch) *int {
	if feed.IsBye() {
		return feed.WinnerTeamID
	}
	return nil
}
