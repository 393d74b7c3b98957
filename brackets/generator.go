package brackets

import (
	"fmt"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

// SlotRef points a bracket slot at another generated match (by UID) or at a
// seed number, before database IDs exist.
type SlotRef struct {
	Kind models.SourceKind
	UID  string
	Seed int
}

func winnerOf(uid string) SlotRef { return SlotRef{Kind: models.SourceWinner, UID: uid} }
func loserOf(uid string) SlotRef  { return SlotRef{Kind: models.SourceLoser, UID: uid} }
func seedRef(n int) SlotRef       { return SlotRef{Kind: models.SourceSeed, Seed: n} }

// BracketMatch is a generated match row that has not been stored yet.
type BracketMatch struct {
	UID             string
	Stage           models.MatchStage
	Round           int
	Leg             int
	GroupNumber     *int
	BracketPosition *int

	HomeTeamID *int
	AwayTeamID *int
	HomeFrom   SlotRef
	AwayFrom   SlotRef

	Status       models.MatchStatus
	WinnerTeamID *int

	MatchDate *time.Time
	Venue     *string
}

// IsBye reports whether the match only exists to carry a seed past round one.
func (bm *BracketMatch) IsBye() bool {
	return bm.Status == models.StatusCompleted && bm.WinnerTeamID != nil && bm.AwayTeamID == nil
}

// ToMatch converts a generated row into a storable match. Slot references are
// resolved through ids, which must already hold every referenced UID; the
// generators emit rows in round order so inserting in slice order satisfies that.
func (bm *BracketMatch) ToMatch(tournamentID int, ids map[string]int) (models.Match, error) {
	home, err := resolveSlot(bm.HomeFrom, ids)
	if err != nil {
		return models.Match{}, fmt.Errorf("match %s home slot: %w", bm.UID, err)
	}
	away, err := resolveSlot(bm.AwayFrom, ids)
	if err != nil {
		return models.Match{}, fmt.Errorf("match %s away slot: %w", bm.UID, err)
	}

	leg := bm.Leg
	if leg == 0 {
		leg = 1
	}
	status := bm.Status
	if status == "" {
		status = models.StatusScheduled
	}

	m := models.Match{
		TournamentID:    tournamentID,
		HomeTeamID:      bm.HomeTeamID,
		AwayTeamID:      bm.AwayTeamID,
		HomeTeamSource:  home,
		AwayTeamSource:  away,
		Round:           bm.Round,
		Leg:             leg,
		Stage:           bm.Stage,
		GroupNumber:     bm.GroupNumber,
		BracketPosition: bm.BracketPosition,
		MatchDate:       bm.MatchDate,
		Venue:           bm.Venue,
		Status:          status,
		WinnerTeamID:    bm.WinnerTeamID,
	}
	return m, nil
}

func resolveSlot(ref SlotRef, ids map[string]int) (models.MatchSource, error) {
	switch ref.Kind {
	case models.SourceNone:
		return models.MatchSource{}, nil
	case models.SourceSeed:
		return models.Seed(ref.Seed), nil
	case models.SourceWinner, models.SourceLoser:
		id, ok := ids[ref.UID]
		if !ok {
			return models.MatchSource{}, fmt.Errorf("source match %s has not been stored", ref.UID)
		}
		return models.MatchSource{Kind: ref.Kind, Ref: id}, nil
	}
	return models.MatchSource{}, fmt.Errorf("unknown slot kind %q", ref.Kind)
}
