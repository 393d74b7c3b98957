package brackets

import (
	"reflect"
	"testing"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

func TestBracketSize(t *testing.T) {
	tests := []struct {
		q, size, byes int
	}{
		{1, 2, 1},
		{2, 2, 0},
		{3, 4, 1},
		{4, 4, 0},
		{5, 8, 3},
		{6, 8, 2},
		{8, 8, 0},
		{9, 16, 7},
		{16, 16, 0},
		{17, 32, 15},
	}
	for _, tt := range tests {
		size, byes := BracketSize(tt.q)
		if size != tt.size || byes != tt.byes {
			t.Errorf("BracketSize(%d) = (%d, %d), want (%d, %d)", tt.q, size, byes, tt.size, tt.byes)
		}
		if size&(size-1) != 0 || size < tt.q || (size > 2 && size/2 >= tt.q) {
			t.Errorf("BracketSize(%d) = %d is not the smallest power of two", tt.q, size)
		}
	}
}

func TestSeedOrder(t *testing.T) {
	tests := map[int][]int{
		2:  {1, 2},
		4:  {1, 4, 2, 3},
		8:  {1, 8, 4, 5, 2, 7, 3, 6},
		16: {1, 16, 8, 9, 4, 13, 5, 12, 2, 15, 7, 10, 3, 14, 6, 11},
	}
	for size, want := range tests {
		if got := SeedOrder(size); !reflect.DeepEqual(got, want) {
			t.Errorf("SeedOrder(%d) = %v, want %v", size, got, want)
		}
	}
}

func qualifier(id, group, pos, points, gd, gf int) models.Qualifier {
	return models.Qualifier{
		Team:        models.Team{ID: id, Points: points, GoalDifference: gd, GoalsFor: gf},
		GroupNumber: group,
		Position:    pos,
	}
}

func TestSeedQualifiersWinnersFirst(t *testing.T) {
	qs := []models.Qualifier{
		qualifier(11, 1, 1, 7, 4, 6),
		qualifier(12, 1, 2, 6, 5, 9),
		qualifier(21, 2, 1, 9, 6, 8),
		qualifier(22, 2, 2, 4, 0, 3),
		qualifier(31, 3, 1, 7, 4, 7),
		qualifier(32, 3, 2, 4, 0, 5),
	}
	seeds := SeedQualifiers(qs)

	// Group winners by (points, gd, gf), then runners-up the same way.
	wantOrder := []int{21, 31, 11, 12, 32, 22}
	for i, s := range seeds {
		if s.Number != i+1 {
			t.Errorf("seed %d numbered %d", i, s.Number)
		}
		if *s.TeamID != wantOrder[i] {
			t.Errorf("seed %d = team %d, want %d", i+1, *s.TeamID, wantOrder[i])
		}
	}
}

func TestPairFirstRoundSixQualifiers(t *testing.T) {
	seeds := make([]SeedEntry, 6)
	for i := range seeds {
		id := 100 + i + 1
		seeds[i] = SeedEntry{Number: i + 1, TeamID: &id}
	}
	pairings := PairFirstRound(seeds, 8)
	if len(pairings) != 4 {
		t.Fatalf("got %d pairings, want 4", len(pairings))
	}

	want := []struct {
		home, away int
		bye        bool
	}{
		{1, 8, true},
		{4, 5, false},
		{2, 7, true},
		{3, 6, false},
	}
	for i, w := range want {
		p := pairings[i]
		if p.Home.Number != w.home || p.Away.Number != w.away || p.Bye != w.bye {
			t.Errorf("pairing %d = %d vs %d (bye %v), want %d vs %d (bye %v)",
				i+1, p.Home.Number, p.Away.Number, p.Bye, w.home, w.away, w.bye)
		}
		if p.Position != i+1 {
			t.Errorf("pairing %d position = %d", i+1, p.Position)
		}
	}
}

func TestPairFirstRoundAvoidsSameGroup(t *testing.T) {
	seeds := []SeedEntry{
		{Number: 1, TeamID: models.IntPtr(1), GroupNumber: 1},
		{Number: 2, TeamID: models.IntPtr(2), GroupNumber: 2},
		{Number: 3, TeamID: models.IntPtr(3), GroupNumber: 2},
		{Number: 4, TeamID: models.IntPtr(4), GroupNumber: 1},
	}
	// Natural pairing is 1v4 and 2v3, both same-group.
	pairings := PairFirstRound(seeds, 4)
	for _, p := range pairings {
		if p.Home.GroupNumber == p.Away.GroupNumber {
			t.Errorf("seeds %d and %d from group %d still paired", p.Home.Number, p.Away.Number, p.Home.GroupNumber)
		}
	}
}

func TestPairFirstRoundAcceptsUnavoidableSameGroup(t *testing.T) {
	seeds := []SeedEntry{
		{Number: 1, TeamID: models.IntPtr(1), GroupNumber: 1},
		{Number: 2, TeamID: models.IntPtr(2), GroupNumber: 1},
	}
	pairings := PairFirstRound(seeds, 2)
	if len(pairings) != 1 {
		t.Fatalf("got %d pairings, want 1", len(pairings))
	}
	if pairings[0].Home.Number != 1 || pairings[0].Away.Number != 2 {
		t.Errorf("pairing = %d vs %d, want 1 vs 2", pairings[0].Home.Number, pairings[0].Away.Number)
	}
}

func TestPairFirstRoundIgnoresUngroupedSeeds(t *testing.T) {
	pairings := PairFirstRound(PlaceholderSeeds(4), 4)
	if pairings[0].Away.Number != 4 || pairings[1].Away.Number != 3 {
		t.Errorf("ungrouped seeds were swapped: %+v", pairings)
	}
}

func TestStageLabels(t *testing.T) {
	tests := map[int][]models.MatchStage{
		2: {models.MatchStageFinal},
		4: {models.MatchStageSemiFinal, models.MatchStageFinal},
		8: {models.MatchStageQuarterFinal, models.MatchStageSemiFinal, models.MatchStageFinal},
		16: {models.MatchStageRoundOf16, models.MatchStageQuarterFinal,
			models.MatchStageSemiFinal, models.MatchStageFinal},
		32: {"round_of_32", models.MatchStageRoundOf16, models.MatchStageQuarterFinal,
			models.MatchStageSemiFinal, models.MatchStageFinal},
	}
	for size, want := range tests {
		if got := StageLabels(size); !reflect.DeepEqual(got, want) {
			t.Errorf("StageLabels(%d) = %v, want %v", size, got, want)
		}
	}
}
