package brackets

import (
	"errors"
	"fmt"
	"testing"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

func teamIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func pairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

func TestRoundRobinCompleteness(t *testing.T) {
	for n := 2; n <= 11; n++ {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			pairings, err := RoundRobin(teamIDs(n), false)
			if err != nil {
				t.Fatalf("RoundRobin: %v", err)
			}
			if want := n * (n - 1) / 2; len(pairings) != want {
				t.Fatalf("got %d pairings, want %d", len(pairings), want)
			}

			seen := map[string]bool{}
			perRound := map[int]map[int]bool{}
			lastRound := 0
			for _, p := range pairings {
				if p.Round < lastRound {
					t.Fatalf("output not round-major: round %d after %d", p.Round, lastRound)
				}
				lastRound = p.Round
				if p.HomeTeamID == p.AwayTeamID {
					t.Fatalf("team %d paired with itself", p.HomeTeamID)
				}
				key := pairKey(p.HomeTeamID, p.AwayTeamID)
				if seen[key] {
					t.Fatalf("pair %s appears twice", key)
				}
				seen[key] = true

				if perRound[p.Round] == nil {
					perRound[p.Round] = map[int]bool{}
				}
				for _, id := range []int{p.HomeTeamID, p.AwayTeamID} {
					if perRound[p.Round][id] {
						t.Fatalf("team %d plays twice in round %d", id, p.Round)
					}
					perRound[p.Round][id] = true
				}
			}

			rounds := n - 1
			if n%2 == 1 {
				rounds = n
			}
			if len(perRound) != rounds {
				t.Fatalf("got %d rounds, want %d", len(perRound), rounds)
			}
			for r, teams := range perRound {
				if n%2 == 0 && len(teams) != n {
					t.Errorf("round %d: %d teams play, want all %d", r, len(teams), n)
				}
				if n%2 == 1 && len(teams) != n-1 {
					t.Errorf("round %d: %d teams play, want %d (one sits out)", r, len(teams), n-1)
				}
			}
		})
	}
}

func TestRoundRobinOddFieldSitsOutOncePerTeam(t *testing.T) {
	pairings, err := RoundRobin(teamIDs(5), false)
	if err != nil {
		t.Fatal(err)
	}
	played := map[int]int{}
	for _, p := range pairings {
		played[p.HomeTeamID]++
		played[p.AwayTeamID]++
	}
	for id := 1; id <= 5; id++ {
		// 5 rounds, 4 games each: exactly one round off.
		if played[id] != 4 {
			t.Errorf("team %d played %d matches, want 4", id, played[id])
		}
	}
}

func TestRoundRobinFourTeamScenario(t *testing.T) {
	const a, b, c, d = 1, 2, 3, 4
	pairings, err := RoundRobin([]int{a, b, c, d}, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []Pairing{
		{Round: 1, Leg: 1, HomeTeamID: a, AwayTeamID: d},
		{Round: 1, Leg: 1, HomeTeamID: b, AwayTeamID: c},
		{Round: 2, Leg: 1, HomeTeamID: d, AwayTeamID: b},
		{Round: 2, Leg: 1, HomeTeamID: a, AwayTeamID: c},
		{Round: 3, Leg: 1, HomeTeamID: c, AwayTeamID: d},
		{Round: 3, Leg: 1, HomeTeamID: a, AwayTeamID: b},
	}
	if len(pairings) != len(want) {
		t.Fatalf("got %d pairings, want %d: %+v", len(pairings), len(want), pairings)
	}
	for i := range want {
		if pairings[i] != want[i] {
			t.Errorf("pairing %d = %+v, want %+v", i, pairings[i], want[i])
		}
	}
}

func TestRoundRobinDoubleLegSymmetry(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7, 8} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			pairings, err := RoundRobin(teamIDs(n), true)
			if err != nil {
				t.Fatal(err)
			}
			if want := n * (n - 1); len(pairings) != want {
				t.Fatalf("got %d pairings, want %d", len(pairings), want)
			}

			firstLegRounds := 0
			leg1 := map[[2]int]bool{}
			for _, p := range pairings {
				if p.Leg == 1 {
					leg1[[2]int{p.HomeTeamID, p.AwayTeamID}] = true
					if p.Round > firstLegRounds {
						firstLegRounds = p.Round
					}
				}
			}
			for _, p := range pairings {
				if p.Leg != 2 {
					continue
				}
				if p.Round <= firstLegRounds {
					t.Errorf("leg 2 round %d does not follow leg 1 (last round %d)", p.Round, firstLegRounds)
				}
				if !leg1[[2]int{p.AwayTeamID, p.HomeTeamID}] {
					t.Errorf("leg 2 %d vs %d has no reversed leg 1 fixture", p.HomeTeamID, p.AwayTeamID)
				}
			}
		})
	}
}

func TestRoundRobinNotEnoughTeams(t *testing.T) {
	for _, ids := range [][]int{nil, {7}} {
		if _, err := RoundRobin(ids, false); !errors.Is(err, ErrNotEnoughTeams) {
			t.Errorf("RoundRobin(%v) error = %v, want ErrNotEnoughTeams", ids, err)
		}
	}
}

func TestLeagueFixturesTagsStage(t *testing.T) {
	rows, err := LeagueFixtures(teamIDs(4), false)
	if err != nil {
		t.Fatal(err)
	}
	uids := map[string]bool{}
	for _, bm := range rows {
		if bm.Stage != models.MatchStageLeague {
			t.Errorf("stage = %q, want league", bm.Stage)
		}
		if bm.GroupNumber != nil {
			t.Errorf("league row has group %d", *bm.GroupNumber)
		}
		if bm.Status != models.StatusScheduled {
			t.Errorf("status = %q, want scheduled", bm.Status)
		}
		if uids[bm.UID] {
			t.Errorf("duplicate uid %s", bm.UID)
		}
		uids[bm.UID] = true
	}
}
