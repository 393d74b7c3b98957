package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

var (
	leagueStages   = repositories.StageFilter{Stages: []models.MatchStage{models.MatchStageLeague}}
	groupStages    = repositories.StageFilter{Stages: []models.MatchStage{models.MatchStageGroup}}
	tableStages    = repositories.StageFilter{Stages: []models.MatchStage{models.MatchStageGroup, models.MatchStageLeague}}
	knockoutStages = repositories.StageFilter{Stages: []models.MatchStage{models.MatchStageGroup, models.MatchStageLeague}, Exclude: true}
)

// GenerationResult describes one regeneration of a tournament's matches.
type GenerationResult struct {
	TournamentID   int                `json:"tournament_id"`
	Deleted        int64              `json:"deleted"`
	Matches        []models.Match     `json:"matches"`
	BracketSize    int                `json:"bracket_size,omitempty"`
	Byes           int                `json:"byes,omitempty"`
	SchedulerWraps int                `json:"scheduler_wraps,omitempty"`
	Qualifiers     []models.Qualifier `json:"qualifiers,omitempty"`
}

// replaceMatches deletes the matches selected by filter and stores rows in
// order. Rows must be ordered so every WINNER_OF/LOSER_OF target is stored
// before the row that references it.
func replaceMatches(
	ctx context.Context,
	exec repositories.SQLExecutor,
	matchRepo repositories.MatchRepository,
	tournamentID int,
	filter repositories.StageFilter,
	rows []*brackets.BracketMatch,
) (int64, []models.Match, error) {
	deleted, err := matchRepo.DeleteByStages(ctx, exec, tournamentID, filter)
	if err != nil {
		return 0, nil, err
	}

	ids := make(map[string]int, len(rows))
	stored := make([]models.Match, 0, len(rows))
	for _, bm := range rows {
		m, err := bm.ToMatch(tournamentID, ids)
		if err != nil {
			return 0, nil, err
		}
		if err := matchRepo.Create(ctx, exec, &m); err != nil {
			return 0, nil, fmt.Errorf("failed to store match %s: %w", bm.UID, err)
		}
		ids[bm.UID] = m.ID
		stored = append(stored, m)
	}
	return deleted, stored, nil
}

func teamIDs(teams []models.Team) []int {
	ids := make([]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	sort.Ints(ids)
	return ids
}

func teamsByGroup(teams []models.Team) map[int][]int {
	groups := map[int][]int{}
	for _, t := range teams {
		if g := t.Group(); g > 0 {
			groups[g] = append(groups[g], t.ID)
		}
	}
	for g := range groups {
		sort.Ints(groups[g])
	}
	return groups
}

// dayStart is the daily start time on t's civil day.
func dayStart(t time.Time, cfg models.ScheduleConfig) (time.Time, error) {
	loc := cfg.WithDefaults().Location()
	return brackets.DayAfter(t.In(loc).AddDate(0, 0, -1), cfg)
}

// knockoutStart picks when the first knockout round is played: the day after
// the last dated earlier match, else the tournament end date, else a week
// from now.
func knockoutStart(t *models.Tournament, earlier []models.Match, now time.Time) (time.Time, error) {
	var last *time.Time
	for i := range earlier {
		d := earlier[i].MatchDate
		if d != nil && (last == nil || d.After(*last)) {
			last = d
		}
	}
	switch {
	case last != nil:
		return brackets.DayAfter(*last, t.Schedule)
	case t.EndDate != nil:
		return dayStart(*t.EndDate, t.Schedule)
	default:
		return dayStart(now.AddDate(0, 0, 7), t.Schedule)
	}
}

func knockoutStartFromRows(t *models.Tournament, rows []*brackets.BracketMatch, now time.Time) (time.Time, error) {
	dated := make([]models.Match, 0, len(rows))
	for _, bm := range rows {
		dated = append(dated, models.Match{MatchDate: bm.MatchDate})
	}
	return knockoutStart(t, dated, now)
}

// attachTeams resolves team references. Unknown or empty slots stay nil.
func attachTeams(matches []models.Match, teams []models.Team) {
	byID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		byID[teams[i].ID] = &teams[i]
	}
	for i := range matches {
		m := &matches[i]
		if m.HomeTeamID != nil {
			m.HomeTeam = byID[*m.HomeTeamID]
		}
		if m.AwayTeamID != nil {
			m.AwayTeam = byID[*m.AwayTeamID]
		}
	}
}

// inZone shows match dates in the tournament's civil zone.
func inZone(matches []models.Match, loc *time.Location) {
	for i := range matches {
		if d := matches[i].MatchDate; d != nil {
			local := d.In(loc)
			matches[i].MatchDate = &local
		}
	}
}
