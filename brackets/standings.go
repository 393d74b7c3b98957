package brackets

import "github.com/haithamlamki/sssppprt-sub000/models"

// ComputeStandings rebuilds every team's record from scratch out of the
// completed matches. The input teams are not modified.
func ComputeStandings(teams []models.Team, matches []models.Match, pts models.PointValues) []models.Team {
	out := make([]models.Team, len(teams))
	index := make(map[int]*models.Team, len(teams))
	for i := range teams {
		out[i] = teams[i]
		out[i].ResetRecord()
		index[out[i].ID] = &out[i]
	}

	for _, m := range matches {
		if m.Status != models.StatusCompleted {
			continue
		}
		if m.HomeTeamID == nil || m.AwayTeamID == nil || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		home, away := index[*m.HomeTeamID], index[*m.AwayTeamID]
		hs, as := *m.HomeScore, *m.AwayScore
		if home != nil {
			record(home, hs, as)
		}
		if away != nil {
			record(away, as, hs)
		}
	}

	for i := range out {
		t := &out[i]
		t.GoalDifference = t.GoalsFor - t.GoalsAgainst
		t.Points = t.Won*pts.Win + t.Drawn*pts.Draw
	}
	return out
}

func record(t *models.Team, scored, conceded int) {
	t.Played++
	t.GoalsFor += scored
	t.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		t.Won++
	case scored < conceded:
		t.Lost++
	default:
		t.Drawn++
	}
}
