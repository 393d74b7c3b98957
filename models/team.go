package models

import "time"

// Team is a registered company team. The record fields (Played..Points) are
// written only by the standings calculator.
type Team struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	TournamentID *int      `json:"tournament_id,omitempty" db:"tournament_id"`
	GroupNumber  *int      `json:"group_number,omitempty" db:"group_number"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Played         int `json:"played" db:"played"`
	Won            int `json:"won" db:"won"`
	Drawn          int `json:"drawn" db:"drawn"`
	Lost           int `json:"lost" db:"lost"`
	GoalsFor       int `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int `json:"goals_against" db:"goals_against"`
	GoalDifference int `json:"goal_difference" db:"goal_difference"`
	Points         int `json:"points" db:"points"`
}

// Group returns the group number, 0 when unassigned.
func (t *Team) Group() int {
	if t == nil || t.GroupNumber == nil {
		return 0
	}
	return *t.GroupNumber
}

// ResetRecord zeroes the cumulative record before a full recompute.
func (t *Team) ResetRecord() {
	t.Played, t.Won, t.Drawn, t.Lost = 0, 0, 0, 0
	t.GoalsFor, t.GoalsAgainst, t.GoalDifference, t.Points = 0, 0, 0, 0
}

// GroupStanding is one group's table, best team first.
type GroupStanding struct {
	GroupNumber int    `json:"group_number"`
	Teams       []Team `json:"teams"`
}

// Qualifier is a team that advanced from the group stage. Position is the
// 1-based finishing position inside its group.
type Qualifier struct {
	Team        Team `json:"team"`
	GroupNumber int  `json:"group_number"`
	Position    int  `json:"position"`
}
