package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusCompleted MatchStatus = "completed"
	StatusPostponed MatchStatus = "postponed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusCompleted, StatusPostponed:
		return true
	}
	return false
}

type MatchStage string

const (
	MatchStageGroup        MatchStage = "group"
	MatchStageLeague       MatchStage = "league"
	MatchStageRoundOf16    MatchStage = "round_of_16"
	MatchStageQuarterFinal MatchStage = "quarter_final"
	MatchStageSemiFinal    MatchStage = "semi_final"
	MatchStageFinal        MatchStage = "final"
	MatchStageThirdPlace   MatchStage = "third_place"
)

// IsKnockout reports whether results in this stage need a winner. Early
// rounds of brackets larger than 16 are labelled round_of_<n>.
func (s MatchStage) IsKnockout() bool {
	switch s {
	case MatchStageGroup, MatchStageLeague, "":
		return false
	case MatchStageQuarterFinal, MatchStageSemiFinal, MatchStageFinal, MatchStageThirdPlace:
		return true
	}
	return strings.HasPrefix(string(s), "round_of_")
}

// RoundOfStage returns the label for a knockout round with n teams left.
func RoundOfStage(n int) MatchStage {
	return MatchStage(fmt.Sprintf("round_of_%d", n))
}

type SourceKind string

const (
	SourceNone   SourceKind = ""
	SourceWinner SourceKind = "WINNER_OF"
	SourceLoser  SourceKind = "LOSER_OF"
	SourceSeed   SourceKind = "SEED"
)

var ErrInvalidMatchSource = errors.New("invalid match source")

// MatchSource tells where a bracket slot's team comes from: the winner or
// loser of another match, or a seed number. Stored as "WINNER_OF:<id>",
// "LOSER_OF:<id>", "SEED:<n>" or NULL.
type MatchSource struct {
	Kind SourceKind
	Ref  int
}

func WinnerOf(matchID int) MatchSource { return MatchSource{Kind: SourceWinner, Ref: matchID} }
func LoserOf(matchID int) MatchSource  { return MatchSource{Kind: SourceLoser, Ref: matchID} }
func Seed(n int) MatchSource           { return MatchSource{Kind: SourceSeed, Ref: n} }

func (s MatchSource) IsZero() bool { return s.Kind == SourceNone }

// References reports whether the slot is fed by the given match.
func (s MatchSource) References(matchID int) bool {
	return (s.Kind == SourceWinner || s.Kind == SourceLoser) && s.Ref == matchID
}

func (s MatchSource) String() string {
	if s.IsZero() {
		return ""
	}
	return string(s.Kind) + ":" + strconv.Itoa(s.Ref)
}

func ParseMatchSource(raw string) (MatchSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MatchSource{}, nil
	}
	kind, ref, ok := strings.Cut(raw, ":")
	if !ok {
		return MatchSource{}, fmt.Errorf("%w: %q", ErrInvalidMatchSource, raw)
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n <= 0 {
		return MatchSource{}, fmt.Errorf("%w: %q", ErrInvalidMatchSource, raw)
	}
	switch SourceKind(kind) {
	case SourceWinner, SourceLoser, SourceSeed:
		return MatchSource{Kind: SourceKind(kind), Ref: n}, nil
	}
	return MatchSource{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidMatchSource, kind)
}

func (s MatchSource) Value() (driver.Value, error) {
	if s.IsZero() {
		return nil, nil
	}
	return s.String(), nil
}

func (s *MatchSource) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = MatchSource{}
		return nil
	case string:
		parsed, err := ParseMatchSource(v)
		*s = parsed
		return err
	case []byte:
		parsed, err := ParseMatchSource(string(v))
		*s = parsed
		return err
	}
	return fmt.Errorf("%w: unsupported column type %T", ErrInvalidMatchSource, src)
}

func (s MatchSource) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *MatchSource) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = MatchSource{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMatchSource(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Match is one fixture. Knockout placeholders start with nil team IDs and get
// them through propagation from their source matches.
type Match struct {
	ID               int         `json:"id" db:"id"`
	TournamentID     int         `json:"tournament_id" db:"tournament_id"`
	HomeTeamID       *int        `json:"home_team_id" db:"home_team_id"`
	AwayTeamID       *int        `json:"away_team_id" db:"away_team_id"`
	HomeTeamSource   MatchSource `json:"home_team_source" db:"home_team_source"`
	AwayTeamSource   MatchSource `json:"away_team_source" db:"away_team_source"`
	Round            int         `json:"round" db:"round"`
	Leg              int         `json:"leg" db:"leg"`
	Stage            MatchStage  `json:"stage" db:"stage"`
	GroupNumber      *int        `json:"group_number,omitempty" db:"group_number"`
	BracketPosition  *int        `json:"bracket_position,omitempty" db:"bracket_position"`
	MatchDate        *time.Time  `json:"match_date,omitempty" db:"match_date"`
	Venue            *string     `json:"venue,omitempty" db:"venue"`
	Status           MatchStatus `json:"status" db:"status"`
	HomeScore        *int        `json:"home_score" db:"home_score"`
	AwayScore        *int        `json:"away_score" db:"away_score"`
	HomePenaltyScore *int        `json:"home_penalty_score" db:"home_penalty_score"`
	AwayPenaltyScore *int        `json:"away_penalty_score" db:"away_penalty_score"`
	WinnerTeamID     *int        `json:"winner_team_id" db:"winner_team_id"`
	LoserTeamID      *int        `json:"loser_team_id" db:"loser_team_id"`
	WentToPenalties  bool        `json:"went_to_penalties" db:"went_to_penalties"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`

	HomeTeam *Team `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team `json:"away_team,omitempty" db:"-"`
}

// Involves reports whether the team plays in this match.
func (m *Match) Involves(teamID int) bool {
	return (m.HomeTeamID != nil && *m.HomeTeamID == teamID) ||
		(m.AwayTeamID != nil && *m.AwayTeamID == teamID)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }
