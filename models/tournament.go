package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type TournamentType string

const (
	TypeRoundRobin     TournamentType = "round_robin"
	TypeKnockout       TournamentType = "knockout"
	TypeGroups         TournamentType = "groups"
	TypeGroupsKnockout TournamentType = "groups_knockout"
)

func (t TournamentType) Valid() bool {
	switch t {
	case TypeRoundRobin, TypeKnockout, TypeGroups, TypeGroupsKnockout:
		return true
	}
	return false
}

// HasGroups reports whether the tournament is played in groups first.
func (t TournamentType) HasGroups() bool {
	return t == TypeGroups || t == TypeGroupsKnockout
}

type TournamentStage string

const (
	StageSetup         TournamentStage = "setup"
	StageLeague        TournamentStage = "league"
	StageGroupStage    TournamentStage = "group_stage"
	StageKnockoutStage TournamentStage = "knockout_stage"
	StageCompleted     TournamentStage = "completed"
)

const (
	DefaultMatchesPerDay        = 3
	DefaultDailyStartTime       = "18:00"
	DefaultBufferMinutes        = 10
	DefaultHalfDurationMinutes  = 45
	DefaultBreakMinutes         = 15
	DefaultKnockoutRoundGapDays = 7
	DefaultVenueName            = "Main Pitch"
)

// Venue is a pitch the scheduler can place matches on. MatchesPerDay overrides
// the tournament-wide capacity when set.
type Venue struct {
	Name          string `json:"name"`
	MatchesPerDay *int   `json:"matches_per_day,omitempty"`
}

// ScheduleConfig is stored as JSONB on the tournament row.
type ScheduleConfig struct {
	MatchesPerDay             int     `json:"matches_per_day"`
	DailyStartTime            string  `json:"daily_start_time"`
	BufferMinutes             *int    `json:"buffer_minutes,omitempty"`
	HalfDurationMinutes       int     `json:"half_duration_minutes"`
	BreakBetweenHalvesMinutes *int    `json:"break_between_halves_minutes,omitempty"`
	KnockoutRoundGapDays      int     `json:"knockout_round_gap_days"`
	UTCOffsetMinutes          int     `json:"utc_offset_minutes"`
	Venues                    []Venue `json:"venues"`
}

// WithDefaults fills unset values. Buffer and break may be set to 0, so they
// are only defaulted when absent or negative. Venue overrides are left untouched.
func (c ScheduleConfig) WithDefaults() ScheduleConfig {
	if c.MatchesPerDay <= 0 {
		c.MatchesPerDay = DefaultMatchesPerDay
	}
	if c.DailyStartTime == "" {
		c.DailyStartTime = DefaultDailyStartTime
	}
	if c.BufferMinutes == nil || *c.BufferMinutes < 0 {
		c.BufferMinutes = IntPtr(DefaultBufferMinutes)
	}
	if c.HalfDurationMinutes <= 0 {
		c.HalfDurationMinutes = DefaultHalfDurationMinutes
	}
	if c.BreakBetweenHalvesMinutes == nil || *c.BreakBetweenHalvesMinutes < 0 {
		c.BreakBetweenHalvesMinutes = IntPtr(DefaultBreakMinutes)
	}
	if c.KnockoutRoundGapDays <= 0 {
		c.KnockoutRoundGapDays = DefaultKnockoutRoundGapDays
	}
	if len(c.Venues) == 0 {
		c.Venues = []Venue{{Name: DefaultVenueName}}
	}
	return c
}

// Buffer is the gap kept after every match.
func (c ScheduleConfig) Buffer() time.Duration {
	c = c.WithDefaults()
	return time.Duration(*c.BufferMinutes) * time.Minute
}

// MatchDuration is halfDuration*2 + break + buffer.
func (c ScheduleConfig) MatchDuration() time.Duration {
	c = c.WithDefaults()
	minutes := c.HalfDurationMinutes*2 + *c.BreakBetweenHalvesMinutes + *c.BufferMinutes
	return time.Duration(minutes) * time.Minute
}

// DailyStartMinutes parses DailyStartTime ("HH:MM") into minutes after midnight.
func (c ScheduleConfig) DailyStartMinutes() (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(c.DailyStartTime, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid daily start time %q: %w", c.DailyStartTime, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid daily start time %q: out of range", c.DailyStartTime)
	}
	return h*60 + m, nil
}

// Location is the tournament's fixed civil timezone. It never observes DST.
func (c ScheduleConfig) Location() *time.Location {
	if c.UTCOffsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", c.UTCOffsetMinutes/60, abs(c.UTCOffsetMinutes%60)), c.UTCOffsetMinutes*60)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (c ScheduleConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ScheduleConfig) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = ScheduleConfig{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("schedule config: unsupported column type")
	}
	if len(raw) == 0 {
		*c = ScheduleConfig{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// PointValues are the points awarded per result. A loss is always worth
// nothing.
type PointValues struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
}

// Tournament is a competition owned by the league portal.
type Tournament struct {
	ID                     int             `json:"id" db:"id"`
	Name                   string          `json:"name" db:"name"`
	Type                   TournamentType  `json:"type" db:"type"`
	StartDate              time.Time       `json:"start_date" db:"start_date"`
	EndDate                *time.Time      `json:"end_date,omitempty" db:"end_date"`
	Schedule               ScheduleConfig  `json:"schedule" db:"schedule_config"`
	PointsForWin           int             `json:"points_for_win" db:"points_for_win"`
	PointsForDraw          int             `json:"points_for_draw" db:"points_for_draw"`
	PointsForLoss          int             `json:"points_for_loss" db:"points_for_loss"`
	NumberOfGroups         int             `json:"number_of_groups" db:"number_of_groups"`
	TeamsAdvancingPerGroup int             `json:"teams_advancing_per_group" db:"teams_advancing_per_group"`
	HasSecondLeg           bool            `json:"has_second_leg" db:"has_second_leg"`
	HasThirdPlaceMatch     bool            `json:"has_third_place_match" db:"has_third_place_match"`
	GroupStageComplete     bool            `json:"group_stage_complete" db:"group_stage_complete"`
	CurrentStage           TournamentStage `json:"current_stage" db:"current_stage"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`

	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}

func (t *Tournament) PointValues() PointValues {
	return PointValues{Win: t.PointsForWin, Draw: t.PointsForDraw}
}
