package brackets

import (
	"errors"
	"fmt"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

var (
	ErrPenaltyWinnerRequired = errors.New("cannot complete match without a penalty-decided winner")
	ErrWinnerUnresolved      = errors.New("cannot complete match without a resolvable winner")
	ErrScoresRequired        = errors.New("cannot complete match without both scores")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidScore          = errors.New("scores must not be negative")
	ErrByeLocked             = errors.New("bye matches cannot be edited")
	ErrVenueOverlap          = errors.New("venue is already booked")
)

// MatchUpdate is a partial match edit. Nil fields are left unchanged. Winner,
// loser and the penalty flag are not part of it; they are always derived.
type MatchUpdate struct {
	Status           *models.MatchStatus `json:"status"`
	HomeScore        *int                `json:"home_score"`
	AwayScore        *int                `json:"away_score"`
	HomePenaltyScore *int                `json:"home_penalty_score"`
	AwayPenaltyScore *int                `json:"away_penalty_score"`
	MatchDate        *time.Time          `json:"match_date"`
	Venue            *string             `json:"venue"`
}

func (u MatchUpdate) TouchesScores() bool {
	return u.HomeScore != nil || u.AwayScore != nil || u.HomePenaltyScore != nil || u.AwayPenaltyScore != nil
}

func (u MatchUpdate) TouchesSchedule() bool {
	return u.MatchDate != nil || u.Venue != nil
}

func (u MatchUpdate) IsEmpty() bool {
	return !u.TouchesScores() && !u.TouchesSchedule() && u.Status == nil
}

var transitions = map[models.MatchStatus][]models.MatchStatus{
	models.StatusScheduled: {models.StatusLive, models.StatusCompleted, models.StatusPostponed},
	models.StatusLive:      {models.StatusCompleted, models.StatusPostponed},
	models.StatusPostponed: {models.StatusScheduled, models.StatusLive},
	models.StatusCompleted: {models.StatusCompleted},
}

// CanTransition reports whether a match may move from one status to another.
// Keeping the current status is always allowed.
func CanTransition(from, to models.MatchStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsBye reports whether a stored match is a first-round bye.
func IsBye(m *models.Match) bool {
	return m.Status == models.StatusCompleted &&
		m.WinnerTeamID != nil &&
		m.AwayTeamID == nil &&
		m.AwayTeamSource.Kind == models.SourceSeed
}

// ApplyUpdate validates u against m and returns the updated match. m is not
// modified. Completed knockout matches get their winner and loser recomputed
// from the scores; live, scheduled and postponed matches and other stages
// never carry one.
func ApplyUpdate(m models.Match, u MatchUpdate) (models.Match, error) {
	if IsBye(&m) && (u.TouchesScores() || u.Status != nil) {
		return m, ErrByeLocked
	}
	for _, v := range []*int{u.HomeScore, u.AwayScore, u.HomePenaltyScore, u.AwayPenaltyScore} {
		if v != nil && *v < 0 {
			return m, ErrInvalidScore
		}
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return m, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, *u.Status)
		}
		if !CanTransition(m.Status, *u.Status) {
			return m, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, *u.Status)
		}
		m.Status = *u.Status
	}
	if u.HomeScore != nil {
		m.HomeScore = u.HomeScore
	}
	if u.AwayScore != nil {
		m.AwayScore = u.AwayScore
	}
	if u.HomePenaltyScore != nil {
		m.HomePenaltyScore = u.HomePenaltyScore
	}
	if u.AwayPenaltyScore != nil {
		m.AwayPenaltyScore = u.AwayPenaltyScore
	}
	if u.MatchDate != nil {
		m.MatchDate = u.MatchDate
	}
	if u.Venue != nil {
		m.Venue = u.Venue
	}

	if m.Status == models.StatusCompleted && (m.HomeScore == nil || m.AwayScore == nil) {
		return m, ErrScoresRequired
	}

	if !m.Stage.IsKnockout() {
		m.WinnerTeamID, m.LoserTeamID, m.WentToPenalties = nil, nil, false
		return m, nil
	}

	deriveResult(&m)
	if m.Status == models.StatusCompleted && m.WinnerTeamID == nil {
		if *m.HomeScore == *m.AwayScore {
			return m, ErrPenaltyWinnerRequired
		}
		return m, ErrWinnerUnresolved
	}
	return m, nil
}

func deriveResult(m *models.Match) {
	m.WinnerTeamID, m.LoserTeamID, m.WentToPenalties = nil, nil, false
	if m.Status != models.StatusCompleted {
		return
	}
	if m.HomeScore == nil || m.AwayScore == nil || m.HomeTeamID == nil || m.AwayTeamID == nil {
		return
	}
	home, away := *m.HomeScore, *m.AwayScore
	if home == away {
		if m.HomePenaltyScore == nil || m.AwayPenaltyScore == nil {
			return
		}
		home, away = *m.HomePenaltyScore, *m.AwayPenaltyScore
		if home == away {
			return
		}
		m.WentToPenalties = true
	}
	if home > away {
		m.WinnerTeamID, m.LoserTeamID = m.HomeTeamID, m.AwayTeamID
	} else {
		m.WinnerTeamID, m.LoserTeamID = m.AwayTeamID, m.HomeTeamID
	}
}

// OccupiedWindow is the half-open interval a match holds its venue for.
func OccupiedWindow(start time.Time, cfg models.ScheduleConfig) (time.Time, time.Time) {
	cfg = cfg.WithDefaults()
	return start, start.Add(cfg.MatchDuration() + cfg.Buffer())
}

// CheckVenueConflict rejects m when its window overlaps another dated match at
// the same venue. Postponed matches do not hold their slot.
func CheckVenueConflict(m models.Match, others []models.Match, cfg models.ScheduleConfig) error {
	if m.MatchDate == nil || m.Venue == nil {
		return nil
	}
	start, end := OccupiedWindow(*m.MatchDate, cfg)
	for _, o := range others {
		if o.ID == m.ID || o.MatchDate == nil || o.Venue == nil || *o.Venue != *m.Venue {
			continue
		}
		if o.Status == models.StatusPostponed {
			continue
		}
		oStart, oEnd := OccupiedWindow(*o.MatchDate, cfg)
		if start.Before(oEnd) && oStart.Before(end) {
			return fmt.Errorf("%w: %s at %s overlaps match %d", ErrVenueOverlap, *m.Venue, start.Format(time.RFC3339), o.ID)
		}
	}
	return nil
}

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// SlotAssignment writes a team into one side of a downstream match.
type SlotAssignment struct {
	MatchID int  `json:"match_id"`
	Side    Side `json:"side"`
	TeamID  int  `json:"team_id"`
}

// Propagate computes the slot writes caused by source's result: WINNER_OF
// slots get the winner and LOSER_OF slots the loser. Only a completed source
// propagates. Slots already holding the right team are skipped. Completed
// dependents keep their participants; their IDs are returned in locked
// instead. It pushes one level only.
func Propagate(source models.Match, dependents []models.Match) (out []SlotAssignment, locked []int) {
	if source.Status != models.StatusCompleted || source.WinnerTeamID == nil {
		return nil, nil
	}
	resolve := func(src models.MatchSource) *int {
		if !src.References(source.ID) {
			return nil
		}
		if src.Kind == models.SourceWinner {
			return source.WinnerTeamID
		}
		return source.LoserTeamID
	}

	for _, d := range dependents {
		var pending []SlotAssignment
		if team := resolve(d.HomeTeamSource); team != nil && !sameTeam(d.HomeTeamID, *team) {
			pending = append(pending, SlotAssignment{MatchID: d.ID, Side: SideHome, TeamID: *team})
		}
		if team := resolve(d.AwayTeamSource); team != nil && !sameTeam(d.AwayTeamID, *team) {
			pending = append(pending, SlotAssignment{MatchID: d.ID, Side: SideAway, TeamID: *team})
		}
		if len(pending) == 0 {
			continue
		}
		if d.Status == models.StatusCompleted {
			locked = append(locked, d.ID)
			continue
		}
		out = append(out, pending...)
	}
	return out, locked
}

func sameTeam(slot *int, team int) bool {
	return slot != nil && *slot == team
}

// PropagationIndex maps a match ID to the IDs of matches whose slots it feeds.
type PropagationIndex map[int][]int

// BuildPropagationIndex indexes every WINNER_OF and LOSER_OF reference.
func BuildPropagationIndex(matches []models.Match) PropagationIndex {
	idx := PropagationIndex{}
	for i := range matches {
		idx.Add(&matches[i])
	}
	return idx
}

// Add registers m's source references.
func (idx PropagationIndex) Add(m *models.Match) {
	for _, src := range []models.MatchSource{m.HomeTeamSource, m.AwayTeamSource} {
		if src.Kind != models.SourceWinner && src.Kind != models.SourceLoser {
			continue
		}
		deps := idx[src.Ref]
		if len(deps) > 0 && deps[len(deps)-1] == m.ID {
			continue
		}
		idx[src.Ref] = append(deps, m.ID)
	}
}

func (idx PropagationIndex) Dependents(matchID int) []int {
	return idx[matchID]
}
