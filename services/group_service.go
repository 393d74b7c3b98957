package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

type GroupAssignment struct {
	TeamID      int `json:"team_id"`
	GroupNumber int `json:"group_number"`
}

type GroupService interface {
	// AssignTeamsToGroups applies explicit assignments verbatim, or deals all
	// teams into random even groups when none are given.
	AssignTeamsToGroups(ctx context.Context, tournamentID int, assignments []GroupAssignment) ([]models.GroupStanding, error)
	GenerateGroupStageMatches(ctx context.Context, tournamentID int) (*GenerationResult, error)
	GetGroupStandings(ctx context.Context, tournamentID int) ([]models.GroupStanding, error)
	// CompleteGroupStage closes the group stage and returns the qualifiers.
	CompleteGroupStage(ctx context.Context, tournamentID int) ([]models.Qualifier, error)
}

type groupService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tx             repositories.Transactor
	notifier       Notifier
	snapshots      SnapshotPublisher
	logger         *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewGroupService builds the group stage manager. A nil rng is seeded from
// the clock.
func NewGroupService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	notifier Notifier,
	snapshots SnapshotPublisher,
	rng *rand.Rand,
	logger *slog.Logger,
) GroupService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &groupService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tx:             tx,
		notifier:       notifierOrNoop(notifier),
		snapshots:      snapshotsOrNoop(snapshots),
		logger:         logger,
		rng:            rng,
		now:            time.Now,
	}
}

func (s *groupService) loadGroupTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", tournamentID), err)
	}
	if !t.Type.HasGroups() {
		return nil, validationError(ErrWrongTournamentType, "tournament %d of type %s has no group stage", t.ID, t.Type)
	}
	if err := requireGroupConfig(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *groupService) AssignTeamsToGroups(ctx context.Context, tournamentID int, assignments []GroupAssignment) ([]models.GroupStanding, error) {
	t, err := s.loadGroupTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError("list teams", err)
	}

	var groups map[int]int
	if len(assignments) > 0 {
		groups, err = explicitGroups(t, teams, assignments)
		if err != nil {
			return nil, err
		}
	} else {
		if len(teams) == 0 {
			return nil, validationError(brackets.ErrNotEnoughTeams, "tournament %d has no teams", tournamentID)
		}
		s.rngMu.Lock()
		groups, err = brackets.AssignGroups(teamIDs(teams), t.NumberOfGroups, s.rng)
		s.rngMu.Unlock()
		if err != nil {
			return nil, validationError(ErrGroupConfigMissing, "%v", err)
		}
	}

	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.teamRepo.UpdateGroups(ctx, exec, groups); txErr != nil {
			return txErr
		}
		return s.tournamentRepo.UpdateStage(ctx, exec, tournamentID, models.StageGroupStage, false)
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("assign groups of tournament %d", tournamentID), err)
	}

	for i := range teams {
		if g, ok := groups[teams[i].ID]; ok {
			teams[i].GroupNumber = models.IntPtr(g)
		}
	}
	standings := brackets.GroupStandings(teams)
	s.logger.InfoContext(ctx, "teams assigned to groups",
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", len(groups)),
		slog.Bool("random", len(assignments) == 0),
	)
	s.notifier.Publish(tournamentID, brackets.EventStandingsUpdated, standings)
	return standings, nil
}

func explicitGroups(t *models.Tournament, teams []models.Team, assignments []GroupAssignment) (map[int]int, error) {
	member := make(map[int]bool, len(teams))
	for _, team := range teams {
		member[team.ID] = true
	}
	groups := make(map[int]int, len(assignments))
	for _, a := range assignments {
		if !member[a.TeamID] {
			return nil, validationError(ErrInvalidGroupNumber, "team %d is not registered in tournament %d", a.TeamID, t.ID)
		}
		if a.GroupNumber < 1 || a.GroupNumber > t.NumberOfGroups {
			return nil, validationError(ErrInvalidGroupNumber, "group %d not in 1..%d", a.GroupNumber, t.NumberOfGroups)
		}
		groups[a.TeamID] = a.GroupNumber
	}
	return groups, nil
}

func (s *groupService) GenerateGroupStageMatches(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	t, err := s.loadGroupTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError("list teams", err)
	}
	groups := teamsByGroup(teams)
	if len(groups) == 0 {
		return nil, validationError(ErrGroupsNotAssigned, "tournament %d", tournamentID)
	}

	rows, err := brackets.GroupFixtures(groups, t.HasSecondLeg)
	if err != nil {
		return nil, wrapError("generate group fixtures", err)
	}
	scheduler, err := brackets.NewScheduler(t.StartDate, t.EndDate, t.Schedule)
	if err != nil {
		return nil, validationError(ErrInvalidScheduleConfig, "%v", err)
	}
	cursor := scheduler.Assign(scheduler.Start(), rows)
	if cursor.Wraps > 0 {
		s.logger.WarnContext(ctx, "group schedule ran past the end date and wrapped to the start date",
			slog.Int("tournament_id", tournamentID), slog.Int("wraps", cursor.Wraps))
	}

	result := &GenerationResult{TournamentID: tournamentID, SchedulerWraps: cursor.Wraps}
	filter := groupStages
	if t.Type == models.TypeGroupsKnockout {
		placeholders, size, byes, err := s.placeholderBracket(t, groups, rows)
		if err != nil {
			return nil, err
		}
		rows = append(rows, placeholders...)
		result.BracketSize, result.Byes = size, byes
		filter = repositories.StageFilter{Stages: []models.MatchStage{models.MatchStageLeague}, Exclude: true}
	}

	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		deleted, stored, txErr := replaceMatches(ctx, exec, s.matchRepo, tournamentID, filter, rows)
		if txErr != nil {
			return txErr
		}
		result.Deleted, result.Matches = deleted, stored
		return s.tournamentRepo.UpdateStage(ctx, exec, tournamentID, models.StageGroupStage, false)
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("store group stage of tournament %d", tournamentID), err)
	}

	s.logger.InfoContext(ctx, "group stage generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", len(groups)),
		slog.Int("matches", len(result.Matches)),
		slog.Int("bracket_size", result.BracketSize),
		slog.Int64("deleted", result.Deleted),
	)
	s.notifier.Publish(tournamentID, brackets.EventFixturesUpdated, result.Matches)
	s.snapshots.PublishFixtures(ctx, tournamentID, result.Matches)
	return result, nil
}

// placeholderBracket builds the empty knockout bracket of a groups_knockout
// tournament, dated after the last group match.
func (s *groupService) placeholderBracket(t *models.Tournament, groups map[int][]int, groupRows []*brackets.BracketMatch) ([]*brackets.BracketMatch, int, int, error) {
	qualifiers := 0
	for _, ids := range groups {
		qualifiers += min(len(ids), t.TeamsAdvancingPerGroup)
	}
	if qualifiers < 2 {
		return nil, 0, 0, nil
	}

	bracket, err := brackets.BuildKnockout(brackets.KnockoutParams{
		Seeds:      brackets.PlaceholderSeeds(qualifiers),
		ThirdPlace: t.HasThirdPlaceMatch,
	})
	if err != nil {
		return nil, 0, 0, wrapError("build placeholder bracket", err)
	}
	start, err := knockoutStartFromRows(t, groupRows, s.now())
	if err != nil {
		return nil, 0, 0, validationError(ErrInvalidScheduleConfig, "%v", err)
	}
	brackets.ScheduleKnockout(bracket.Matches, start, t.Schedule)
	return bracket.Matches, bracket.Size, bracket.Byes, nil
}

func (s *groupService) GetGroupStandings(ctx context.Context, tournamentID int) ([]models.GroupStanding, error) {
	if _, err := s.loadGroupTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError("list teams", err)
	}
	return brackets.GroupStandings(teams), nil
}

func (s *groupService) CompleteGroupStage(ctx context.Context, tournamentID int) ([]models.Qualifier, error) {
	t, err := s.loadGroupTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	nextStage := models.StageKnockoutStage
	if t.Type == models.TypeGroups {
		nextStage = models.StageCompleted
	}

	var qualifiers []models.Qualifier
	var unfinished int
	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		table, txErr := recomputeStandings(ctx, exec, s.teamRepo, s.matchRepo, t)
		if txErr != nil {
			return txErr
		}
		standings := brackets.GroupStandings(table)
		if len(standings) == 0 {
			return validationError(ErrGroupsNotAssigned, "tournament %d", tournamentID)
		}
		qualifiers = brackets.Qualifiers(standings, t.TeamsAdvancingPerGroup)

		matches, txErr := s.matchRepo.ListByTournament(ctx, exec, tournamentID, groupStages)
		if txErr != nil {
			return txErr
		}
		for _, m := range matches {
			if m.Status != models.StatusCompleted {
				unfinished++
			}
		}
		return s.tournamentRepo.UpdateStage(ctx, exec, tournamentID, nextStage, true)
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("complete group stage of tournament %d", tournamentID), err)
	}

	if unfinished > 0 {
		s.logger.WarnContext(ctx, "group stage completed with unfinished matches",
			slog.Int("tournament_id", tournamentID), slog.Int("unfinished", unfinished))
	}
	s.logger.InfoContext(ctx, "group stage completed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("qualifiers", len(qualifiers)),
		slog.String("next_stage", string(nextStage)),
	)
	s.notifier.Publish(tournamentID, brackets.EventStandingsUpdated, qualifiers)
	return qualifiers, nil
}
