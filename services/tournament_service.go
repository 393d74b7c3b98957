package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

const (
	defaultPointsForWin  = 3
	defaultPointsForDraw = 1
	maxUTCOffsetMinutes  = 14 * 60
)

type CreateTournamentInput struct {
	Name                   string                `json:"name"`
	Type                   models.TournamentType `json:"type"`
	StartDate              time.Time             `json:"start_date"`
	EndDate                *time.Time            `json:"end_date"`
	Schedule               models.ScheduleConfig `json:"schedule"`
	PointsForWin           *int                  `json:"points_for_win"`
	PointsForDraw          *int                  `json:"points_for_draw"`
	PointsForLoss          *int                  `json:"points_for_loss"`
	NumberOfGroups         int                   `json:"number_of_groups"`
	TeamsAdvancingPerGroup int                   `json:"teams_advancing_per_group"`
	HasSecondLeg           bool                  `json:"has_second_leg"`
	HasThirdPlaceMatch     bool                  `json:"has_third_place_match"`
}

// UpdateTournamentInput is a partial update; nil fields keep their value.
// Stage and group completion are driven by the generators only.
type UpdateTournamentInput struct {
	Name                   *string                `json:"name"`
	Type                   *models.TournamentType `json:"type"`
	StartDate              *time.Time             `json:"start_date"`
	EndDate                *time.Time             `json:"end_date"`
	Schedule               *models.ScheduleConfig `json:"schedule"`
	PointsForWin           *int                   `json:"points_for_win"`
	PointsForDraw          *int                   `json:"points_for_draw"`
	PointsForLoss          *int                   `json:"points_for_loss"`
	NumberOfGroups         *int                   `json:"number_of_groups"`
	TeamsAdvancingPerGroup *int                   `json:"teams_advancing_per_group"`
	HasSecondLeg           *bool                  `json:"has_second_leg"`
	HasThirdPlaceMatch     *bool                  `json:"has_third_place_match"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Get(ctx context.Context, id int) (*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	// GenerateLeagueSchedule replaces every league match of a round_robin
	// tournament with a freshly scheduled round robin over all its teams.
	GenerateLeagueSchedule(ctx context.Context, id int) (*GenerationResult, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tx             repositories.Transactor
	notifier       Notifier
	snapshots      SnapshotPublisher
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	notifier Notifier,
	snapshots SnapshotPublisher,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tx:             tx,
		notifier:       notifierOrNoop(notifier),
		snapshots:      snapshotsOrNoop(snapshots),
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{
		Name:                   strings.TrimSpace(input.Name),
		Type:                   input.Type,
		StartDate:              input.StartDate,
		EndDate:                input.EndDate,
		Schedule:               input.Schedule,
		PointsForWin:           defaultPointsForWin,
		PointsForDraw:          defaultPointsForDraw,
		NumberOfGroups:         input.NumberOfGroups,
		TeamsAdvancingPerGroup: input.TeamsAdvancingPerGroup,
		HasSecondLeg:           input.HasSecondLeg,
		HasThirdPlaceMatch:     input.HasThirdPlaceMatch,
		CurrentStage:           models.StageSetup,
	}
	if input.PointsForWin != nil {
		t.PointsForWin = *input.PointsForWin
	}
	if input.PointsForDraw != nil {
		t.PointsForDraw = *input.PointsForDraw
	}
	if input.PointsForLoss != nil {
		t.PointsForLoss = *input.PointsForLoss
	}

	if err := validateTournament(t); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, wrapError("create tournament", err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.String("type", string(t.Type)))
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrValidationFailed)
	}
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, wrapError("list tournaments", err)
	}
	return tournaments, nil
}

func (s *tournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", id), err)
	}
	return t, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", id), err)
	}

	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		t.Type = *input.Type
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = input.EndDate
	}
	if input.Schedule != nil {
		t.Schedule = *input.Schedule
	}
	if input.PointsForWin != nil {
		t.PointsForWin = *input.PointsForWin
	}
	if input.PointsForDraw != nil {
		t.PointsForDraw = *input.PointsForDraw
	}
	if input.PointsForLoss != nil {
		t.PointsForLoss = *input.PointsForLoss
	}
	if input.NumberOfGroups != nil {
		t.NumberOfGroups = *input.NumberOfGroups
	}
	if input.TeamsAdvancingPerGroup != nil {
		t.TeamsAdvancingPerGroup = *input.TeamsAdvancingPerGroup
	}
	if input.HasSecondLeg != nil {
		t.HasSecondLeg = *input.HasSecondLeg
	}
	if input.HasThirdPlaceMatch != nil {
		t.HasThirdPlaceMatch = *input.HasThirdPlaceMatch
	}

	if err := validateTournament(t); err != nil {
		return nil, err
	}
	if err := s.tournamentRepo.Update(ctx, nil, t); err != nil {
		return nil, wrapError(fmt.Sprintf("update tournament %d", id), err)
	}
	return t, nil
}

func (s *tournamentService) GenerateLeagueSchedule(ctx context.Context, id int) (*GenerationResult, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", id), err)
	}
	if t.Type != models.TypeRoundRobin {
		return nil, validationError(ErrWrongTournamentType, "league schedule requires a %s tournament, got %s", models.TypeRoundRobin, t.Type)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, nil, id)
	if err != nil {
		return nil, wrapError("list teams", err)
	}
	rows, err := brackets.LeagueFixtures(teamIDs(teams), t.HasSecondLeg)
	if err != nil {
		return nil, wrapError("generate league fixtures", err)
	}

	scheduler, err := brackets.NewScheduler(t.StartDate, t.EndDate, t.Schedule)
	if err != nil {
		return nil, validationError(ErrInvalidScheduleConfig, "%v", err)
	}
	cursor := scheduler.Assign(scheduler.Start(), rows)
	if cursor.Wraps > 0 {
		s.logger.WarnContext(ctx, "league schedule ran past the end date and wrapped to the start date",
			slog.Int("tournament_id", id), slog.Int("wraps", cursor.Wraps))
	}

	result := &GenerationResult{TournamentID: id, SchedulerWraps: cursor.Wraps}
	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		deleted, stored, txErr := replaceMatches(ctx, exec, s.matchRepo, id, leagueStages, rows)
		if txErr != nil {
			return txErr
		}
		result.Deleted, result.Matches = deleted, stored
		return s.tournamentRepo.UpdateStage(ctx, exec, id, models.StageLeague, false)
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("store league schedule of tournament %d", id), err)
	}

	s.logger.InfoContext(ctx, "league schedule generated",
		slog.Int("tournament_id", id),
		slog.Int("teams", len(teams)),
		slog.Int("matches", len(result.Matches)),
		slog.Int64("deleted", result.Deleted),
	)
	s.notifier.Publish(id, brackets.EventFixturesUpdated, result.Matches)
	s.snapshots.PublishFixtures(ctx, id, result.Matches)
	return result, nil
}

func validateTournament(t *models.Tournament) error {
	if t.Name == "" {
		return validationError(ErrTournamentNameRequired, "name is empty")
	}
	if !t.Type.Valid() {
		return validationError(ErrTournamentInvalidType, "%q", t.Type)
	}
	if t.StartDate.IsZero() {
		return validationError(ErrTournamentInvalidDates, "start date is required")
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return validationError(ErrTournamentInvalidDates, "end %s is before start %s",
			t.EndDate.Format(time.RFC3339), t.StartDate.Format(time.RFC3339))
	}
	if !(t.PointsForWin > t.PointsForDraw && t.PointsForDraw >= 0 && t.PointsForLoss == 0) {
		return validationError(ErrInvalidPointValues, "got win=%d draw=%d loss=%d", t.PointsForWin, t.PointsForDraw, t.PointsForLoss)
	}
	if t.Type.HasGroups() {
		if err := requireGroupConfig(t); err != nil {
			return err
		}
	}
	return validateSchedule(t.Schedule)
}

func requireGroupConfig(t *models.Tournament) error {
	if t.NumberOfGroups < 1 {
		return validationError(ErrGroupConfigMissing, "number of groups must be at least 1, got %d", t.NumberOfGroups)
	}
	if t.TeamsAdvancingPerGroup < 1 {
		return validationError(ErrGroupConfigMissing, "teams advancing per group must be at least 1, got %d", t.TeamsAdvancingPerGroup)
	}
	return nil
}

func validateSchedule(cfg models.ScheduleConfig) error {
	if cfg.MatchesPerDay < 0 || cfg.HalfDurationMinutes < 0 || cfg.KnockoutRoundGapDays < 0 {
		return validationError(ErrInvalidScheduleConfig, "counts and durations must not be negative")
	}
	if cfg.UTCOffsetMinutes < -maxUTCOffsetMinutes || cfg.UTCOffsetMinutes > maxUTCOffsetMinutes {
		return validationError(ErrInvalidScheduleConfig, "utc offset %d minutes is out of range", cfg.UTCOffsetMinutes)
	}
	if _, err := cfg.WithDefaults().DailyStartMinutes(); err != nil {
		return validationError(ErrInvalidScheduleConfig, "%v", err)
	}
	seen := make(map[string]bool, len(cfg.Venues))
	for _, v := range cfg.Venues {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return validationError(ErrInvalidScheduleConfig, "venue name is empty")
		}
		if seen[name] {
			return validationError(ErrInvalidScheduleConfig, "venue %q listed twice", name)
		}
		seen[name] = true
		if v.MatchesPerDay != nil && *v.MatchesPerDay < 1 {
			return validationError(ErrInvalidScheduleConfig, "venue %q capacity must be at least 1", name)
		}
	}
	return nil
}
