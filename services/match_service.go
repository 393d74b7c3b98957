package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

// UpdateMatchResult is returned by a committed match update. Warnings list
// downstream slots that could not be filled; the update itself stands.
type UpdateMatchResult struct {
	Match            models.Match              `json:"match"`
	Propagated       []brackets.SlotAssignment `json:"propagated"`
	StandingsUpdated bool                      `json:"standings_updated"`
	Warnings         []string                  `json:"warnings,omitempty"`
}

type MatchService interface {
	// ListMatches returns matches with resolved teams and dates in the
	// tournament's zone. Unfilled knockout slots have nil teams.
	ListMatches(ctx context.Context, tournamentID int, filter repositories.StageFilter) ([]models.Match, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	CreateMatches(ctx context.Context, tournamentID int, rows []models.Match) ([]models.Match, error)
	UpdateMatch(ctx context.Context, id int, update brackets.MatchUpdate) (*UpdateMatchResult, error)
	DeleteMatches(ctx context.Context, tournamentID int, filter repositories.StageFilter) (int64, error)
}

type matchService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tx             repositories.Transactor
	notifier       Notifier
	logger         *slog.Logger
}

func NewMatchService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tx:             tx,
		notifier:       notifierOrNoop(notifier),
		logger:         logger,
	}
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID int, filter repositories.StageFilter) ([]models.Match, error) {
	var (
		t       *models.Tournament
		teams   []models.Team
		matches []models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.tournamentRepo.GetByID(gCtx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, tournamentID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapError(fmt.Sprintf("list matches of tournament %d", tournamentID), err)
	}

	attachTeams(matches, teams)
	inZone(matches, t.Schedule.WithDefaults().Location())
	return matches, nil
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get match %d", id), err)
	}
	t, err := s.tournamentRepo.GetByID(ctx, nil, m.TournamentID)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", m.TournamentID), err)
	}

	ids := make([]int, 0, 2)
	for _, teamID := range []*int{m.HomeTeamID, m.AwayTeamID} {
		if teamID != nil {
			ids = append(ids, *teamID)
		}
	}
	teams, err := s.teamRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, wrapError("load match teams", err)
	}

	out := []models.Match{*m}
	attachTeams(out, teams)
	inZone(out, t.Schedule.WithDefaults().Location())
	return &out[0], nil
}

func (s *matchService) CreateMatches(ctx context.Context, tournamentID int, rows []models.Match) ([]models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", tournamentID), err)
	}
	if len(rows) == 0 {
		return []models.Match{}, nil
	}
	for i := range rows {
		if err := prepareMatchRow(&rows[i], tournamentID); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		for i := range rows {
			if err := s.matchRepo.Create(ctx, exec, &rows[i]); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("create matches of tournament %d", tournamentID), err)
	}

	s.logger.InfoContext(ctx, "matches created", slog.Int("tournament_id", tournamentID), slog.Int("matches", len(rows)))
	s.notifier.Publish(tournamentID, brackets.EventFixturesUpdated, rows)
	return rows, nil
}

// prepareMatchRow fills defaults of a manually created row and rejects rows
// the generators would never produce. Results are derived, never given.
func prepareMatchRow(m *models.Match, tournamentID int) error {
	m.TournamentID = tournamentID
	if m.Leg == 0 {
		m.Leg = 1
	}
	if m.Status == "" {
		m.Status = models.StatusScheduled
	}
	switch {
	case !validStage(m.Stage):
		return validationError(ErrInvalidMatchRow, "unknown stage %q", m.Stage)
	case !m.Status.Valid():
		return validationError(ErrInvalidMatchRow, "unknown status %q", m.Status)
	case m.Status == models.StatusCompleted:
		return validationError(ErrInvalidMatchRow, "matches are created unplayed")
	case m.Leg != 1 && m.Leg != 2:
		return validationError(ErrInvalidMatchRow, "leg must be 1 or 2, got %d", m.Leg)
	case m.Round < 1:
		return validationError(ErrInvalidMatchRow, "round must be at least 1, got %d", m.Round)
	case m.HomeTeamID != nil && m.AwayTeamID != nil && *m.HomeTeamID == *m.AwayTeamID:
		return validationError(ErrInvalidMatchRow, "team %d cannot play itself", *m.HomeTeamID)
	}
	m.HomeScore, m.AwayScore, m.HomePenaltyScore, m.AwayPenaltyScore = nil, nil, nil, nil
	m.WinnerTeamID, m.LoserTeamID, m.WentToPenalties = nil, nil, false
	return nil
}

func validStage(s models.MatchStage) bool {
	return s == models.MatchStageGroup || s == models.MatchStageLeague || s.IsKnockout()
}

func (s *matchService) UpdateMatch(ctx context.Context, id int, update brackets.MatchUpdate) (*UpdateMatchResult, error) {
	if update.IsEmpty() {
		return nil, validationError(ErrEmptyUpdate, "match %d", id)
	}
	current, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get match %d", id), err)
	}
	t, err := s.tournamentRepo.GetByID(ctx, nil, current.TournamentID)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", current.TournamentID), err)
	}

	updated, err := brackets.ApplyUpdate(*current, update)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("update match %d", id), err)
	}

	if update.TouchesSchedule() {
		others, err := s.matchRepo.ListByTournament(ctx, nil, t.ID, repositories.StageFilter{})
		if err != nil {
			return nil, wrapError("list matches", err)
		}
		if err := brackets.CheckVenueConflict(updated, others, t.Schedule); err != nil {
			return nil, wrapError(fmt.Sprintf("reschedule match %d", id), err)
		}
	}

	refreshStandings := !updated.Stage.IsKnockout() &&
		(update.TouchesScores() || updated.Status != current.Status)
	finishesTournament := updated.Stage == models.MatchStageFinal &&
		updated.Status == models.StatusCompleted &&
		current.Status != models.StatusCompleted

	result := &UpdateMatchResult{}
	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		if txErr := s.matchRepo.Update(ctx, exec, &updated); txErr != nil {
			return txErr
		}
		if refreshStandings {
			if _, txErr := recomputeStandings(ctx, exec, s.teamRepo, s.matchRepo, t); txErr != nil {
				return fmt.Errorf("refresh standings: %w", txErr)
			}
			result.StandingsUpdated = true
		}
		if finishesTournament {
			return s.tournamentRepo.UpdateStage(ctx, exec, t.ID, models.StageCompleted, t.GroupStageComplete)
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("update match %d", id), err)
	}
	result.Match = updated

	if updated.Status == models.StatusCompleted && updated.WinnerTeamID != nil {
		result.Propagated, result.Warnings = s.propagate(ctx, updated)
	}

	s.logger.InfoContext(ctx, "match updated",
		slog.Int("tournament_id", t.ID),
		slog.Int("match_id", id),
		slog.String("status", string(updated.Status)),
		slog.Int("propagated", len(result.Propagated)),
		slog.Bool("standings_updated", result.StandingsUpdated),
	)
	s.notifier.Publish(t.ID, brackets.EventMatchUpdated, updated)
	if len(result.Propagated) > 0 {
		s.notifier.Publish(t.ID, brackets.EventBracketUpdated, result.Propagated)
	}
	if result.StandingsUpdated {
		s.notifier.Publish(t.ID, brackets.EventStandingsUpdated, nil)
	}
	return result, nil
}

// propagate pushes source's winner and loser one level down the bracket.
// Each slot is written on its own; a failed write becomes a warning.
func (s *matchService) propagate(ctx context.Context, source models.Match) ([]brackets.SlotAssignment, []string) {
	knockout, err := s.matchRepo.ListByTournament(ctx, nil, source.TournamentID, knockoutStages)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load bracket for propagation",
			slog.Int("match_id", source.ID), slog.Any("error", err))
		return nil, []string{fmt.Sprintf("bracket not updated: %v", err)}
	}

	idx := brackets.BuildPropagationIndex(knockout)
	byID := make(map[int]models.Match, len(knockout))
	for _, m := range knockout {
		byID[m.ID] = m
	}
	dependents := make([]models.Match, 0, len(idx.Dependents(source.ID)))
	for _, depID := range idx.Dependents(source.ID) {
		dependents = append(dependents, byID[depID])
	}

	assignments, locked := brackets.Propagate(source, dependents)
	var done []brackets.SlotAssignment
	var warnings []string
	for _, depID := range locked {
		s.logger.WarnContext(ctx, "downstream match already completed, slot left unchanged",
			slog.Int("match_id", source.ID), slog.Int("target_match_id", depID))
		warnings = append(warnings, fmt.Sprintf("match %d is already completed; its participants were not changed", depID))
	}
	for _, a := range assignments {
		if err := s.matchRepo.UpdateTeamSlot(ctx, nil, a.MatchID, a.Side == brackets.SideHome, a.TeamID); err != nil {
			s.logger.WarnContext(ctx, "failed to propagate result",
				slog.Int("match_id", source.ID),
				slog.Int("target_match_id", a.MatchID),
				slog.String("side", string(a.Side)),
				slog.Any("error", err),
			)
			warnings = append(warnings, fmt.Sprintf("match %d %s slot not updated: %v", a.MatchID, a.Side, err))
			continue
		}
		done = append(done, a)
	}
	return done, warnings
}

func (s *matchService) DeleteMatches(ctx context.Context, tournamentID int, filter repositories.StageFilter) (int64, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return 0, wrapError(fmt.Sprintf("get tournament %d", tournamentID), err)
	}
	for _, st := range filter.Stages {
		if !validStage(st) {
			return 0, validationError(ErrInvalidMatchRow, "unknown stage %q", st)
		}
	}
	deleted, err := s.matchRepo.DeleteByStages(ctx, nil, tournamentID, filter)
	if err != nil {
		return 0, wrapError(fmt.Sprintf("delete matches of tournament %d", tournamentID), err)
	}
	s.logger.InfoContext(ctx, "matches deleted", slog.Int("tournament_id", tournamentID), slog.Int64("deleted", deleted))
	s.notifier.Publish(tournamentID, brackets.EventFixturesUpdated, nil)
	return deleted, nil
}
