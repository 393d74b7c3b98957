package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

type StandingsService interface {
	// Recalculate rebuilds every team record of the tournament from its
	// completed group and league matches and returns the ranked table.
	Recalculate(ctx context.Context, tournamentID int) ([]models.Team, error)
}

type standingsService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tx             repositories.Transactor
	notifier       Notifier
	logger         *slog.Logger
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	notifier Notifier,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tx:             tx,
		notifier:       notifierOrNoop(notifier),
		logger:         logger,
	}
}

func (s *standingsService) Recalculate(ctx context.Context, tournamentID int) ([]models.Team, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("load tournament %d", tournamentID), err)
	}

	var table []models.Team
	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var recErr error
		table, recErr = recomputeStandings(ctx, exec, s.teamRepo, s.matchRepo, t)
		return recErr
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("recalculate standings of tournament %d", tournamentID), err)
	}

	s.logger.InfoContext(ctx, "standings recalculated", slog.Int("tournament_id", tournamentID), slog.Int("teams", len(table)))
	s.notifier.Publish(tournamentID, brackets.EventStandingsUpdated, table)
	return table, nil
}

// recomputeStandings is the full recompute shared by every service that
// changes results. Knockout matches never count towards the table.
func recomputeStandings(
	ctx context.Context,
	exec repositories.SQLExecutor,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	t *models.Tournament,
) ([]models.Team, error) {
	teams, err := teamRepo.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	matches, err := matchRepo.ListByTournament(ctx, exec, t.ID, tableStages)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	table := brackets.ComputeStandings(teams, matches, t.PointValues())
	if err := teamRepo.UpdateRecords(ctx, exec, table); err != nil {
		return nil, err
	}
	brackets.RankTeams(table)
	return table, nil
}
