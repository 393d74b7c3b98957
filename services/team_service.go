package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

type CreateTeamInput struct {
	Name        string `json:"name"`
	GroupNumber *int   `json:"group_number"`
}

// UpdateTeamInput changes registration data. A group number of 0 clears the
// group. Record fields are owned by the standings calculator.
type UpdateTeamInput struct {
	Name         *string `json:"name"`
	TournamentID *int    `json:"tournament_id"`
	GroupNumber  *int    `json:"group_number"`
}

type TeamService interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error)
	Get(ctx context.Context, id int) (*models.Team, error)
	Create(ctx context.Context, tournamentID int, input CreateTeamInput) (*models.Team, error)
	Update(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error)
}

type teamService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	logger         *slog.Logger
}

func NewTeamService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) TeamService {
	return &teamService{tournamentRepo: tournamentRepo, teamRepo: teamRepo, logger: logger}
}

func (s *teamService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", tournamentID), err)
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError("list teams", err)
	}
	return teams, nil
}

func (s *teamService) Get(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get team %d", id), err)
	}
	return team, nil
}

func (s *teamService) Create(ctx context.Context, tournamentID int, input CreateTeamInput) (*models.Team, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", tournamentID), err)
	}

	team := &models.Team{
		Name:         strings.TrimSpace(input.Name),
		TournamentID: &t.ID,
	}
	if team.Name == "" {
		return nil, validationError(ErrTeamNameRequired, "name is empty")
	}
	if input.GroupNumber != nil {
		if err := checkGroupNumber(t, *input.GroupNumber); err != nil {
			return nil, err
		}
		if *input.GroupNumber > 0 {
			team.GroupNumber = input.GroupNumber
		}
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, wrapError("create team", err)
	}
	s.logger.InfoContext(ctx, "team registered", slog.Int("tournament_id", t.ID), slog.Int("team_id", team.ID))
	return team, nil
}

func (s *teamService) Update(ctx context.Context, id int, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get team %d", id), err)
	}

	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
		if team.Name == "" {
			return nil, validationError(ErrTeamNameRequired, "name is empty")
		}
	}
	if input.TournamentID != nil {
		team.TournamentID = input.TournamentID
	}
	if input.GroupNumber != nil {
		if team.TournamentID == nil {
			return nil, validationError(ErrInvalidGroupNumber, "team %d is not registered in a tournament", id)
		}
		if *input.GroupNumber < 0 {
			return nil, validationError(ErrInvalidGroupNumber, "group %d is negative", *input.GroupNumber)
		}
		team.GroupNumber = nil
		if *input.GroupNumber > 0 {
			team.GroupNumber = input.GroupNumber
		}
	}

	if team.TournamentID != nil && team.GroupNumber != nil {
		t, err := s.tournamentRepo.GetByID(ctx, nil, *team.TournamentID)
		if err != nil {
			return nil, wrapError(fmt.Sprintf("get tournament %d", *team.TournamentID), err)
		}
		if err := checkGroupNumber(t, *team.GroupNumber); err != nil {
			return nil, err
		}
	}

	if err := s.teamRepo.Update(ctx, nil, team); err != nil {
		return nil, wrapError(fmt.Sprintf("update team %d", id), err)
	}
	return team, nil
}

func checkGroupNumber(t *models.Tournament, group int) error {
	if group == 0 {
		return nil
	}
	if !t.Type.HasGroups() {
		return validationError(ErrInvalidGroupNumber, "tournament %d has no groups", t.ID)
	}
	if group < 0 || group > t.NumberOfGroups {
		return validationError(ErrInvalidGroupNumber, "group %d not in 1..%d", group, t.NumberOfGroups)
	}
	return nil
}
