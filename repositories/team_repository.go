package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/lib/pq"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	// ListByTournament returns the tournament's teams ordered by points, goal
	// difference and goals scored, best first.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	UpdateGroups(ctx context.Context, exec SQLExecutor, groups map[int]int) error
	UpdateRecords(ctx context.Context, exec SQLExecutor, teams []models.Team) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `
	id, name, tournament_id, group_number, created_at,
	played, won, drawn, lost, goals_for, goals_against, goal_difference, points`

func scanTeam(row rowScanner, t *models.Team) error {
	return row.Scan(
		&t.ID, &t.Name, &t.TournamentID, &t.GroupNumber, &t.CreatedAt,
		&t.Played, &t.Won, &t.Drawn, &t.Lost, &t.GoalsFor, &t.GoalsAgainst, &t.GoalDifference, &t.Points,
	)
}

func collectTeams(rows *sql.Rows) ([]models.Team, error) {
	defer rows.Close()
	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := scanTeam(rows, &t); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + `
		FROM teams
		WHERE tournament_id = $1
		ORDER BY points DESC, goal_difference DESC, goals_for DESC, id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	return collectTeams(rows)
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Team, error) {
	if len(ids) == 0 {
		return []models.Team{}, nil
	}
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return collectTeams(rows)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	t := &models.Team{}
	if err := scanTeam(r.db.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (name, tournament_id, group_number)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, t.Name, t.TournamentID, t.GroupNumber).Scan(&t.ID, &t.CreatedAt)
	return translatePQError(err)
}

// Update writes name, tournament and group. Record columns are left alone.
func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Team) error {
	query := `UPDATE teams SET name = $1, tournament_id = $2, group_number = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, t.Name, t.TournamentID, t.GroupNumber, t.ID)
	if err != nil {
		return translatePQError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// UpdateGroups sets group_number for every team ID in groups.
func (r *postgresTeamRepository) UpdateGroups(ctx context.Context, exec SQLExecutor, groups map[int]int) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]int, 0, len(groups))
	numbers := make([]int, 0, len(groups))
	for id, g := range groups {
		ids = append(ids, id)
		numbers = append(numbers, g)
	}
	query := `
		UPDATE teams AS t SET group_number = v.group_number
		FROM unnest($1::int[], $2::int[]) AS v(id, group_number)
		WHERE t.id = v.id`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, pq.Array(ids), pq.Array(numbers))
	if err != nil {
		return fmt.Errorf("failed to update team groups: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if int(affected) != len(groups) {
		return fmt.Errorf("%w: %d of %d teams updated", ErrTeamNotFound, affected, len(groups))
	}
	return nil
}

// UpdateRecords writes the standings columns of every team.
func (r *postgresTeamRepository) UpdateRecords(ctx context.Context, exec SQLExecutor, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	stmt, err := r.getExecutor(exec).PrepareContext(ctx, `
		UPDATE teams SET
			played = $1, won = $2, drawn = $3, lost = $4,
			goals_for = $5, goals_against = $6, goal_difference = $7, points = $8
		WHERE id = $9`)
	if err != nil {
		return fmt.Errorf("failed to prepare team record update: %w", err)
	}
	defer stmt.Close()

	for _, t := range teams {
		if _, err := stmt.ExecContext(ctx,
			t.Played, t.Won, t.Drawn, t.Lost,
			t.GoalsFor, t.GoalsAgainst, t.GoalDifference, t.Points,
			t.ID,
		); err != nil {
			return fmt.Errorf("failed to update record of team %d: %w", t.ID, err)
		}
	}
	return nil
}
