package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/haithamlamki/sssppprt-sub000/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type ListTournamentsFilter struct {
	Type   *models.TournamentType
	Stage  *models.TournamentStage
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateStage(ctx context.Context, exec SQLExecutor, id int, stage models.TournamentStage, groupStageComplete bool) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, type, start_date, end_date, schedule_config,
	points_for_win, points_for_draw, points_for_loss,
	number_of_groups, teams_advancing_per_group, has_second_leg, has_third_place_match,
	group_stage_complete, current_stage, created_at`

func scanTournament(row rowScanner, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Type, &t.StartDate, &t.EndDate, &t.Schedule,
		&t.PointsForWin, &t.PointsForDraw, &t.PointsForLoss,
		&t.NumberOfGroups, &t.TeamsAdvancingPerGroup, &t.HasSecondLeg, &t.HasThirdPlaceMatch,
		&t.GroupStageComplete, &t.CurrentStage, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, type, start_date, end_date, schedule_config,
			points_for_win, points_for_draw, points_for_loss,
			number_of_groups, teams_advancing_per_group, has_second_leg, has_third_place_match,
			group_stage_complete, current_stage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Type, t.StartDate, t.EndDate, t.Schedule,
		t.PointsForWin, t.PointsForDraw, t.PointsForLoss,
		t.NumberOfGroups, t.TeamsAdvancingPerGroup, t.HasSecondLeg, t.HasThirdPlaceMatch,
		t.GroupStageComplete, t.CurrentStage,
	).Scan(&t.ID, &t.CreatedAt)

	return translatePQError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argID)
		args = append(args, *filter.Type)
		argID++
	}
	if filter.Stage != nil {
		query += fmt.Sprintf(" AND current_stage = $%d", argID)
		args = append(args, *filter.Stage)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			type = $2,
			start_date = $3,
			end_date = $4,
			schedule_config = $5,
			points_for_win = $6,
			points_for_draw = $7,
			points_for_loss = $8,
			number_of_groups = $9,
			teams_advancing_per_group = $10,
			has_second_leg = $11,
			has_third_place_match = $12,
			group_stage_complete = $13,
			current_stage = $14
		WHERE id = $15`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		t.Name, t.Type, t.StartDate, t.EndDate, t.Schedule,
		t.PointsForWin, t.PointsForDraw, t.PointsForLoss,
		t.NumberOfGroups, t.TeamsAdvancingPerGroup, t.HasSecondLeg, t.HasThirdPlaceMatch,
		t.GroupStageComplete, t.CurrentStage,
		t.ID,
	)
	if err != nil {
		return translatePQError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStage(ctx context.Context, exec SQLExecutor, id int, stage models.TournamentStage, groupStageComplete bool) error {
	query := `UPDATE tournaments SET current_stage = $1, group_stage_complete = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, stage, groupStageComplete, id)
	if err != nil {
		return fmt.Errorf("failed to update stage of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
