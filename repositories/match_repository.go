package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/lib/pq"
)

var ErrMatchNotFound = errors.New("match not found")

// StageFilter selects matches by stage. With Exclude set it selects every
// stage except the listed ones. An empty filter selects everything.
type StageFilter struct {
	Stages  []models.MatchStage
	Exclude bool
}

func (f StageFilter) stageStrings() []string {
	out := make([]string, len(f.Stages))
	for i, s := range f.Stages {
		out[i] = string(s)
	}
	return out
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter StageFilter) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateTeamSlot(ctx context.Context, exec SQLExecutor, matchID int, home bool, teamID int) error
	DeleteByStages(ctx context.Context, exec SQLExecutor, tournamentID int, filter StageFilter) (int64, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, home_team_id, away_team_id, home_team_source, away_team_source,
	round, leg, stage, group_number, bracket_position, match_date, venue, status,
	home_score, away_score, home_penalty_score, away_penalty_score,
	winner_team_id, loser_team_id, went_to_penalties, created_at`

func scanMatch(row rowScanner, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.HomeTeamID, &m.AwayTeamID, &m.HomeTeamSource, &m.AwayTeamSource,
		&m.Round, &m.Leg, &m.Stage, &m.GroupNumber, &m.BracketPosition, &m.MatchDate, &m.Venue, &m.Status,
		&m.HomeScore, &m.AwayScore, &m.HomePenaltyScore, &m.AwayPenaltyScore,
		&m.WinnerTeamID, &m.LoserTeamID, &m.WentToPenalties, &m.CreatedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, home_team_id, away_team_id, home_team_source, away_team_source,
			round, leg, stage, group_number, bracket_position, match_date, venue, status,
			home_score, away_score, home_penalty_score, away_penalty_score,
			winner_team_id, loser_team_id, went_to_penalties
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TournamentID, m.HomeTeamID, m.AwayTeamID, m.HomeTeamSource, m.AwayTeamSource,
		m.Round, m.Leg, m.Stage, m.GroupNumber, m.BracketPosition, m.MatchDate, m.Venue, m.Status,
		m.HomeScore, m.AwayScore, m.HomePenaltyScore, m.AwayPenaltyScore,
		m.WinnerTeamID, m.LoserTeamID, m.WentToPenalties,
	).Scan(&m.ID, &m.CreatedAt)

	return translatePQError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m := &models.Match{}
	if err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

// stageClause appends the filter as the next placeholder.
func stageClause(b *strings.Builder, args []interface{}, filter StageFilter) []interface{} {
	if len(filter.Stages) == 0 {
		return args
	}
	args = append(args, pq.Array(filter.stageStrings()))
	if filter.Exclude {
		b.WriteString(" AND NOT (stage = ANY($")
	} else {
		b.WriteString(" AND (stage = ANY($")
	}
	b.WriteString(strconv.Itoa(len(args)))
	b.WriteString("))")
	return args
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter StageFilter) ([]models.Match, error) {
	var qb strings.Builder
	qb.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)
	args := stageClause(&qb, []interface{}{tournamentID}, filter)
	qb.WriteString(" ORDER BY round ASC, bracket_position ASC NULLS LAST, match_date ASC NULLS LAST, id ASC")

	rows, err := r.getExecutor(exec).QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := scanMatch(rows, &m); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// Update writes every mutable column of a match. Sources and bracket layout
// are fixed at creation and not touched.
func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		UPDATE matches SET
			home_team_id = $1,
			away_team_id = $2,
			match_date = $3,
			venue = $4,
			status = $5,
			home_score = $6,
			away_score = $7,
			home_penalty_score = $8,
			away_penalty_score = $9,
			winner_team_id = $10,
			loser_team_id = $11,
			went_to_penalties = $12
		WHERE id = $13`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.HomeTeamID, m.AwayTeamID, m.MatchDate, m.Venue, m.Status,
		m.HomeScore, m.AwayScore, m.HomePenaltyScore, m.AwayPenaltyScore,
		m.WinnerTeamID, m.LoserTeamID, m.WentToPenalties,
		m.ID,
	)
	if err != nil {
		return translatePQError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateTeamSlot(ctx context.Context, exec SQLExecutor, matchID int, home bool, teamID int) error {
	column := "away_team_id"
	if home {
		column = "home_team_id"
	}
	query := `UPDATE matches SET ` + column + ` = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, teamID, matchID)
	if err != nil {
		return fmt.Errorf("failed to set %s of match %d: %w", column, matchID, translatePQError(err))
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByStages(ctx context.Context, exec SQLExecutor, tournamentID int, filter StageFilter) (int64, error) {
	var qb strings.Builder
	qb.WriteString(`DELETE FROM matches WHERE tournament_id = $1`)
	args := stageClause(&qb, []interface{}{tournamentID}, filter)

	result, err := r.getExecutor(exec).ExecContext(ctx, qb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches of tournament %d: %w", tournamentID, err)
	}
	return result.RowsAffected()
}
