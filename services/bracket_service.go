package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

// BracketRound is one knockout round with its matches in bracket order.
type BracketRound struct {
	Round   int               `json:"round"`
	Stage   models.MatchStage `json:"stage"`
	Matches []models.Match    `json:"matches"`
}

type BracketView struct {
	TournamentID int            `json:"tournament_id"`
	Rounds       []BracketRound `json:"rounds"`
	ThirdPlace   *models.Match  `json:"third_place,omitempty"`
}

type BracketService interface {
	// GenerateKnockout seeds the qualifiers and replaces every knockout match
	// of the tournament with a new single-elimination bracket.
	GenerateKnockout(ctx context.Context, tournamentID int) (*GenerationResult, error)
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type bracketService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	tx             repositories.Transactor
	notifier       Notifier
	snapshots      SnapshotPublisher
	logger         *slog.Logger
	now            func() time.Time
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	tx repositories.Transactor,
	notifier Notifier,
	snapshots SnapshotPublisher,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		tx:             tx,
		notifier:       notifierOrNoop(notifier),
		snapshots:      snapshotsOrNoop(snapshots),
		logger:         logger,
		now:            time.Now,
	}
}

func (s *bracketService) GenerateKnockout(ctx context.Context, tournamentID int) (*GenerationResult, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get tournament %d", tournamentID), err)
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapError("list teams", err)
	}

	var qualifiers []models.Qualifier
	var firstStart time.Time
	switch t.Type {
	case models.TypeKnockout:
		qualifiers = knockoutEntrants(teams)
		firstStart, err = dayStart(t.StartDate, t.Schedule)
	case models.TypeGroupsKnockout:
		if !t.GroupStageComplete {
			return nil, validationError(ErrGroupStageIncomplete, "tournament %d", tournamentID)
		}
		if err := requireGroupConfig(t); err != nil {
			return nil, err
		}
		qualifiers = brackets.Qualifiers(brackets.GroupStandings(teams), t.TeamsAdvancingPerGroup)
		var groupMatches []models.Match
		groupMatches, err = s.matchRepo.ListByTournament(ctx, nil, tournamentID, groupStages)
		if err != nil {
			return nil, wrapError("list group matches", err)
		}
		firstStart, err = knockoutStart(t, groupMatches, s.now())
	default:
		return nil, validationError(ErrWrongTournamentType, "tournament %d of type %s has no knockout stage", tournamentID, t.Type)
	}
	if err != nil {
		return nil, validationError(ErrInvalidScheduleConfig, "%v", err)
	}

	bracket, err := brackets.BuildKnockout(brackets.KnockoutParams{
		Seeds:      brackets.SeedQualifiers(qualifiers),
		ThirdPlace: t.HasThirdPlaceMatch,
	})
	if err != nil {
		return nil, wrapError("build knockout bracket", err)
	}
	brackets.ScheduleKnockout(bracket.Matches, firstStart, t.Schedule)

	result := &GenerationResult{
		TournamentID: tournamentID,
		BracketSize:  bracket.Size,
		Byes:         bracket.Byes,
		Qualifiers:   qualifiers,
	}
	err = s.tx.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		deleted, stored, txErr := replaceMatches(ctx, exec, s.matchRepo, tournamentID, knockoutStages, bracket.Matches)
		if txErr != nil {
			return txErr
		}
		result.Deleted, result.Matches = deleted, stored
		return s.tournamentRepo.UpdateStage(ctx, exec, tournamentID, models.StageKnockoutStage, t.GroupStageComplete)
	})
	if err != nil {
		return nil, wrapError(fmt.Sprintf("store knockout bracket of tournament %d", tournamentID), err)
	}

	s.logger.InfoContext(ctx, "knockout bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("qualifiers", len(qualifiers)),
		slog.Int("bracket_size", bracket.Size),
		slog.Int("byes", bracket.Byes),
		slog.Int("matches", len(result.Matches)),
		slog.Int64("deleted", result.Deleted),
	)
	s.notifier.Publish(tournamentID, brackets.EventBracketUpdated, result.Matches)
	s.snapshots.PublishFixtures(ctx, tournamentID, result.Matches)
	return result, nil
}

// knockoutEntrants treats every team as the winner of its own group, so
// seeding follows the overall table and no same-group rule applies.
func knockoutEntrants(teams []models.Team) []models.Qualifier {
	ranked := make([]models.Team, len(teams))
	copy(ranked, teams)
	brackets.RankTeams(ranked)
	out := make([]models.Qualifier, len(ranked))
	for i, t := range ranked {
		out[i] = models.Qualifier{Team: t, GroupNumber: i + 1, Position: 1}
	}
	return out
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
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
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, tournamentID, knockoutStages)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapError(fmt.Sprintf("load bracket of tournament %d", tournamentID), err)
	}

	attachTeams(matches, teams)
	inZone(matches, t.Schedule.WithDefaults().Location())
	return buildBracketView(tournamentID, matches), nil
}

func buildBracketView(tournamentID int, matches []models.Match) *BracketView {
	view := &BracketView{TournamentID: tournamentID, Rounds: []BracketRound{}}
	byRound := map[int]*BracketRound{}
	for i := range matches {
		m := matches[i]
		if m.Stage == models.MatchStageThirdPlace {
			view.ThirdPlace = &m
			continue
		}
		r, ok := byRound[m.Round]
		if !ok {
			r = &BracketRound{Round: m.Round, Stage: m.Stage}
			byRound[m.Round] = r
		}
		r.Matches = append(r.Matches, m)
	}

	for _, r := range byRound {
		sort.SliceStable(r.Matches, func(i, j int) bool {
			return position(r.Matches[i]) < position(r.Matches[j])
		})
		view.Rounds = append(view.Rounds, *r)
	}
	sort.Slice(view.Rounds, func(i, j int) bool { return view.Rounds[i].Round < view.Rounds[j].Round })
	return view
}

func position(m models.Match) int {
	if m.BracketPosition == nil {
		return 0
	}
	return *m.BracketPosition
}
