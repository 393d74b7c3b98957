package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore backs the in-memory repositories. Values are copied in and out so
// services cannot mutate stored rows behind the repository's back.
type memStore struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]models.Tournament
	teams       map[int]models.Team
	matches     map[int]models.Match
	failSlots   map[int]bool
}

func newMemStore() *memStore {
	return &memStore{
		tournaments: map[int]models.Tournament{},
		teams:       map[int]models.Team{},
		matches:     map[int]models.Match{},
		failSlots:   map[int]bool{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

type memTournamentRepo struct{ s *memStore }

func (r memTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id()
	t.CreatedAt = time.Now()
	r.s.tournaments[t.ID] = *t
	return nil
}

func (r memTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r memTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Tournament{}
	for _, t := range r.s.tournaments {
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.s.tournaments[t.ID] = *t
	return nil
}

func (r memTournamentRepo) UpdateStage(_ context.Context, _ repositories.SQLExecutor, id int, stage models.TournamentStage, groupStageComplete bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentStage, t.GroupStageComplete = stage, groupStageComplete
	r.s.tournaments[id] = t
	return nil
}

type memTeamRepo struct{ s *memStore }

func (r memTeamRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Team{}
	for _, t := range r.s.teams {
		if t.TournamentID != nil && *t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r memTeamRepo) ListByIDs(_ context.Context, ids []int) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Team{}
	for _, id := range ids {
		if t, ok := r.s.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (r memTeamRepo) Create(_ context.Context, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.teams {
		if other.Name == t.Name && other.TournamentID != nil && t.TournamentID != nil && *other.TournamentID == *t.TournamentID {
			return repositories.ErrDuplicate
		}
	}
	t.ID = r.s.id()
	r.s.teams[t.ID] = *t
	return nil
}

func (r memTeamRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.teams[t.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	stored.Name, stored.TournamentID, stored.GroupNumber = t.Name, t.TournamentID, t.GroupNumber
	r.s.teams[t.ID] = stored
	return nil
}

func (r memTeamRepo) UpdateGroups(_ context.Context, _ repositories.SQLExecutor, groups map[int]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, g := range groups {
		t, ok := r.s.teams[id]
		if !ok {
			return repositories.ErrTeamNotFound
		}
		t.GroupNumber = models.IntPtr(g)
		r.s.teams[id] = t
	}
	return nil
}

func (r memTeamRepo) UpdateRecords(_ context.Context, _ repositories.SQLExecutor, teams []models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range teams {
		stored, ok := r.s.teams[t.ID]
		if !ok {
			return repositories.ErrTeamNotFound
		}
		stored.Played, stored.Won, stored.Drawn, stored.Lost = t.Played, t.Won, t.Drawn, t.Lost
		stored.GoalsFor, stored.GoalsAgainst, stored.GoalDifference, stored.Points = t.GoalsFor, t.GoalsAgainst, t.GoalDifference, t.Points
		r.s.teams[t.ID] = stored
	}
	return nil
}

type memMatchRepo struct{ s *memStore }

func matchesFilter(m models.Match, f repositories.StageFilter) bool {
	if len(f.Stages) == 0 {
		return true
	}
	in := false
	for _, st := range f.Stages {
		if m.Stage == st {
			in = true
		}
	}
	return in != f.Exclude
}

func (r memMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	r.s.matches[m.ID] = *m
	return nil
}

func (r memMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r memMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, filter repositories.StageFilter) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Match{}
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && matchesFilter(m, filter) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.s.matches[m.ID] = *m
	return nil
}

var errSlotWriteFailed = errors.New("slot write failed")

func (r memMatchRepo) UpdateTeamSlot(_ context.Context, _ repositories.SQLExecutor, matchID int, home bool, teamID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSlots[matchID] {
		return errSlotWriteFailed
	}
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if home {
		m.HomeTeamID = models.IntPtr(teamID)
	} else {
		m.AwayTeamID = models.IntPtr(teamID)
	}
	r.s.matches[matchID] = m
	return nil
}

func (r memMatchRepo) DeleteByStages(_ context.Context, _ repositories.SQLExecutor, tournamentID int, filter repositories.StageFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.matches {
		if m.TournamentID == tournamentID && matchesFilter(m, filter) {
			delete(r.s.matches, id)
			n++
		}
	}
	return n, nil
}

// passThroughTx runs fn directly. With failAfter set it returns that error
// after fn succeeds, which lets tests check the caller's error path.
type passThroughTx struct {
	failAfter error
}

func (p passThroughTx) WithinTransaction(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return p.failAfter
}

type recordedEvent struct {
	TournamentID int
	Type         string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Publish(tournamentID int, eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{TournamentID: tournamentID, Type: eventType})
}

func (n *recordingNotifier) has(eventType string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

type recordingSnapshots struct {
	mu        sync.Mutex
	published map[int]int
}

func (r *recordingSnapshots) PublishFixtures(_ context.Context, tournamentID int, matches []models.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.published == nil {
		r.published = map[int]int{}
	}
	r.published[tournamentID] = len(matches)
}

// fixture wires every service over one store.
type fixture struct {
	store       *memStore
	notifier    *recordingNotifier
	snapshots   *recordingSnapshots
	tournaments TournamentService
	teams       TeamService
	groups      GroupService
	brackets    BracketService
	matches     MatchService
	standings   StandingsService
}

func newFixture() *fixture {
	store := newMemStore()
	tr, tm, mr := memTournamentRepo{store}, memTeamRepo{store}, memMatchRepo{store}
	tx := passThroughTx{}
	n := &recordingNotifier{}
	snaps := &recordingSnapshots{}
	logger := discardLogger()
	return &fixture{
		store:       store,
		notifier:    n,
		snapshots:   snaps,
		tournaments: NewTournamentService(tr, tm, mr, tx, n, snaps, logger),
		teams:       NewTeamService(tr, tm, logger),
		groups:      NewGroupService(tr, tm, mr, tx, n, snaps, nil, logger),
		brackets:    NewBracketService(tr, tm, mr, tx, n, snaps, logger),
		matches:     NewMatchService(tr, tm, mr, tx, n, logger),
		standings:   NewStandingsService(tr, tm, mr, tx, n, logger),
	}
}

var testStart = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func (f *fixture) tournament(typ models.TournamentType, mutate func(*CreateTournamentInput)) *models.Tournament {
	in := CreateTournamentInput{
		Name:      "Company Cup",
		Type:      typ,
		StartDate: testStart,
	}
	if typ.HasGroups() {
		in.NumberOfGroups = 3
		in.TeamsAdvancingPerGroup = 2
	}
	if mutate != nil {
		mutate(&in)
	}
	t, err := f.tournaments.Create(context.Background(), in)
	if err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) addTeams(tournamentID int, names ...string) []models.Team {
	out := make([]models.Team, 0, len(names))
	for _, name := range names {
		team, err := f.teams.Create(context.Background(), tournamentID, CreateTeamInput{Name: name})
		if err != nil {
			panic(err)
		}
		out = append(out, *team)
	}
	return out
}

func (f *fixture) storedTournament(id int) models.Tournament {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.tournaments[id]
}

func (f *fixture) storedMatch(id int) models.Match {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.matches[id]
}

func statusPtr(s models.MatchStatus) *models.MatchStatus { return &s }
