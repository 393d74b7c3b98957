package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
)

func TestTournamentServiceCreateDefaults(t *testing.T) {
	f := newFixture()
	tour := f.tournament(models.TypeRoundRobin, nil)

	if tour.ID == 0 {
		t.Fatal("expected an ID to be assigned")
	}
	if tour.PointsForWin != 3 || tour.PointsForDraw != 1 || tour.PointsForLoss != 0 {
		t.Errorf("points = %d/%d/%d, want 3/1/0", tour.PointsForWin, tour.PointsForDraw, tour.PointsForLoss)
	}
	if tour.CurrentStage != models.StageSetup {
		t.Errorf("stage = %s, want %s", tour.CurrentStage, models.StageSetup)
	}
}

func TestTournamentServiceCreateValidation(t *testing.T) {
	before := testStart.AddDate(0, 0, -1)
	tests := []struct {
		name   string
		input  CreateTournamentInput
		target error
	}{
		{"missing name", CreateTournamentInput{Type: models.TypeKnockout, StartDate: testStart}, ErrTournamentNameRequired},
		{"bad type", CreateTournamentInput{Name: "x", Type: "ladder", StartDate: testStart}, ErrTournamentInvalidType},
		{"no start", CreateTournamentInput{Name: "x", Type: models.TypeKnockout}, ErrTournamentInvalidDates},
		{"end before start", CreateTournamentInput{Name: "x", Type: models.TypeKnockout, StartDate: testStart, EndDate: &before}, ErrTournamentInvalidDates},
		{"draw worth a win", CreateTournamentInput{Name: "x", Type: models.TypeKnockout, StartDate: testStart, PointsForDraw: models.IntPtr(3)}, ErrInvalidPointValues},
		{"negative loss", CreateTournamentInput{Name: "x", Type: models.TypeKnockout, StartDate: testStart, PointsForLoss: models.IntPtr(-1)}, ErrInvalidPointValues},
		{"points for a loss", CreateTournamentInput{Name: "x", Type: models.TypeKnockout, StartDate: testStart, PointsForLoss: models.IntPtr(1)}, ErrInvalidPointValues},
		{"groups without config", CreateTournamentInput{Name: "x", Type: models.TypeGroups, StartDate: testStart}, ErrGroupConfigMissing},
		{"bad start time", CreateTournamentInput{Name: "x", Type: models.TypeKnockout, StartDate: testStart, Schedule: models.ScheduleConfig{DailyStartTime: "25:00"}}, ErrInvalidScheduleConfig},
		{"duplicate venue", CreateTournamentInput{Name: "x", Type: models.TypeKnockout, StartDate: testStart, Schedule: models.ScheduleConfig{Venues: []models.Venue{{Name: "A"}, {Name: "A"}}}}, ErrInvalidScheduleConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.tournaments.Create(context.Background(), tt.input)
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("expected ErrValidationFailed, got %v", err)
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestTournamentServiceUpdatePartial(t *testing.T) {
	f := newFixture()
	tour := f.tournament(models.TypeRoundRobin, nil)

	name := "Spring League"
	updated, err := f.tournaments.Update(context.Background(), tour.ID, UpdateTournamentInput{
		Name:         &name,
		HasSecondLeg: func() *bool { b := true; return &b }(),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != name || !updated.HasSecondLeg {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.PointsForWin != 3 {
		t.Errorf("untouched field changed: win=%d", updated.PointsForWin)
	}

	win := 1
	if _, err := f.tournaments.Update(context.Background(), tour.ID, UpdateTournamentInput{PointsForWin: &win}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected validation error for win == draw, got %v", err)
	}
	if stored := f.storedTournament(tour.ID); stored.PointsForWin != 3 {
		t.Errorf("rejected update was stored: win=%d", stored.PointsForWin)
	}

	if _, err := f.tournaments.Update(context.Background(), 999, UpdateTournamentInput{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTournamentServiceList(t *testing.T) {
	f := newFixture()
	f.tournament(models.TypeRoundRobin, nil)
	f.tournament(models.TypeKnockout, nil)

	ko := models.TypeKnockout
	list, err := f.tournaments.List(context.Background(), repositories.ListTournamentsFilter{Type: &ko})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Type != models.TypeKnockout {
		t.Errorf("unexpected list: %+v", list)
	}
	if _, err := f.tournaments.List(context.Background(), repositories.ListTournamentsFilter{Limit: -1}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected validation error for negative limit, got %v", err)
	}
}

func TestGenerateLeagueSchedule(t *testing.T) {
	f := newFixture()
	tour := f.tournament(models.TypeRoundRobin, nil)
	f.addTeams(tour.ID, "A", "B", "C", "D")

	res, err := f.tournaments.GenerateLeagueSchedule(context.Background(), tour.ID)
	if err != nil {
		t.Fatalf("GenerateLeagueSchedule: %v", err)
	}
	if len(res.Matches) != 6 {
		t.Fatalf("matches = %d, want 6", len(res.Matches))
	}
	for i, m := range res.Matches {
		if m.Stage != models.MatchStageLeague || m.Status != models.StatusScheduled {
			t.Errorf("match %d: stage %s status %s", i, m.Stage, m.Status)
		}
		if m.MatchDate == nil || m.Venue == nil {
			t.Errorf("match %d is not scheduled", i)
		}
		if i > 0 && m.Round < res.Matches[i-1].Round {
			t.Errorf("rounds not in order at %d", i)
		}
	}
	// three per day on the default single venue
	firstDay := res.Matches[0].MatchDate.In(time.UTC)
	if firstDay.Hour() != 18 || firstDay.Minute() != 0 {
		t.Errorf("first match at %s, want 18:00", firstDay)
	}
	if d := res.Matches[3].MatchDate.Sub(*res.Matches[0].MatchDate); d != 24*time.Hour {
		t.Errorf("fourth match %s after the first, want next day", d)
	}

	if got := f.storedTournament(tour.ID).CurrentStage; got != models.StageLeague {
		t.Errorf("stage = %s, want league", got)
	}
	if !f.notifier.has(brackets.EventFixturesUpdated) {
		t.Error("expected a fixtures event")
	}
	if f.snapshots.published[tour.ID] != 6 {
		t.Errorf("snapshot not published: %v", f.snapshots.published)
	}

	again, err := f.tournaments.GenerateLeagueSchedule(context.Background(), tour.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if again.Deleted != 6 || len(again.Matches) != 6 {
		t.Errorf("regeneration deleted %d created %d, want 6/6", again.Deleted, len(again.Matches))
	}
}

func TestGenerateLeagueScheduleErrors(t *testing.T) {
	f := newFixture()
	ko := f.tournament(models.TypeKnockout, nil)
	f.addTeams(ko.ID, "A", "B")
	if _, err := f.tournaments.GenerateLeagueSchedule(context.Background(), ko.ID); !errors.Is(err, ErrWrongTournamentType) {
		t.Errorf("expected ErrWrongTournamentType, got %v", err)
	}

	rr := f.tournament(models.TypeRoundRobin, nil)
	f.addTeams(rr.ID, "Solo")
	_, err := f.tournaments.GenerateLeagueSchedule(context.Background(), rr.ID)
	if !errors.Is(err, ErrValidationFailed) || !errors.Is(err, brackets.ErrNotEnoughTeams) {
		t.Errorf("expected validation error wrapping ErrNotEnoughTeams, got %v", err)
	}

	if _, err := f.tournaments.GenerateLeagueSchedule(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateLeagueScheduleSurfacesTransactionError(t *testing.T) {
	store := newMemStore()
	tr, tm, mr := memTournamentRepo{store}, memTeamRepo{store}, memMatchRepo{store}
	failing := errors.New("commit failed")
	svc := NewTournamentService(tr, tm, mr, passThroughTx{failAfter: failing}, nil, nil, discardLogger())

	tour := &models.Tournament{Name: "L", Type: models.TypeRoundRobin, StartDate: testStart, PointsForWin: 3, PointsForDraw: 1}
	_ = tr.Create(context.Background(), tour)
	for _, n := range []string{"A", "B", "C"} {
		_ = tm.Create(context.Background(), &models.Team{Name: n, TournamentID: &tour.ID})
	}

	_, err := svc.GenerateLeagueSchedule(context.Background(), tour.ID)
	if !errors.Is(err, failing) {
		t.Fatalf("expected commit error to surface, got %v", err)
	}
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrNotFound) {
		t.Errorf("infrastructure error must not carry a kind: %v", err)
	}
}
