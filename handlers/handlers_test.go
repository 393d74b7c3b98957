package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/haithamlamki/sssppprt-sub000/brackets"
	"github.com/haithamlamki/sssppprt-sub000/models"
	"github.com/haithamlamki/sssppprt-sub000/repositories"
	"github.com/haithamlamki/sssppprt-sub000/services"
)

type stubMatchService struct {
	services.MatchService
	lastFilter repositories.StageFilter
	lastUpdate brackets.MatchUpdate
	updateErr  error
	matches    []models.Match
}

func (s *stubMatchService) ListMatches(_ context.Context, _ int, filter repositories.StageFilter) ([]models.Match, error) {
	s.lastFilter = filter
	return s.matches, nil
}

func (s *stubMatchService) GetMatch(_ context.Context, id int) (*models.Match, error) {
	for i := range s.matches {
		if s.matches[i].ID == id {
			return &s.matches[i], nil
		}
	}
	return nil, fmt.Errorf("%w: get match %d: %w", services.ErrNotFound, id, repositories.ErrMatchNotFound)
}

func (s *stubMatchService) UpdateMatch(_ context.Context, id int, update brackets.MatchUpdate) (*services.UpdateMatchResult, error) {
	s.lastUpdate = update
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &services.UpdateMatchResult{Match: models.Match{ID: id, Status: models.StatusCompleted}}, nil
}

func (s *stubMatchService) DeleteMatches(_ context.Context, _ int, filter repositories.StageFilter) (int64, error) {
	s.lastFilter = filter
	return 3, nil
}

func matchRouter(svc services.MatchService) http.Handler {
	h := NewMatchHandler(svc)
	r := chi.NewRouter()
	r.Get("/tournaments/{tournamentID}/matches", h.ListByTournamentHandler)
	r.Delete("/tournaments/{tournamentID}/matches", h.DeleteHandler)
	r.Get("/matches/{matchID}", h.GetByIDHandler)
	r.Patch("/matches/{matchID}", h.UpdateHandler)
	return r
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: get team 4", services.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: venue", services.ErrConflict), http.StatusConflict},
		{"validation", fmt.Errorf("%w: name", services.ErrValidationFailed), http.StatusUnprocessableEntity},
		{"incomplete", fmt.Errorf("%w: tie", services.ErrIncompleteResult), http.StatusUnprocessableEntity},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == nil {
				t.Errorf("expected JSON error body, got %q", rec.Body.String())
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "connection refused") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}

func TestListMatchesStageFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		stages  int
		exclude bool
	}{
		{"no filter", "", http.StatusOK, 0, false},
		{"comma list", "?stage=group,league", http.StatusOK, 2, false},
		{"repeated", "?stage=final&stage=semi_final&exclude=true", http.StatusOK, 2, true},
		{"round of", "?stage=round_of_32", http.StatusOK, 1, false},
		{"unknown stage", "?stage=playoffs", http.StatusBadRequest, 0, false},
		{"bad exclude", "?stage=group&exclude=maybe", http.StatusBadRequest, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubMatchService{}
			rec := httptest.NewRecorder()
			matchRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/1/matches"+tt.query, nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			if len(svc.lastFilter.Stages) != tt.stages || svc.lastFilter.Exclude != tt.exclude {
				t.Errorf("filter = %+v", svc.lastFilter)
			}
			if !strings.Contains(rec.Body.String(), `"matches": []`) {
				t.Errorf("empty list should encode as [], got %s", rec.Body.String())
			}
		})
	}
}

func TestGetMatchHandler(t *testing.T) {
	svc := &stubMatchService{matches: []models.Match{{ID: 5, Stage: models.MatchStageFinal}}}
	router := matchRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches/5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Match models.Match `json:"match"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Match.ID != 5 || body.Match.Stage != models.MatchStageFinal {
		t.Errorf("match = %+v", body.Match)
	}

	for path, want := range map[string]int{"/matches/6": http.StatusNotFound, "/matches/abc": http.StatusBadRequest, "/matches/0": http.StatusBadRequest} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, want)
		}
	}
}

func TestUpdateMatchHandler(t *testing.T) {
	svc := &stubMatchService{}
	router := matchRouter(svc)

	body := `{"status":"completed","home_score":2,"away_score":1}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/matches/9", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastUpdate.Status == nil || *svc.lastUpdate.Status != models.StatusCompleted {
		t.Errorf("status not decoded: %+v", svc.lastUpdate)
	}
	if svc.lastUpdate.HomeScore == nil || *svc.lastUpdate.HomeScore != 2 {
		t.Errorf("home score not decoded: %+v", svc.lastUpdate)
	}

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"unknown field", `{"score":1}`, nil, http.StatusBadRequest},
		{"empty body", ``, nil, http.StatusBadRequest},
		{"two values", `{} {}`, nil, http.StatusBadRequest},
		{"tie in knockout", `{"status":"completed"}`, fmt.Errorf("%w: %w", services.ErrIncompleteResult, brackets.ErrPenaltyWinnerRequired), http.StatusUnprocessableEntity},
		{"venue taken", `{"venue":"Main Pitch"}`, fmt.Errorf("%w: %w", services.ErrConflict, brackets.ErrVenueOverlap), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubMatchService{updateErr: tt.err}
			rec := httptest.NewRecorder()
			matchRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/matches/9", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteMatchesHandler(t *testing.T) {
	svc := &stubMatchService{}
	rec := httptest.NewRecorder()
	matchRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tournaments/2/matches?stage=group,league&exclude=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !svc.lastFilter.Exclude || len(svc.lastFilter.Stages) != 2 {
		t.Errorf("filter = %+v", svc.lastFilter)
	}
	if !strings.Contains(rec.Body.String(), `"deleted": 3`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://portal.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/ws/tournaments/1", nil)
	if !check(req) {
		t.Error("requests without Origin must be accepted")
	}
	req.Header.Set("Origin", "https://portal.example.com")
	if !check(req) {
		t.Error("listed origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Error("unlisted origin accepted")
	}
	req.Header.Set("Origin", "https://anything.example.com")
	if !originChecker([]string{"*"})(req) {
		t.Error("wildcard should accept every origin")
	}
}
