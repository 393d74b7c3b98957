package routes

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/haithamlamki/sssppprt-sub000/handlers"
)

// Services are left nil: every request here must stop before reaching one.
func testRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	SetupRoutes(r, Handlers{
		Tournament: handlers.NewTournamentHandler(nil, nil),
		Team:       handlers.NewTeamHandler(nil),
		Match:      handlers.NewMatchHandler(nil),
		Group:      handlers.NewGroupHandler(nil),
		Bracket:    handlers.NewBracketHandler(nil),
		WebSocket:  handlers.NewWebSocketHandler(nil, nil, []string{"*"}, logger),
	}, Options{JWTSecret: "secret", AllowedOrigins: []string{"*"}, Logger: logger})
	return r
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := testRouter()
	adminRoutes := []struct{ method, path string }{
		{http.MethodPost, "/tournaments"},
		{http.MethodPatch, "/tournaments/1"},
		{http.MethodPost, "/tournaments/1/teams"},
		{http.MethodPatch, "/teams/3"},
		{http.MethodPost, "/tournaments/1/schedule"},
		{http.MethodPost, "/tournaments/1/groups/assign"},
		{http.MethodPost, "/tournaments/1/groups/matches"},
		{http.MethodPost, "/tournaments/1/groups/complete"},
		{http.MethodPost, "/tournaments/1/bracket"},
		{http.MethodPost, "/tournaments/1/matches"},
		{http.MethodDelete, "/tournaments/1/matches?stage=group"},
		{http.MethodPatch, "/matches/4"},
		{http.MethodPost, "/tournaments/1/standings/recalculate"},
	}
	for _, rt := range adminRoutes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestPublicRoutesRejectBadIDs(t *testing.T) {
	router := testRouter()
	for _, path := range []string{
		"/tournaments/x",
		"/tournaments/x/teams",
		"/tournaments/x/matches",
		"/tournaments/x/groups/standings",
		"/tournaments/x/bracket",
		"/teams/x",
		"/matches/x",
		"/ws/tournaments/x",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health: status = %d", rec.Code)
	}
}
