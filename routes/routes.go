package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/haithamlamki/sssppprt-sub000/handlers"
	"github.com/haithamlamki/sssppprt-sub000/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Tournament *handlers.TournamentHandler
	Team       *handlers.TeamHandler
	Match      *handlers.MatchHandler
	Group      *handlers.GroupHandler
	Bracket    *handlers.BracketHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// The websocket route must not be wrapped by Timeout.
	r.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.Tournament.GetByIDHandler)
				r.Get("/teams", h.Team.ListByTournamentHandler)
				r.Get("/matches", h.Match.ListByTournamentHandler)
				r.Get("/groups/standings", h.Group.StandingsHandler)
				r.Get("/bracket", h.Bracket.GetHandler)

				r.Group(func(r chi.Router) {
					adminOnly(r, opts)

					r.Patch("/", h.Tournament.UpdateHandler)
					r.Post("/teams", h.Team.CreateHandler)
					r.Post("/schedule", h.Tournament.GenerateScheduleHandler)
					r.Post("/groups/assign", h.Group.AssignHandler)
					r.Post("/groups/matches", h.Group.GenerateMatchesHandler)
					r.Post("/groups/complete", h.Group.CompleteHandler)
					r.Post("/bracket", h.Bracket.GenerateHandler)
					r.Post("/matches", h.Match.CreateHandler)
					r.Delete("/matches", h.Match.DeleteHandler)
					r.Post("/standings/recalculate", h.Tournament.RecalculateStandingsHandler)
				})
			})

			r.Group(func(r chi.Router) {
				adminOnly(r, opts)
				r.Post("/", h.Tournament.CreateHandler)
			})
		})

		r.Route("/teams/{teamID}", func(r chi.Router) {
			r.Get("/", h.Team.GetByIDHandler)
			r.Group(func(r chi.Router) {
				adminOnly(r, opts)
				r.Patch("/", h.Team.UpdateHandler)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Match.GetByIDHandler)
			r.Group(func(r chi.Router) {
				adminOnly(r, opts)
				r.Patch("/", h.Match.UpdateHandler)
			})
		})
	})
}

func adminOnly(r chi.Router, opts Options) {
	r.Use(middleware.Authenticate(opts.JWTSecret))
	r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOrganizer))
	r.Use(middleware.AuditAdmin(opts.Logger))
}
