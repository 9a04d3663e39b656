package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/spottheball/internal/handler/health"
	"github.com/playperu/spottheball/internal/token"
)

func addRoutes(r chi.Router, d Deps) {
	fail := func(w http.ResponseWriter, _ *http.Request, err error) { writeError(w, err) }
	requireAdmin := d.Gateway.Require(token.KindAdmin, fail)
	requireCompetition := d.Gateway.Require(token.KindCompetitionAccess, fail)
	requireParticipant := d.Gateway.Require(token.KindParticipantAccess, fail)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Spot the Ball API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(d.Logger, d.Checks).Routes())
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Post("/admin/login", handleAdminLogin(d.Access))

	// Admin competition management, requires an admin token.
	r.Route("/admin/competitions", func(r chi.Router) {
		r.Use(sseTokenFromQuery)
		r.Use(requireAdmin)

		r.Get("/", handleAdminListCompetitions(d.Lifecycle))
		r.Post("/", handleAdminCreateCompetition(d.Lifecycle))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handleAdminGetCompetition(d.Lifecycle))
			r.Patch("/", handleAdminUpdateCompetition(d.Lifecycle))
			r.Post("/close", handleAdminCloseCompetition(d.Lifecycle))

			r.Get("/participants", handleAdminListParticipants(d.Lifecycle))
			r.Post("/participants", handleAdminRegisterParticipant(d.Lifecycle))
			r.Delete("/participants/{participantID}", handleAdminDeleteParticipant(d.Lifecycle))
			r.Post("/assign-tickets", handleAdminAssignTickets(d.Lifecycle))

			r.Patch("/final-result", handleAdminSetFinalResult(d.Lifecycle))
			r.Post("/compute-winner", handleAdminComputeWinner(d.Winners))
			r.Get("/winners", handleAdminGetWinners(d.Winners))
			r.Post("/lock-result", handleAdminLockResult(d.Lifecycle, d.Winners))
			r.Get("/export", handleAdminExport(d.Winners, d.Logger))
			r.Get("/events", handleEvents(d.Lifecycle, d.Broker))
		})
	})

	// Participant-facing routes, scoped to the competition in the path.
	r.Route("/competitions/{id}", func(r chi.Router) {
		r.Post("/verify-password", handleVerifyPassword(d.Access))
		r.With(requireCompetition).Get("/", handlePublicCompetition(d.Lifecycle))
		r.With(requireCompetition).Post("/participants/authenticate", handleAuthenticateParticipant(d.Access))
		r.With(requireParticipant).Get("/entries", handleGetEntries(d.Lifecycle))
		r.With(requireParticipant).Post("/entries", handleSubmitEntries(d.Lifecycle))
	})
}
