package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/spottheball/internal/access"
	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/authz"
	"github.com/playperu/spottheball/internal/lifecycle"
)

// VerifyPasswordRequest is the body for POST /competitions/{id}/verify-password.
type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

// AuthenticateRequest is the body for POST /competitions/{id}/participants/authenticate.
type AuthenticateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type AuthenticateResponse struct {
	access.Grant
	Participant ParticipantResponse `json:"participant"`
}

// EntriesRequest is the body for POST /competitions/{id}/entries.
type EntriesRequest struct {
	Tickets []TicketEntry `json:"tickets"`
}

type TicketEntry struct {
	TicketID string        `json:"ticketId"`
	Markers  []MarkerEntry `json:"markers"`
}

type MarkerEntry struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Label string   `json:"label"`
}

func (req EntriesRequest) input() lifecycle.SubmitMarkersInput {
	in := lifecycle.SubmitMarkersInput{Tickets: make([]lifecycle.TicketMarkers, len(req.Tickets))}
	for i, t := range req.Tickets {
		tm := lifecycle.TicketMarkers{TicketID: t.TicketID, Markers: make([]lifecycle.MarkerInput, len(t.Markers))}
		for j, m := range t.Markers {
			tm.Markers[j] = lifecycle.MarkerInput{X: coordinate(m.X), Y: coordinate(m.Y), Label: m.Label}
		}
		in.Tickets[i] = tm
	}
	return in
}

func handleVerifyPassword(svc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyPasswordRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		grant, err := svc.VerifyCompetitionPassword(r.Context(), chi.URLParam(r, "id"), req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, grant)
	}
}

func handlePublicCompetition(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetCompetition(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		remaining, err := svc.RemainingSlots(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, publicCompetitionView(c, remaining, time.Now()))
	}
}

func handleAuthenticateParticipant(svc *access.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AuthenticateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		grant, p, err := svc.AuthenticateParticipant(r.Context(), chi.URLParam(r, "id"), req.Name, req.Phone)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, AuthenticateResponse{Grant: grant, Participant: participantView(p)})
	}
}

func handleGetEntries(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authz.ClaimsFrom(r.Context())
		if !ok {
			writeError(w, apperr.Unauthenticated(apperr.CodeUnauthenticated, "missing participant token"))
			return
		}

		p, err := svc.Participant(r.Context(), claims.CompetitionID, claims.ParticipantID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, participantView(p))
	}
}

func handleSubmitEntries(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authz.ClaimsFrom(r.Context())
		if !ok {
			writeError(w, apperr.Unauthenticated(apperr.CodeUnauthenticated, "missing participant token"))
			return
		}

		var req EntriesRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.SubmitMarkers(r.Context(), claims.CompetitionID, claims.ParticipantID, req.input())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, participantView(p))
	}
}
