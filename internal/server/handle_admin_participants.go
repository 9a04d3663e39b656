package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/spottheball/internal/lifecycle"
)

// ParticipantRequest is the body for registering a participant.
type ParticipantRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// AssignTicketsRequest is the body for POST /admin/competitions/{id}/assign-tickets.
type AssignTicketsRequest struct {
	ParticipantID string `json:"participantId"`
	Count         int    `json:"count"`
}

type AssignTicketsResponse struct {
	Tickets        []TicketResponse `json:"tickets"`
	RemainingSlots int              `json:"remainingSlots"`
}

func handleAdminListParticipants(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListParticipants(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]ParticipantResponse, 0, len(list))
		for _, p := range list {
			out = append(out, participantView(p))
		}
		writeData(w, http.StatusOK, out)
	}
}

func handleAdminRegisterParticipant(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ParticipantRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.RegisterParticipant(r.Context(), chi.URLParam(r, "id"), lifecycle.ParticipantInput{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, participantView(p))
	}
}

func handleAdminDeleteParticipant(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.DeleteParticipant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "participantID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, nil)
	}
}

func handleAdminAssignTickets(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignTicketsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		res, err := svc.AssignTickets(r.Context(), chi.URLParam(r, "id"), lifecycle.AssignTicketsInput{
			ParticipantID: req.ParticipantID,
			Count:         req.Count,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, AssignTicketsResponse{
			Tickets:        ticketViews(res.Tickets),
			RemainingSlots: res.RemainingSlots,
		})
	}
}
