package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/playperu/spottheball/internal/lifecycle"
)

// CompetitionRequest is the body for creating or updating a competition.
// On update, absent fields are left unchanged.
type CompetitionRequest struct {
	Title            *string          `json:"title"`
	ImageURL         *string          `json:"imageUrl"`
	MaxEntries       *int             `json:"maxEntries"`
	PricePerTicket   *decimal.Decimal `json:"pricePerTicket"`
	MarkersPerTicket *int             `json:"markersPerTicket"`
	InvitePassword   *string          `json:"invitePassword"`
	EndsAt           *time.Time       `json:"endsAt"`
}

func (req CompetitionRequest) input() lifecycle.CompetitionInput {
	in := lifecycle.CompetitionInput{EndsAt: req.EndsAt}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.ImageURL != nil {
		in.ImageURL = *req.ImageURL
	}
	if req.MaxEntries != nil {
		in.MaxEntries = *req.MaxEntries
	}
	if req.PricePerTicket != nil {
		in.PricePerTicket = *req.PricePerTicket
	}
	if req.MarkersPerTicket != nil {
		in.MarkersPerTicket = *req.MarkersPerTicket
	}
	if req.InvitePassword != nil {
		in.InvitePassword = *req.InvitePassword
	}
	return in
}

func (req CompetitionRequest) update() lifecycle.CompetitionUpdate {
	return lifecycle.CompetitionUpdate{
		Title:            req.Title,
		ImageURL:         req.ImageURL,
		MaxEntries:       req.MaxEntries,
		PricePerTicket:   req.PricePerTicket,
		MarkersPerTicket: req.MarkersPerTicket,
		InvitePassword:   req.InvitePassword,
		EndsAt:           req.EndsAt,
	}
}

func handleAdminListCompetitions(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListCompetitions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]CompetitionResponse, 0, len(list))
		for _, c := range list {
			remaining, err := svc.RemainingSlots(r.Context(), c)
			if err != nil {
				writeError(w, err)
				return
			}
			out = append(out, competitionView(c, remaining))
		}
		writeData(w, http.StatusOK, out)
	}
}

func handleAdminCreateCompetition(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompetitionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		c, err := svc.CreateCompetition(r.Context(), req.input())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusCreated, competitionView(c, c.MaxEntries))
	}
}

func handleAdminGetCompetition(svc *lifecycle.Service) http.HandlerFunc {
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
		writeData(w, http.StatusOK, competitionView(c, remaining))
	}
}

func handleAdminUpdateCompetition(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompetitionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		c, err := svc.UpdateCompetition(r.Context(), chi.URLParam(r, "id"), req.update())
		if err != nil {
			writeError(w, err)
			return
		}
		remaining, err := svc.RemainingSlots(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, competitionView(c, remaining))
	}
}

func handleAdminCloseCompetition(svc *lifecycle.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.CloseCompetition(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		remaining, err := svc.RemainingSlots(r.Context(), c)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, competitionView(c, remaining))
	}
}
