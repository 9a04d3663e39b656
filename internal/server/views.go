package server

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/playperu/spottheball/internal/spotball"
)

// CompetitionResponse is the admin view of a competition.
type CompetitionResponse struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	ImageURL         string          `json:"imageUrl"`
	MaxEntries       int             `json:"maxEntries"`
	RemainingSlots   int             `json:"remainingSlots"`
	PricePerTicket   decimal.Decimal `json:"pricePerTicket"`
	MarkersPerTicket int             `json:"markersPerTicket"`
	Status           string          `json:"status"`
	FinalJudge       *spotball.Point `json:"finalJudge,omitempty"`
	EndsAt           *time.Time      `json:"endsAt,omitempty"`
	ResultsLockedAt  *time.Time      `json:"resultsLockedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// PublicCompetitionResponse is what a holder of a competition_access token sees.
type PublicCompetitionResponse struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	ImageURL         string          `json:"imageUrl"`
	PricePerTicket   decimal.Decimal `json:"pricePerTicket"`
	MarkersPerTicket int             `json:"markersPerTicket"`
	RemainingSlots   int             `json:"remainingSlots"`
	Status           string          `json:"status"`
	AcceptsEntries   bool            `json:"acceptsEntries"`
	EndsAt           *time.Time      `json:"endsAt,omitempty"`
}

type ParticipantResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email,omitempty"`
	EntryComplete bool             `json:"entryComplete"`
	Tickets       []TicketResponse `json:"tickets"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type TicketResponse struct {
	ID             string           `json:"id"`
	TicketNumber   int              `json:"ticketNumber"`
	Status         string           `json:"status"`
	MarkersAllowed int              `json:"markersAllowed"`
	MarkersUsed    int              `json:"markersUsed"`
	Markers        []MarkerResponse `json:"markers"`
	SubmittedAt    *time.Time       `json:"submittedAt,omitempty"`
}

type MarkerResponse struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

func competitionView(c spotball.Competition, remaining int) CompetitionResponse {
	return CompetitionResponse{
		ID:               c.ID,
		Title:            c.Title,
		ImageURL:         c.ImageURL,
		MaxEntries:       c.MaxEntries,
		RemainingSlots:   remaining,
		PricePerTicket:   c.PricePerTicket,
		MarkersPerTicket: c.MarkersPerTicket,
		Status:           string(c.Status),
		FinalJudge:       c.FinalJudge,
		EndsAt:           c.EndsAt,
		ResultsLockedAt:  c.ResultsLockedAt,
		CreatedAt:        c.CreatedAt,
	}
}

func publicCompetitionView(c spotball.Competition, remaining int, now time.Time) PublicCompetitionResponse {
	return PublicCompetitionResponse{
		ID:               c.ID,
		Title:            c.Title,
		ImageURL:         c.ImageURL,
		PricePerTicket:   c.PricePerTicket,
		MarkersPerTicket: c.MarkersPerTicket,
		RemainingSlots:   remaining,
		Status:           string(c.Status),
		AcceptsEntries:   c.AcceptsEntries(now),
		EndsAt:           c.EndsAt,
	}
}

func participantView(p spotball.Participant) ParticipantResponse {
	out := ParticipantResponse{
		ID:            p.ID,
		Name:          p.Name,
		Phone:         p.Phone,
		Email:         p.Email,
		EntryComplete: p.EntryComplete(),
		Tickets:       ticketViews(p.Tickets),
		CreatedAt:     p.CreatedAt,
	}
	return out
}

func ticketViews(tickets []spotball.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		tr := TicketResponse{
			ID:             t.ID,
			TicketNumber:   t.TicketNumber,
			Status:         string(t.Status),
			MarkersAllowed: t.MarkersAllowed,
			MarkersUsed:    t.MarkersUsed,
			Markers:        make([]MarkerResponse, 0, len(t.Markers)),
			SubmittedAt:    t.SubmittedAt,
		}
		for _, m := range t.Markers {
			tr.Markers = append(tr.Markers, MarkerResponse{ID: m.ID, X: m.X, Y: m.Y, Label: m.Label})
		}
		out = append(out, tr)
	}
	return out
}
