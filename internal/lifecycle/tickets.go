package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
)

type AssignResult struct {
	Tickets        []spotball.Ticket
	RemainingSlots int
}

// AssignTickets hands count new tickets to a participant. Each ticket copies
// the competition's current markersPerTicket.
func (s *Service) AssignTickets(ctx context.Context, competitionID string, in AssignTicketsInput) (_ AssignResult, err error) {
	defer s.observe("assign_tickets", &err)

	if err := in.Validate(); err != nil {
		return AssignResult{}, err
	}

	unlock := s.lock(competitionID)
	defer unlock()

	c, err := s.competition(ctx, competitionID)
	if err != nil {
		return AssignResult{}, err
	}
	if !c.AcceptsEntries(s.now()) {
		return AssignResult{}, apperr.Conflict(apperr.CodeCompetitionInactive, "competition %s no longer accepts entries", c.ID)
	}

	p, err := s.participant(ctx, competitionID, in.ParticipantID)
	if err != nil {
		return AssignResult{}, err
	}

	tickets, err := s.repo.ListTickets(ctx, competitionID)
	if err != nil {
		return AssignResult{}, fmt.Errorf("list tickets: %w", err)
	}
	remaining := max(c.MaxEntries-spotball.CountNotAvailable(tickets), 0)
	if in.Count > remaining {
		return AssignResult{}, apperr.Capacity(apperr.CodeSlotsExhausted,
			"requested %d tickets but only %d slots remaining", in.Count, remaining)
	}

	held := p.HeldTickets()
	if held+in.Count > s.maxPerP {
		return AssignResult{}, apperr.Capacity(apperr.CodeParticipantCap,
			"participant holds %d tickets; limit is %d per participant", held, s.maxPerP)
	}

	specs := make([]spotball.TicketSpec, in.Count)
	for i := range specs {
		specs[i] = spotball.TicketSpec{
			ParticipantID:  p.ID,
			Status:         spotball.TicketAssigned,
			MarkersAllowed: c.MarkersPerTicket,
		}
	}
	created, err := s.repo.CreateTickets(ctx, competitionID, specs)
	if err != nil {
		return AssignResult{}, fmt.Errorf("create tickets: %w", err)
	}

	s.metrics.TicketsAssigned(len(created))
	s.logger.Info("tickets assigned",
		"competition_id", competitionID,
		"participant_id", p.ID,
		"count", len(created),
		"first_ticket_number", created[0].TicketNumber,
	)
	s.publish(spotball.Event{
		Type:          spotball.EventTicketsAssigned,
		CompetitionID: competitionID,
		ParticipantID: p.ID,
		Count:         len(created),
	})

	return AssignResult{Tickets: created, RemainingSlots: remaining - len(created)}, nil
}

// SubmitMarkers stores the markers of every ticket in the batch or of none.
func (s *Service) SubmitMarkers(ctx context.Context, competitionID, participantID string, in SubmitMarkersInput) (_ spotball.Participant, err error) {
	defer s.observe("submit_markers", &err)

	unlock := s.lock(competitionID)
	defer unlock()

	c, err := s.competition(ctx, competitionID)
	if err != nil {
		return spotball.Participant{}, err
	}
	now := s.now()
	if !c.AcceptsEntries(now) {
		return spotball.Participant{}, apperr.Conflict(apperr.CodeCompetitionInactive, "competition %s no longer accepts entries", c.ID)
	}

	p, err := s.participant(ctx, competitionID, participantID)
	if err != nil {
		return spotball.Participant{}, err
	}
	if p.EntryComplete() {
		return spotball.Participant{}, apperr.Conflict(apperr.CodeEntryComplete, "entry already completed")
	}

	var fields apperr.Fields
	in.validate(&fields)

	owned := make(map[string]spotball.Ticket, len(p.Tickets))
	for _, t := range p.Tickets {
		owned[t.ID] = t
	}

	// Ownership and state failures name a single ticket and win over field errors.
	for _, sub := range in.Tickets {
		if sub.TicketID == "" {
			continue
		}
		t, ok := owned[sub.TicketID]
		if !ok || t.Status == spotball.TicketAvailable {
			return spotball.Participant{}, apperr.NotFound(apperr.CodeTicketNotFound, "ticket %s not found", sub.TicketID)
		}
		if t.Status == spotball.TicketUsed {
			return spotball.Participant{}, apperr.Conflict(apperr.CodeAlreadySubmitted, "ticket #%d has already been submitted", t.TicketNumber)
		}
	}

	for i, sub := range in.Tickets {
		t, ok := owned[sub.TicketID]
		if !ok {
			continue
		}
		if len(sub.Markers) != t.MarkersAllowed {
			fields.Add(fmt.Sprintf("tickets[%d].markers", i), apperr.CodeMarkerCountMismatch,
				"ticket #%d requires exactly %d markers, got %d", t.TicketNumber, t.MarkersAllowed, len(sub.Markers))
		}
	}
	if err := fields.Err(); err != nil {
		return spotball.Participant{}, err
	}

	subs := make([]spotball.TicketSubmission, len(in.Tickets))
	total := 0
	for i, sub := range in.Tickets {
		markers := make([]spotball.Marker, len(sub.Markers))
		for j, m := range sub.Markers {
			markers[j] = spotball.Marker{
				ID:       spotball.MarkerID(sub.TicketID, j+1),
				TicketID: sub.TicketID,
				X:        m.X,
				Y:        m.Y,
				Label:    m.Label,
			}
		}
		subs[i] = spotball.TicketSubmission{TicketID: sub.TicketID, Markers: markers, SubmittedAt: now}
		total += len(markers)
	}

	if err := s.repo.SubmitTickets(ctx, competitionID, subs); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return spotball.Participant{}, apperr.Conflict(apperr.CodeAlreadySubmitted, "a ticket in the batch has already been submitted")
		}
		return spotball.Participant{}, fmt.Errorf("submit tickets: %w", err)
	}
	s.invalidate(ctx, competitionID)

	s.metrics.EntriesSubmitted(len(subs))
	s.logger.Info("entries submitted",
		"competition_id", competitionID,
		"participant_id", participantID,
		"tickets", len(subs),
		"markers", total,
	)
	s.publish(spotball.Event{
		Type:          spotball.EventEntriesSubmitted,
		CompetitionID: competitionID,
		ParticipantID: participantID,
		Count:         len(subs),
	})

	return s.participant(ctx, competitionID, participantID)
}
