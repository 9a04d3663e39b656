package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
)

func (s *Service) CreateCompetition(ctx context.Context, in CompetitionInput) (_ spotball.Competition, err error) {
	defer s.observe("create_competition", &err)

	now := s.now()
	if err := in.Validate(now); err != nil {
		return spotball.Competition{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.InvitePassword), s.cost)
	if err != nil {
		return spotball.Competition{}, fmt.Errorf("hash invite password: %w", err)
	}

	c := spotball.Competition{
		ID:                 uuid.NewString(),
		Title:              in.Title,
		ImageURL:           in.ImageURL,
		MaxEntries:         in.MaxEntries,
		PricePerTicket:     in.PricePerTicket,
		MarkersPerTicket:   in.MarkersPerTicket,
		Status:             spotball.CompetitionActive,
		InvitePasswordHash: string(hash),
		EndsAt:             in.EndsAt,
		CreatedAt:          now,
	}
	if err := s.repo.CreateCompetition(ctx, c); err != nil {
		return spotball.Competition{}, fmt.Errorf("create competition: %w", err)
	}

	s.logger.Info("competition created", "competition_id", c.ID, "max_entries", c.MaxEntries)
	return c, nil
}

func (s *Service) GetCompetition(ctx context.Context, id string) (_ spotball.Competition, err error) {
	defer s.observe("get_competition", &err)
	return s.competition(ctx, id)
}

func (s *Service) ListCompetitions(ctx context.Context) (_ []spotball.Competition, err error) {
	defer s.observe("list_competitions", &err)

	list, err := s.repo.ListCompetitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return list, nil
}

// UpdateCompetition edits the competition settings. Tickets already issued
// keep the markersAllowed they were created with.
func (s *Service) UpdateCompetition(ctx context.Context, id string, in CompetitionUpdate) (_ spotball.Competition, err error) {
	defer s.observe("update_competition", &err)

	if err := in.Validate(s.now()); err != nil {
		return spotball.Competition{}, err
	}

	unlock := s.lock(id)
	defer unlock()

	if _, err := s.competition(ctx, id); err != nil {
		return spotball.Competition{}, err
	}

	if in.MaxEntries != nil {
		tickets, err := s.repo.ListTickets(ctx, id)
		if err != nil {
			return spotball.Competition{}, fmt.Errorf("list tickets: %w", err)
		}
		if issued := spotball.CountNotAvailable(tickets); *in.MaxEntries < issued {
			return spotball.Competition{}, apperr.Validation("maxEntries", CodeOutOfRange,
				"maxEntries cannot be below the %d tickets already issued", issued)
		}
	}

	patch := spotball.CompetitionPatch{
		Title:            in.Title,
		ImageURL:         in.ImageURL,
		MaxEntries:       in.MaxEntries,
		PricePerTicket:   in.PricePerTicket,
		MarkersPerTicket: in.MarkersPerTicket,
		EndsAt:           in.EndsAt,
	}
	if in.InvitePassword != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.InvitePassword), s.cost)
		if err != nil {
			return spotball.Competition{}, fmt.Errorf("hash invite password: %w", err)
		}
		h := string(hash)
		patch.InvitePasswordHash = &h
	}

	c, err := s.repo.UpdateCompetition(ctx, id, patch)
	if err != nil {
		return spotball.Competition{}, notFound(err, apperr.CodeCompetitionNotFound, "competition %s not found", id)
	}
	return c, nil
}

// CloseCompetition moves the competition from ACTIVE to CLOSED. Closing twice
// is reported so that callers know whether their call made the transition.
func (s *Service) CloseCompetition(ctx context.Context, id string) (_ spotball.Competition, err error) {
	defer s.observe("close_competition", &err)

	unlock := s.lock(id)
	defer unlock()

	c, err := s.competition(ctx, id)
	if err != nil {
		return c, err
	}
	if c.Status == spotball.CompetitionClosed {
		return spotball.Competition{}, apperr.Conflict(apperr.CodeAlreadyClosed, "competition %s is already closed", id)
	}

	closed := spotball.CompetitionClosed
	c, err = s.repo.UpdateCompetition(ctx, id, spotball.CompetitionPatch{Status: &closed})
	if err != nil {
		return spotball.Competition{}, fmt.Errorf("close competition: %w", err)
	}

	s.logger.Info("competition closed", "competition_id", id)
	s.publish(spotball.Event{Type: spotball.EventCompetitionClosed, CompetitionID: id})
	return c, nil
}

// SetFinalJudgePoint stores the judged coordinate, replacing any earlier one
// until the results are locked.
func (s *Service) SetFinalJudgePoint(ctx context.Context, id string, in JudgePointInput) (_ spotball.Competition, err error) {
	defer s.observe("set_final_judge_point", &err)

	if err := in.Validate(); err != nil {
		return spotball.Competition{}, err
	}

	unlock := s.lock(id)
	defer unlock()

	c, err := s.competition(ctx, id)
	if err != nil {
		return c, err
	}
	if c.ResultsLocked() {
		return spotball.Competition{}, apperr.Conflict(apperr.CodeResultsLocked, "results of competition %s are locked", id)
	}

	judge := spotball.Point{X: in.X, Y: in.Y}
	c, err = s.repo.UpdateCompetition(ctx, id, spotball.CompetitionPatch{FinalJudge: &judge})
	if err != nil {
		return spotball.Competition{}, fmt.Errorf("set judge point: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.Info("judge point set", "competition_id", id, "x", judge.X, "y", judge.Y)
	s.publish(spotball.Event{Type: spotball.EventJudgePointSet, CompetitionID: id})
	return c, nil
}

// LockResults freezes the judged coordinate and with it the winner ranking.
func (s *Service) LockResults(ctx context.Context, id string) (_ spotball.Competition, err error) {
	defer s.observe("lock_results", &err)

	unlock := s.lock(id)
	defer unlock()

	c, err := s.competition(ctx, id)
	if err != nil {
		return c, err
	}
	switch {
	case c.ResultsLocked():
		return spotball.Competition{}, apperr.Conflict(apperr.CodeAlreadyLocked, "results of competition %s are already locked", id)
	case c.Status != spotball.CompetitionClosed:
		return spotball.Competition{}, apperr.Precondition(apperr.CodeCompetitionOpen, "competition %s must be closed first", id)
	case c.FinalJudge == nil:
		return spotball.Competition{}, apperr.Precondition(apperr.CodeJudgmentPending, "final judge point is not set")
	}

	now := s.now()
	c, err = s.repo.UpdateCompetition(ctx, id, spotball.CompetitionPatch{ResultsLockedAt: &now})
	if err != nil {
		return spotball.Competition{}, fmt.Errorf("lock results: %w", err)
	}

	s.logger.Info("results locked", "competition_id", id)
	s.publish(spotball.Event{Type: spotball.EventResultsLocked, CompetitionID: id})
	return c, nil
}

func (s *Service) RegisterParticipant(ctx context.Context, competitionID string, in ParticipantInput) (_ spotball.Participant, err error) {
	defer s.observe("register_participant", &err)

	if err := in.Validate(); err != nil {
		return spotball.Participant{}, err
	}

	unlock := s.lock(competitionID)
	defer unlock()

	c, err := s.competition(ctx, competitionID)
	if err != nil {
		return spotball.Participant{}, err
	}
	if c.Status != spotball.CompetitionActive {
		return spotball.Participant{}, apperr.Conflict(apperr.CodeCompetitionInactive, "competition %s is %s", c.ID, c.Status)
	}

	p := spotball.Participant{
		ID:            uuid.NewString(),
		CompetitionID: competitionID,
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		CreatedAt:     s.now(),
	}
	if err := s.repo.SaveParticipant(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return spotball.Participant{}, apperr.Conflict(apperr.CodeParticipantExists, "phone %s is already registered", p.Phone)
		}
		return spotball.Participant{}, fmt.Errorf("save participant: %w", err)
	}

	s.logger.Info("participant registered", "competition_id", competitionID, "participant_id", p.ID)
	return p, nil
}

// DeleteParticipant removes the participant with every ticket and marker,
// whatever their state.
func (s *Service) DeleteParticipant(ctx context.Context, competitionID, participantID string) (err error) {
	defer s.observe("delete_participant", &err)

	unlock := s.lock(competitionID)
	defer unlock()

	c, err := s.competition(ctx, competitionID)
	if err != nil {
		return err
	}
	if c.ResultsLocked() {
		return apperr.Conflict(apperr.CodeResultsLocked, "results of competition %s are locked", competitionID)
	}

	if err := s.repo.DeleteParticipant(ctx, competitionID, participantID); err != nil {
		return notFound(err, apperr.CodeParticipantNotFound, "participant %s not found", participantID)
	}
	s.invalidate(ctx, competitionID)

	s.logger.Info("participant deleted", "competition_id", competitionID, "participant_id", participantID)
	s.publish(spotball.Event{
		Type:          spotball.EventParticipantDeleted,
		CompetitionID: competitionID,
		ParticipantID: participantID,
	})
	return nil
}

func (s *Service) ListParticipants(ctx context.Context, competitionID string) (_ []spotball.Participant, err error) {
	defer s.observe("list_participants", &err)

	list, err := s.repo.ListParticipants(ctx, competitionID)
	if err != nil {
		return nil, notFound(err, apperr.CodeCompetitionNotFound, "competition %s not found", competitionID)
	}
	return list, nil
}

// Participant returns one participant with tickets and markers.
func (s *Service) Participant(ctx context.Context, competitionID, participantID string) (_ spotball.Participant, err error) {
	defer s.observe("get_participant", &err)
	return s.participant(ctx, competitionID, participantID)
}

// RemainingSlots reports how many tickets can still be assigned.
func (s *Service) RemainingSlots(ctx context.Context, c spotball.Competition) (int, error) {
	tickets, err := s.repo.ListTickets(ctx, c.ID)
	if err != nil {
		return 0, notFound(err, apperr.CodeCompetitionNotFound, "competition %s not found", c.ID)
	}
	return max(c.MaxEntries-spotball.CountNotAvailable(tickets), 0), nil
}
