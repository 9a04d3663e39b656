package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/spottheball/internal/spotball"
)

// Memory is an in-process Repository. Values are copied in and out so that
// callers never share state with the store.
type Memory struct {
	mu           sync.RWMutex
	competitions map[string]spotball.Competition
	participants map[string]spotball.Participant
	tickets      map[string]spotball.Ticket
	sequences    map[string]int
	admins       map[string]spotball.Admin
	now          func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		competitions: make(map[string]spotball.Competition),
		participants: make(map[string]spotball.Participant),
		tickets:      make(map[string]spotball.Ticket),
		sequences:    make(map[string]int),
		admins:       make(map[string]spotball.Admin),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) CreateCompetition(_ context.Context, c spotball.Competition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.competitions[c.ID]; ok {
		return fmt.Errorf("competition %s: %w", c.ID, ErrConflict)
	}
	m.competitions[c.ID] = copyCompetition(c)
	return nil
}

func (m *Memory) GetCompetition(_ context.Context, id string) (spotball.Competition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.competitions[id]
	if !ok {
		return spotball.Competition{}, ErrNotFound
	}
	return copyCompetition(c), nil
}

func (m *Memory) ListCompetitions(_ context.Context) ([]spotball.Competition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]spotball.Competition, 0, len(m.competitions))
	for _, c := range m.competitions {
		out = append(out, copyCompetition(c))
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateCompetition(_ context.Context, id string, patch spotball.CompetitionPatch) (spotball.Competition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.competitions[id]
	if !ok {
		return spotball.Competition{}, ErrNotFound
	}
	c = copyCompetition(patch.Apply(c))
	m.competitions[id] = c
	return copyCompetition(c), nil
}

func (m *Memory) ListTickets(_ context.Context, competitionID string) ([]spotball.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.competitions[competitionID]; !ok {
		return nil, ErrNotFound
	}
	return m.ticketsWhere(func(t spotball.Ticket) bool { return t.CompetitionID == competitionID }), nil
}

func (m *Memory) CreateTickets(_ context.Context, competitionID string, specs []spotball.TicketSpec) ([]spotball.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.competitions[competitionID]; !ok {
		return nil, ErrNotFound
	}
	for _, spec := range specs {
		p, ok := m.participants[spec.ParticipantID]
		if !ok || p.CompetitionID != competitionID {
			return nil, fmt.Errorf("participant %s: %w", spec.ParticipantID, ErrNotFound)
		}
	}

	now := m.now()
	created := make([]spotball.Ticket, 0, len(specs))
	for _, spec := range specs {
		m.sequences[competitionID]++
		t := spotball.Ticket{
			ID:             uuid.NewString(),
			CompetitionID:  competitionID,
			ParticipantID:  spec.ParticipantID,
			TicketNumber:   m.sequences[competitionID],
			Status:         spec.Status,
			MarkersAllowed: spec.MarkersAllowed,
			CreatedAt:      now,
		}
		m.tickets[t.ID] = t
		created = append(created, copyTicket(t))
	}
	return created, nil
}

func (m *Memory) SubmitTickets(_ context.Context, competitionID string, subs []spotball.TicketSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check everything before touching anything.
	for _, s := range subs {
		t, ok := m.tickets[s.TicketID]
		if !ok || t.CompetitionID != competitionID {
			return fmt.Errorf("ticket %s: %w", s.TicketID, ErrNotFound)
		}
		if t.Status != spotball.TicketAssigned {
			return fmt.Errorf("ticket %s is %s: %w", s.TicketID, t.Status, ErrConflict)
		}
	}

	for _, s := range subs {
		t := m.tickets[s.TicketID]
		submittedAt := s.SubmittedAt
		t.Status = spotball.TicketUsed
		t.Markers = slices.Clone(s.Markers)
		t.MarkersUsed = len(s.Markers)
		t.SubmittedAt = &submittedAt
		m.tickets[t.ID] = t
	}
	return nil
}

func (m *Memory) GetParticipant(_ context.Context, competitionID, participantID string) (spotball.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.participants[participantID]
	if !ok || p.CompetitionID != competitionID {
		return spotball.Participant{}, ErrNotFound
	}
	return m.withTickets(p), nil
}

func (m *Memory) FindParticipantByPhone(_ context.Context, competitionID, phone string) (spotball.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.participants {
		if p.CompetitionID == competitionID && p.Phone == phone {
			return m.withTickets(p), nil
		}
	}
	return spotball.Participant{}, ErrNotFound
}

func (m *Memory) ListParticipants(_ context.Context, competitionID string) ([]spotball.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.competitions[competitionID]; !ok {
		return nil, ErrNotFound
	}
	var out []spotball.Participant
	for _, p := range m.participants {
		if p.CompetitionID == competitionID {
			out = append(out, m.withTickets(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) SaveParticipant(_ context.Context, p spotball.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.competitions[p.CompetitionID]; !ok {
		return fmt.Errorf("competition %s: %w", p.CompetitionID, ErrNotFound)
	}
	for _, other := range m.participants {
		if other.ID != p.ID && other.CompetitionID == p.CompetitionID && other.Phone == p.Phone {
			return fmt.Errorf("phone already registered: %w", ErrConflict)
		}
	}
	p.Tickets = nil
	m.participants[p.ID] = p
	return nil
}

func (m *Memory) DeleteParticipant(_ context.Context, competitionID, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[participantID]
	if !ok || p.CompetitionID != competitionID {
		return ErrNotFound
	}
	for id, t := range m.tickets {
		if t.ParticipantID == participantID {
			delete(m.tickets, id)
		}
	}
	delete(m.participants, participantID)
	return nil
}

func (m *Memory) AdminByUsername(_ context.Context, username string) (spotball.Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.admins[username]
	if !ok {
		return spotball.Admin{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) SaveAdmin(_ context.Context, a spotball.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.admins[a.Username] = a
	return nil
}

// withTickets must be called with m.mu held.
func (m *Memory) withTickets(p spotball.Participant) spotball.Participant {
	p.Tickets = m.ticketsWhere(func(t spotball.Ticket) bool { return t.ParticipantID == p.ID })
	return p
}

// ticketsWhere must be called with m.mu held.
func (m *Memory) ticketsWhere(keep func(spotball.Ticket) bool) []spotball.Ticket {
	var out []spotball.Ticket
	for _, t := range m.tickets {
		if keep(t) {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketNumber < out[j].TicketNumber })
	return out
}

func copyCompetition(c spotball.Competition) spotball.Competition {
	if c.FinalJudge != nil {
		p := *c.FinalJudge
		c.FinalJudge = &p
	}
	if c.EndsAt != nil {
		t := *c.EndsAt
		c.EndsAt = &t
	}
	if c.ResultsLockedAt != nil {
		t := *c.ResultsLockedAt
		c.ResultsLockedAt = &t
	}
	return c
}

func copyTicket(t spotball.Ticket) spotball.Ticket {
	t.Markers = slices.Clone(t.Markers)
	if t.SubmittedAt != nil {
		s := *t.SubmittedAt
		t.SubmittedAt = &s
	}
	return t
}

var _ Repository = (*Memory)(nil)
