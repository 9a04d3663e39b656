// Package store holds the competition repository contract and its
// implementations. Every method is atomic on its own; callers serialize
// multi-call sequences themselves.
package store

import (
	"context"
	"errors"

	"github.com/playperu/spottheball/internal/spotball"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Repository interface {
	CreateCompetition(ctx context.Context, c spotball.Competition) error
	GetCompetition(ctx context.Context, id string) (spotball.Competition, error)
	ListCompetitions(ctx context.Context) ([]spotball.Competition, error)
	UpdateCompetition(ctx context.Context, id string, patch spotball.CompetitionPatch) (spotball.Competition, error)

	// ListTickets returns every ticket of the competition with its markers,
	// ordered by ticket number.
	ListTickets(ctx context.Context, competitionID string) ([]spotball.Ticket, error)
	// CreateTickets creates the tickets in one call, numbering them
	// sequentially from the competition's high-water mark.
	CreateTickets(ctx context.Context, competitionID string, specs []spotball.TicketSpec) ([]spotball.Ticket, error)
	// SubmitTickets marks every ticket USED with its markers, all or nothing.
	SubmitTickets(ctx context.Context, competitionID string, subs []spotball.TicketSubmission) error

	GetParticipant(ctx context.Context, competitionID, participantID string) (spotball.Participant, error)
	FindParticipantByPhone(ctx context.Context, competitionID, phone string) (spotball.Participant, error)
	ListParticipants(ctx context.Context, competitionID string) ([]spotball.Participant, error)
	// SaveParticipant inserts or updates the participant record; tickets are
	// not touched. A phone already used by another participant of the same
	// competition yields ErrConflict.
	SaveParticipant(ctx context.Context, p spotball.Participant) error
	// DeleteParticipant removes the participant with all tickets and markers.
	DeleteParticipant(ctx context.Context, competitionID, participantID string) error

	AdminByUsername(ctx context.Context, username string) (spotball.Admin, error)
	SaveAdmin(ctx context.Context, a spotball.Admin) error
}
