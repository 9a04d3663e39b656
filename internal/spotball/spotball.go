// Package spotball defines the core domain types of a spot-the-ball
// competition: competitions, participants, tickets, markers and the derived
// winner result.
package spotball

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type CompetitionStatus string

const (
	CompetitionActive CompetitionStatus = "ACTIVE"
	CompetitionClosed CompetitionStatus = "CLOSED"
)

type TicketStatus string

const (
	TicketAvailable TicketStatus = "AVAILABLE"
	TicketAssigned  TicketStatus = "ASSIGNED"
	TicketUsed      TicketStatus = "USED"
)

// Point is a normalized coordinate on the competition image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InRange reports whether v lies in the normalized [0,1] interval.
func InRange(v float64) bool {
	return v >= 0 && v <= 1 && !math.IsNaN(v)
}

func (p Point) Valid() bool { return InRange(p.X) && InRange(p.Y) }

// Distance is the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

type Competition struct {
	ID                 string
	Title              string
	ImageURL           string
	MaxEntries         int
	PricePerTicket     decimal.Decimal
	MarkersPerTicket   int
	Status             CompetitionStatus
	FinalJudge         *Point
	InvitePasswordHash string
	EndsAt             *time.Time
	ResultsLockedAt    *time.Time
	CreatedAt          time.Time
}

// AcceptsEntries reports whether markers may still be submitted at now.
func (c Competition) AcceptsEntries(now time.Time) bool {
	if c.Status != CompetitionActive {
		return false
	}
	return c.EndsAt == nil || now.Before(*c.EndsAt)
}

func (c Competition) ResultsLocked() bool { return c.ResultsLockedAt != nil }

// CompetitionPatch carries the fields to change; nil fields are left alone.
type CompetitionPatch struct {
	Title              *string
	ImageURL           *string
	MaxEntries         *int
	PricePerTicket     *decimal.Decimal
	MarkersPerTicket   *int
	Status             *CompetitionStatus
	FinalJudge         *Point
	InvitePasswordHash *string
	EndsAt             *time.Time
	ResultsLockedAt    *time.Time
}

// Apply returns c with the patch applied.
func (p CompetitionPatch) Apply(c Competition) Competition {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.ImageURL != nil {
		c.ImageURL = *p.ImageURL
	}
	if p.MaxEntries != nil {
		c.MaxEntries = *p.MaxEntries
	}
	if p.PricePerTicket != nil {
		c.PricePerTicket = *p.PricePerTicket
	}
	if p.MarkersPerTicket != nil {
		c.MarkersPerTicket = *p.MarkersPerTicket
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.FinalJudge != nil {
		pt := *p.FinalJudge
		c.FinalJudge = &pt
	}
	if p.InvitePasswordHash != nil {
		c.InvitePasswordHash = *p.InvitePasswordHash
	}
	if p.EndsAt != nil {
		t := *p.EndsAt
		c.EndsAt = &t
	}
	if p.ResultsLockedAt != nil {
		t := *p.ResultsLockedAt
		c.ResultsLockedAt = &t
	}
	return c
}

type Participant struct {
	ID            string
	CompetitionID string
	Name          string
	Phone         string
	Email         string
	Tickets       []Ticket
	CreatedAt     time.Time
}

// EntryComplete reports whether the participant holds at least one ticket
// and every ticket has been used.
func (p Participant) EntryComplete() bool {
	if len(p.Tickets) == 0 {
		return false
	}
	for _, t := range p.Tickets {
		if t.Status != TicketUsed {
			return false
		}
	}
	return true
}

// HeldTickets counts tickets that are assigned or used.
func (p Participant) HeldTickets() int {
	n := 0
	for _, t := range p.Tickets {
		if t.Status != TicketAvailable {
			n++
		}
	}
	return n
}

type Ticket struct {
	ID             string
	CompetitionID  string
	ParticipantID  string
	TicketNumber   int
	Status         TicketStatus
	MarkersAllowed int
	MarkersUsed    int
	Markers        []Marker
	SubmittedAt    *time.Time
	CreatedAt      time.Time
}

type Marker struct {
	ID       string
	TicketID string
	X        float64
	Y        float64
	Label    string
}

func (m Marker) Point() Point { return Point{X: m.X, Y: m.Y} }

// MarkerID builds the identifier of the n-th marker (1-based) of a ticket.
func MarkerID(ticketID string, n int) string {
	return ticketID + "-marker-" + strconv.Itoa(n)
}

// TicketSpec describes a ticket to be created; the repository assigns the
// identifier and ticket number.
type TicketSpec struct {
	ParticipantID  string
	Status         TicketStatus
	MarkersAllowed int
}

// TicketSubmission is the validated result of a marker submission that the
// repository stores in one atomic call.
type TicketSubmission struct {
	TicketID    string
	Markers     []Marker
	SubmittedAt time.Time
}

type Admin struct {
	ID           string
	Username     string
	PasswordHash string
}

// CountNotAvailable counts tickets that have left the AVAILABLE state.
func CountNotAvailable(tickets []Ticket) int {
	n := 0
	for _, t := range tickets {
		if t.Status != TicketAvailable {
			n++
		}
	}
	return n
}

type WinnerEntry struct {
	TicketID      string  `json:"ticketId"`
	TicketNumber  int     `json:"ticketNumber"`
	ParticipantID string  `json:"participantId"`
	Distance      float64 `json:"distance"`
	Rank          int     `json:"rank"`
}

// WinnerResult is derived from the judged point and all used tickets. It is
// cached but never the source of truth.
type WinnerResult struct {
	CompetitionID string        `json:"competitionId"`
	Judge         Point         `json:"judge"`
	Entries       []WinnerEntry `json:"entries"`
	ComputedAt    time.Time     `json:"computedAt"`
	Locked        bool          `json:"locked"`
}

// RankOf returns the rank of ticketID, or 0 when it is unranked.
func (r WinnerResult) RankOf(ticketID string) int {
	for _, e := range r.Entries {
		if e.TicketID == ticketID {
			return e.Rank
		}
	}
	return 0
}

// Event is published on every state transition of a competition.
type Event struct {
	Type          string `json:"type"`
	CompetitionID string `json:"competitionId"`
	ParticipantID string `json:"participantId,omitempty"`
	Count         int    `json:"count,omitempty"`
}

const (
	EventTicketsAssigned    = "tickets_assigned"
	EventEntriesSubmitted   = "entries_submitted"
	EventCompetitionClosed  = "competition_closed"
	EventJudgePointSet      = "judge_point_set"
	EventWinnersComputed    = "winners_computed"
	EventResultsLocked      = "results_locked"
	EventParticipantDeleted = "participant_deleted"
)
