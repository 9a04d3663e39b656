package lifecycle

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/spotball"
)

const (
	maxMarkersPerTicket = 20
	maxLabelLength      = 40
	minInvitePassword   = 4
)

// Field error codes.
const (
	CodeRequired     = "Required"
	CodeOutOfRange   = "OutOfRange"
	CodeNegative     = "Negative"
	CodeTooShort     = "TooShort"
	CodeTooLong      = "TooLong"
	CodeInPast       = "InPast"
	CodeInvalidPhone = apperr.CodeInvalidPhone
	CodeInvalidEmail = "InvalidEmail"
)

type CompetitionInput struct {
	Title            string
	ImageURL         string
	MaxEntries       int
	PricePerTicket   decimal.Decimal
	MarkersPerTicket int
	InvitePassword   string
	EndsAt           *time.Time
}

// Validate trims the text fields and reports every invalid field.
func (in *CompetitionInput) Validate(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	var f apperr.Fields
	f.Require(in.Title != "", "title")
	checkMaxEntries(&f, in.MaxEntries)
	checkMarkersPerTicket(&f, in.MarkersPerTicket)
	checkPrice(&f, in.PricePerTicket)
	checkInvitePassword(&f, in.InvitePassword)
	checkEndsAt(&f, in.EndsAt, now)
	return f.Err()
}

// CompetitionUpdate changes only the non-nil fields.
type CompetitionUpdate struct {
	Title            *string
	ImageURL         *string
	MaxEntries       *int
	PricePerTicket   *decimal.Decimal
	MarkersPerTicket *int
	InvitePassword   *string
	EndsAt           *time.Time
}

func (in *CompetitionUpdate) Validate(now time.Time) error {
	var f apperr.Fields
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
		f.Require(t != "", "title")
	}
	if in.ImageURL != nil {
		u := strings.TrimSpace(*in.ImageURL)
		in.ImageURL = &u
	}
	if in.MaxEntries != nil {
		checkMaxEntries(&f, *in.MaxEntries)
	}
	if in.MarkersPerTicket != nil {
		checkMarkersPerTicket(&f, *in.MarkersPerTicket)
	}
	if in.PricePerTicket != nil {
		checkPrice(&f, *in.PricePerTicket)
	}
	if in.InvitePassword != nil {
		checkInvitePassword(&f, *in.InvitePassword)
	}
	checkEndsAt(&f, in.EndsAt, now)
	return f.Err()
}

func checkMaxEntries(f *apperr.Fields, n int) {
	if n < 1 {
		f.Add("maxEntries", CodeOutOfRange, "maxEntries must be at least 1")
	}
}

func checkMarkersPerTicket(f *apperr.Fields, n int) {
	if n < 1 || n > maxMarkersPerTicket {
		f.Add("markersPerTicket", CodeOutOfRange, "markersPerTicket must be between 1 and %d", maxMarkersPerTicket)
	}
}

func checkPrice(f *apperr.Fields, d decimal.Decimal) {
	if d.IsNegative() {
		f.Add("pricePerTicket", CodeNegative, "pricePerTicket must not be negative")
	}
}

func checkInvitePassword(f *apperr.Fields, pw string) {
	if len(pw) < minInvitePassword {
		f.Add("invitePassword", CodeTooShort, "invitePassword must have at least %d characters", minInvitePassword)
	}
}

func checkEndsAt(f *apperr.Fields, endsAt *time.Time, now time.Time) {
	if endsAt != nil && !endsAt.After(now) {
		f.Add("endsAt", CodeInPast, "endsAt must be in the future")
	}
}

type ParticipantInput struct {
	Name  string
	Phone string
	Email string
}

// Validate trims the fields and normalizes the phone number in place.
func (in *ParticipantInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	var f apperr.Fields
	f.Require(in.Name != "", "name")
	if phone, err := spotball.NormalizePhone(in.Phone); err != nil {
		f.Add("phone", CodeInvalidPhone, "phone must contain between 7 and 15 digits")
	} else {
		in.Phone = phone
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			f.Add("email", CodeInvalidEmail, "email is not a valid address")
		}
	}
	return f.Err()
}

type AssignTicketsInput struct {
	ParticipantID string
	Count         int
}

func (in *AssignTicketsInput) Validate() error {
	in.ParticipantID = strings.TrimSpace(in.ParticipantID)

	var f apperr.Fields
	f.Require(in.ParticipantID != "", "participantId")
	if in.Count < 1 {
		f.Add("count", CodeOutOfRange, "count must be at least 1")
	}
	return f.Err()
}

type MarkerInput struct {
	X     float64
	Y     float64
	Label string
}

type TicketMarkers struct {
	TicketID string
	Markers  []MarkerInput
}

type SubmitMarkersInput struct {
	Tickets []TicketMarkers
}

// validate checks the shape of the batch. Marker counts depend on the stored
// tickets and are checked by SubmitMarkers.
func (in *SubmitMarkersInput) validate(f *apperr.Fields) {
	if len(in.Tickets) == 0 {
		f.Add("tickets", CodeRequired, "at least one ticket is required")
		return
	}

	seen := make(map[string]bool, len(in.Tickets))
	for i := range in.Tickets {
		t := &in.Tickets[i]
		t.TicketID = strings.TrimSpace(t.TicketID)
		path := fmt.Sprintf("tickets[%d]", i)
		switch {
		case t.TicketID == "":
			f.Add(path+".ticketId", CodeRequired, "ticketId is required")
		case seen[t.TicketID]:
			f.Add(path+".ticketId", apperr.CodeDuplicateTicket, "ticket %s appears more than once", t.TicketID)
		}
		seen[t.TicketID] = true

		for j := range t.Markers {
			m := &t.Markers[j]
			m.Label = strings.TrimSpace(m.Label)
			mpath := fmt.Sprintf("%s.markers[%d]", path, j)
			if !spotball.InRange(m.X) {
				f.Add(mpath+".x", apperr.CodeInvalidCoordinate, "marker %d: x must be within [0,1]", j+1)
			}
			if !spotball.InRange(m.Y) {
				f.Add(mpath+".y", apperr.CodeInvalidCoordinate, "marker %d: y must be within [0,1]", j+1)
			}
			if len(m.Label) > maxLabelLength {
				f.Add(mpath+".label", CodeTooLong, "marker %d: label must have at most %d characters", j+1, maxLabelLength)
			}
		}
	}
}

type JudgePointInput struct {
	X float64
	Y float64
}

func (in JudgePointInput) Validate() error {
	var f apperr.Fields
	if !spotball.InRange(in.X) {
		f.Add("x", apperr.CodeInvalidCoordinate, "x must be within [0,1]")
	}
	if !spotball.InRange(in.Y) {
		f.Add("y", apperr.CodeInvalidCoordinate, "y must be within [0,1]")
	}
	return f.Err()
}
