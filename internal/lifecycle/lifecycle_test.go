package lifecycle_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/lifecycle"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []spotball.Event
}

func (r *recorder) Publish(_ string, e spotball.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type countingCache struct{ n atomic.Int32 }

func (c *countingCache) Invalidate(context.Context, string) error {
	c.n.Add(1)
	return nil
}

type fixture struct {
	svc    *lifecycle.Service
	repo   *store.Memory
	events *recorder
	cache  *countingCache
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   store.NewMemory(),
		events: &recorder{},
		cache:  &countingCache{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = lifecycle.New(lifecycle.Config{
		Repo:                     f.repo,
		Cache:                    f.cache,
		Publisher:                f.events,
		MaxTicketsPerParticipant: 5,
		BcryptCost:               bcrypt.MinCost,
		Now:                      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) competition(t *testing.T, maxEntries, markers int) spotball.Competition {
	t.Helper()
	c, err := f.svc.CreateCompetition(context.Background(), lifecycle.CompetitionInput{
		Title:            "Cup final",
		MaxEntries:       maxEntries,
		PricePerTicket:   decimal.RequireFromString("1.00"),
		MarkersPerTicket: markers,
		InvitePassword:   "letmein",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) participant(t *testing.T, competitionID, phone string) spotball.Participant {
	t.Helper()
	p, err := f.svc.RegisterParticipant(context.Background(), competitionID, lifecycle.ParticipantInput{
		Name:  "Player " + phone,
		Phone: phone,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) assign(t *testing.T, competitionID, participantID string, count int) []spotball.Ticket {
	t.Helper()
	res, err := f.svc.AssignTickets(context.Background(), competitionID, lifecycle.AssignTicketsInput{
		ParticipantID: participantID,
		Count:         count,
	})
	require.NoError(t, err)
	return res.Tickets
}

func markers(points ...float64) []lifecycle.MarkerInput {
	var out []lifecycle.MarkerInput
	for i := 0; i+1 < len(points); i += 2 {
		out = append(out, lifecycle.MarkerInput{X: points[i], Y: points[i+1]})
	}
	return out
}

func requireCode(t *testing.T, err error, code string) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	e := apperr.Convert(err)
	require.Equal(t, code, e.Code, "error: %v", err)
	return e
}

func TestAssignTicketsExhaustsSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 2, 3)
	p1 := f.participant(t, c.ID, "+51 999 111 111")
	p2 := f.participant(t, c.ID, "+51 999 222 222")

	res, err := f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p1.ID, Count: 2})
	require.NoError(t, err)
	require.Len(t, res.Tickets, 2)
	require.Equal(t, 0, res.RemainingSlots)
	require.Equal(t, 1, res.Tickets[0].TicketNumber)
	require.Equal(t, 2, res.Tickets[1].TicketNumber)
	for _, tk := range res.Tickets {
		require.Equal(t, spotball.TicketAssigned, tk.Status)
		require.Equal(t, 3, tk.MarkersAllowed)
	}

	_, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p2.ID, Count: 1})
	e := requireCode(t, err, apperr.CodeSlotsExhausted)
	require.Equal(t, apperr.KindCapacity, e.Kind)
	require.Contains(t, e.Message, "0 slots remaining")
}

func TestAssignTicketsRemainingSlotsDecrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 5, 1)
	p := f.participant(t, c.ID, "+51999111111")

	res, err := f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 2})
	require.NoError(t, err)
	require.Equal(t, 3, res.RemainingSlots)

	_, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 4})
	e := requireCode(t, err, apperr.CodeSlotsExhausted)
	require.Contains(t, e.Message, "3 slots remaining")

	res, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 3})
	require.NoError(t, err)
	require.Equal(t, 0, res.RemainingSlots)
	require.Equal(t, 5, res.Tickets[2].TicketNumber)
}

func TestAssignTicketsRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 100, 1)
	p := f.participant(t, c.ID, "+51999111111")

	_, err := f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 0})
	e := requireCode(t, err, lifecycle.CodeOutOfRange)
	require.Equal(t, apperr.KindValidation, e.Kind)

	// Per-participant cap of 5.
	f.assign(t, c.ID, p.ID, 4)
	_, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 2})
	requireCode(t, err, apperr.CodeParticipantCap)

	_, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: "nobody", Count: 1})
	requireCode(t, err, apperr.CodeParticipantNotFound)

	_, err = f.svc.AssignTickets(ctx, "missing", lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 1})
	requireCode(t, err, apperr.CodeCompetitionNotFound)

	_, err = f.svc.CloseCompetition(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 1})
	requireCode(t, err, apperr.CodeCompetitionInactive)
}

func TestAssignTicketsConcurrentNeverExceedsMaxEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 7, 1)

	const workers = 20
	participants := make([]spotball.Participant, workers)
	for i := range participants {
		participants[i] = f.participant(t, c.ID, fmt.Sprintf("+5199900%04d", i))
	}

	var wg sync.WaitGroup
	var assigned, exhausted atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(p spotball.Participant) {
			defer wg.Done()
			_, err := f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 1})
			switch apperr.CodeOf(err) {
			case "":
				assigned.Add(1)
			case apperr.CodeSlotsExhausted:
				exhausted.Add(1)
			}
		}(participants[i])
	}
	wg.Wait()

	require.Equal(t, int32(7), assigned.Load())
	require.Equal(t, int32(workers-7), exhausted.Load())

	tickets, err := f.repo.ListTickets(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 7)
	for i, tk := range tickets {
		require.Equal(t, i+1, tk.TicketNumber)
	}
}

func TestSubmitMarkers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 3)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 1)

	got, err := f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{
			TicketID: tickets[0].ID,
			Markers:  markers(0.1, 0.1, 0.5, 0.5, 0.9, 0.9),
		}},
	})
	require.NoError(t, err)
	require.Len(t, got.Tickets, 1)

	tk := got.Tickets[0]
	require.Equal(t, spotball.TicketUsed, tk.Status)
	require.Equal(t, 3, tk.MarkersUsed)
	require.Len(t, tk.Markers, 3)
	require.Equal(t, tickets[0].ID+"-marker-1", tk.Markers[0].ID)
	require.Equal(t, tickets[0].ID+"-marker-3", tk.Markers[2].ID)
	require.Equal(t, 0.9, tk.Markers[2].X)
	require.NotNil(t, tk.SubmittedAt)
	require.True(t, f.now.Equal(*tk.SubmittedAt))
	require.True(t, got.EntryComplete())

	require.Equal(t, int32(1), f.cache.n.Load())
	require.Contains(t, f.events.types(), spotball.EventEntriesSubmitted)
}

func TestSubmitMarkersRequiresExactCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 3)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 1)

	for _, pts := range [][]float64{
		{0.1, 0.1, 0.2, 0.2},
		{0.1, 0.1, 0.2, 0.2, 0.3, 0.3, 0.4, 0.4},
	} {
		_, err := f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
			Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: markers(pts...)}},
		})
		e := requireCode(t, err, apperr.CodeMarkerCountMismatch)
		require.Contains(t, e.Message, "exactly 3 markers")
	}

	got, err := f.svc.Participant(ctx, c.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, spotball.TicketAssigned, got.Tickets[0].Status)
}

func TestSubmitMarkersRejectsUsedTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 1)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 2)

	_, err := f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: markers(0.5, 0.5)}},
	})
	require.NoError(t, err)

	// A used ticket fails the same way whatever the payload.
	for _, ms := range [][]lifecycle.MarkerInput{
		markers(0.5, 0.5),
		markers(2, -1),
		nil,
	} {
		_, err = f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
			Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: ms}},
		})
		e := requireCode(t, err, apperr.CodeAlreadySubmitted)
		require.Contains(t, e.Message, "#1")
	}
}

func TestSubmitMarkersEntryComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 1)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 1)

	_, err := f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: markers(0.5, 0.5)}},
	})
	require.NoError(t, err)

	_, err = f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: markers(0.5, 0.5)}},
	})
	requireCode(t, err, apperr.CodeEntryComplete)

	// A new ticket reopens the entry.
	more := f.assign(t, c.ID, p.ID, 1)
	_, err = f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: more[0].ID, Markers: markers(0.4, 0.4)}},
	})
	require.NoError(t, err)
}

func TestSubmitMarkersIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 2)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 2)

	_, err := f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{
			{TicketID: tickets[0].ID, Markers: markers(0.1, 0.1, 0.2, 0.2)},
			{TicketID: tickets[1].ID, Markers: markers(0.1, 1.5, -0.2, 0.2)},
		},
	})
	e := requireCode(t, err, apperr.CodeInvalidCoordinate)
	require.Equal(t, apperr.KindValidation, e.Kind)
	require.Len(t, e.Fields, 2)
	require.Equal(t, "tickets[1].markers[0].y", e.Fields[0].Field)
	require.Equal(t, "tickets[1].markers[1].x", e.Fields[1].Field)

	got, err := f.svc.Participant(ctx, c.ID, p.ID)
	require.NoError(t, err)
	for _, tk := range got.Tickets {
		require.Equal(t, spotball.TicketAssigned, tk.Status)
		require.Empty(t, tk.Markers)
	}
	require.Zero(t, f.cache.n.Load())
}

func TestSubmitMarkersCollectsEveryField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 2)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 2)

	_, err := f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{
			{TicketID: tickets[0].ID, Markers: markers(0.1, 3)},
			{TicketID: tickets[1].ID, Markers: markers(0.1, 0.1, 0.2, 0.2)},
			{TicketID: tickets[1].ID, Markers: markers(0.1, 0.1, 0.2, 0.2)},
		},
	})
	e := apperr.Convert(err)
	require.Equal(t, apperr.KindValidation, e.Kind)
	require.True(t, e.HasField(apperr.CodeInvalidCoordinate))
	require.True(t, e.HasField(apperr.CodeMarkerCountMismatch))
	require.True(t, e.HasField(apperr.CodeDuplicateTicket))
}

func TestSubmitMarkersForeignTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 1)
	p1 := f.participant(t, c.ID, "+51999111111")
	p2 := f.participant(t, c.ID, "+51999222222")
	f.assign(t, c.ID, p1.ID, 1)
	theirs := f.assign(t, c.ID, p2.ID, 1)

	_, err := f.svc.SubmitMarkers(ctx, c.ID, p1.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: theirs[0].ID, Markers: markers(0.5, 0.5)}},
	})
	requireCode(t, err, apperr.CodeTicketNotFound)
}

func TestSubmitMarkersAfterClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 1)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 1)

	_, err := f.svc.CloseCompetition(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: markers(0.5, 0.5)}},
	})
	requireCode(t, err, apperr.CodeCompetitionInactive)
}

func TestSubmitMarkersAfterDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 1)
	endsAt := f.now.Add(time.Hour)
	_, err := f.svc.UpdateCompetition(ctx, c.ID, lifecycle.CompetitionUpdate{EndsAt: &endsAt})
	require.NoError(t, err)
	p := f.participant(t, c.ID, "+51999111111")
	tickets := f.assign(t, c.ID, p.ID, 1)

	f.now = endsAt
	_, err = f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: tickets[0].ID, Markers: markers(0.5, 0.5)}},
	})
	requireCode(t, err, apperr.CodeCompetitionInactive)
}

func TestAssignTicketsAfterDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 1)
	endsAt := f.now.Add(time.Hour)
	_, err := f.svc.UpdateCompetition(ctx, c.ID, lifecycle.CompetitionUpdate{EndsAt: &endsAt})
	require.NoError(t, err)
	p := f.participant(t, c.ID, "+51999111111")

	f.now = endsAt
	_, err = f.svc.AssignTickets(ctx, c.ID, lifecycle.AssignTicketsInput{ParticipantID: p.ID, Count: 1})
	requireCode(t, err, apperr.CodeCompetitionInactive)

	c, err = f.svc.GetCompetition(ctx, c.ID)
	require.NoError(t, err)
	remaining, err := f.svc.RemainingSlots(ctx, c)
	require.NoError(t, err)
	require.Equal(t, 10, remaining)
}

func TestMarkersAllowedIsFixedAtAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 10, 3)
	p := f.participant(t, c.ID, "+51999111111")
	old := f.assign(t, c.ID, p.ID, 1)

	five := 5
	_, err := f.svc.UpdateCompetition(ctx, c.ID, lifecycle.CompetitionUpdate{MarkersPerTicket: &five})
	require.NoError(t, err)
	fresh := f.assign(t, c.ID, p.ID, 1)
	require.Equal(t, 5, fresh[0].MarkersAllowed)

	_, err = f.svc.SubmitMarkers(ctx, c.ID, p.ID, lifecycle.SubmitMarkersInput{
		Tickets: []lifecycle.TicketMarkers{{TicketID: old[0].ID, Markers: markers(0.1, 0.1, 0.2, 0.2, 0.3, 0.3)}},
	})
	require.NoError(t, err)
}

func TestUpdateCompetitionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 3, 1)
	p := f.participant(t, c.ID, "+51999111111")
	f.assign(t, c.ID, p.ID, 2)

	one := 1
	_, err := f.svc.UpdateCompetition(ctx, c.ID, lifecycle.CompetitionUpdate{MaxEntries: &one})
	e := requireCode(t, err, lifecycle.CodeOutOfRange)
	require.Contains(t, e.Message, "2 tickets already issued")

	blank, zero := " ", 0
	_, err = f.svc.UpdateCompetition(ctx, c.ID, lifecycle.CompetitionUpdate{Title: &blank, MarkersPerTicket: &zero})
	e = apperr.Convert(err)
	require.Len(t, e.Fields, 2)
}

func TestCreateCompetitionValidation(t *testing.T) {
	f := newFixture(t)
	past := f.now.Add(-time.Minute)
	_, err := f.svc.CreateCompetition(context.Background(), lifecycle.CompetitionInput{
		PricePerTicket: decimal.NewFromInt(-1),
		EndsAt:         &past,
	})
	e := apperr.Convert(err)
	require.Equal(t, apperr.KindValidation, e.Kind)

	var fields []string
	for _, fe := range e.Fields {
		fields = append(fields, fe.Field)
	}
	require.Equal(t, []string{"title", "maxEntries", "markersPerTicket", "pricePerTicket", "invitePassword", "endsAt"}, fields)
}

func TestCloseCompetitionTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 1, 1)

	got, err := f.svc.CloseCompetition(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, spotball.CompetitionClosed, got.Status)

	_, err = f.svc.CloseCompetition(ctx, c.ID)
	requireCode(t, err, apperr.CodeAlreadyClosed)
}

func TestJudgePointAndLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 1, 1)

	_, err := f.svc.SetFinalJudgePoint(ctx, c.ID, lifecycle.JudgePointInput{X: 1.2, Y: -0.1})
	e := requireCode(t, err, apperr.CodeInvalidCoordinate)
	require.Len(t, e.Fields, 2)

	_, err = f.svc.LockResults(ctx, c.ID)
	requireCode(t, err, apperr.CodeCompetitionOpen)

	_, err = f.svc.CloseCompetition(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.LockResults(ctx, c.ID)
	requireCode(t, err, apperr.CodeJudgmentPending)

	got, err := f.svc.SetFinalJudgePoint(ctx, c.ID, lifecycle.JudgePointInput{X: 0.3, Y: 0.4})
	require.NoError(t, err)
	require.Equal(t, &spotball.Point{X: 0.3, Y: 0.4}, got.FinalJudge)

	// Overwrites are allowed until the results are locked.
	_, err = f.svc.SetFinalJudgePoint(ctx, c.ID, lifecycle.JudgePointInput{X: 0.6, Y: 0.7})
	require.NoError(t, err)
	require.Equal(t, int32(2), f.cache.n.Load())

	locked, err := f.svc.LockResults(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, locked.ResultsLocked())

	_, err = f.svc.LockResults(ctx, c.ID)
	requireCode(t, err, apperr.CodeAlreadyLocked)
	_, err = f.svc.SetFinalJudgePoint(ctx, c.ID, lifecycle.JudgePointInput{X: 0.1, Y: 0.1})
	requireCode(t, err, apperr.CodeResultsLocked)

	require.Equal(t, []string{
		spotball.EventCompetitionClosed,
		spotball.EventJudgePointSet,
		spotball.EventJudgePointSet,
		spotball.EventResultsLocked,
	}, f.events.types())
}

func TestRegisterAndDeleteParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 5, 1)

	p, err := f.svc.RegisterParticipant(ctx, c.ID, lifecycle.ParticipantInput{
		Name:  "  Ana Quispe ",
		Phone: "0051 (999) 111-111",
		Email: "ana@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Quispe", p.Name)
	require.Equal(t, "+51999111111", p.Phone)

	_, err = f.svc.RegisterParticipant(ctx, c.ID, lifecycle.ParticipantInput{Name: "Other", Phone: "+51 999 111 111"})
	requireCode(t, err, apperr.CodeParticipantExists)

	_, err = f.svc.RegisterParticipant(ctx, c.ID, lifecycle.ParticipantInput{Phone: "12", Email: "nope"})
	e := apperr.Convert(err)
	require.Len(t, e.Fields, 3)

	f.assign(t, c.ID, p.ID, 3)
	require.NoError(t, f.svc.DeleteParticipant(ctx, c.ID, p.ID))
	requireCode(t, f.svc.DeleteParticipant(ctx, c.ID, p.ID), apperr.CodeParticipantNotFound)

	// Deleted tickets free their slots.
	slots, err := f.svc.RemainingSlots(ctx, c)
	require.NoError(t, err)
	require.Equal(t, 5, slots)
}

func TestDeleteParticipantAfterLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.competition(t, 5, 1)
	p := f.participant(t, c.ID, "+51999111111")

	_, err := f.svc.CloseCompetition(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.SetFinalJudgePoint(ctx, c.ID, lifecycle.JudgePointInput{X: 0.5, Y: 0.5})
	require.NoError(t, err)
	_, err = f.svc.LockResults(ctx, c.ID)
	require.NoError(t, err)

	requireCode(t, f.svc.DeleteParticipant(ctx, c.ID, p.ID), apperr.CodeResultsLocked)
}
