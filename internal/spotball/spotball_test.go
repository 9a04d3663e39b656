package spotball

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "+51 987 654 321", want: "+51987654321"},
		{in: "0051-987-654-321", want: "+51987654321"},
		{in: "(01) 234.5678", want: "+012345678"},
		{in: "12345", wantErr: true},
		{in: "+51 98x 654 321", wantErr: true},
		{in: "1234567890123456", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSameName(t *testing.T) {
	require.True(t, SameName("  Maria  Lopez", "maria lopez"))
	require.False(t, SameName("Maria Lopez", "Mario Lopez"))
}

func TestEntryComplete(t *testing.T) {
	p := Participant{}
	require.False(t, p.EntryComplete(), "no tickets is not a completed entry")

	p.Tickets = []Ticket{{Status: TicketUsed}, {Status: TicketAssigned}}
	require.False(t, p.EntryComplete())

	p.Tickets[1].Status = TicketUsed
	require.True(t, p.EntryComplete())
}

func TestAcceptsEntries(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ends := now.Add(time.Hour)

	c := Competition{Status: CompetitionActive, EndsAt: &ends}
	require.True(t, c.AcceptsEntries(now))
	require.False(t, c.AcceptsEntries(ends))

	c.Status = CompetitionClosed
	require.False(t, c.AcceptsEntries(now))
}

func TestPointValid(t *testing.T) {
	require.True(t, Point{X: 0, Y: 1}.Valid())
	require.False(t, Point{X: -0.01, Y: 0.5}.Valid())
	require.False(t, Point{X: 0.5, Y: 1.0001}.Valid())
	require.InDelta(t, 0.5, Point{X: 0.3, Y: 0.4}.Distance(Point{X: 0.6, Y: 0.8}), 1e-12)
}
