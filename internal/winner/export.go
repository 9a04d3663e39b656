package winner

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
)

// ExportHeader is the fixed column order of the results export.
var ExportHeader = []string{
	"competitionId", "competitionTitle",
	"participantId", "participantName", "participantPhone",
	"ticketId", "ticketNumber", "ticketStatus",
	"markerId", "markerX", "markerY",
	"distanceToFinal", "winnerRank",
	"finalJudgeX", "finalJudgeY", "computedAt",
}

// ExportRow is one participant x ticket x marker combination. Ticket and
// marker fields stay empty for participants without tickets and tickets
// without markers.
type ExportRow struct {
	CompetitionID    string
	CompetitionTitle string
	ParticipantID    string
	ParticipantName  string
	ParticipantPhone string
	TicketID         string
	TicketNumber     int
	TicketStatus     spotball.TicketStatus
	MarkerID         string
	Marker           *spotball.Point
	DistanceToFinal  *float64
	WinnerRank       int
	FinalJudge       *spotball.Point
	ComputedAt       *time.Time
}

// ExportResultRows enumerates every participant, ticket and marker of the
// competition. Ranking columns are filled once a judge point exists.
func (s *Service) ExportResultRows(ctx context.Context, competitionID string) (_ []ExportRow, err error) {
	defer s.observe("export_results", &err)

	c, err := s.repo.GetCompetition(ctx, competitionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeCompetitionNotFound, "competition %s not found", competitionID)
		}
		return nil, fmt.Errorf("get competition: %w", err)
	}

	var result *spotball.WinnerResult
	if c.FinalJudge != nil {
		tickets, err := s.repo.ListTickets(ctx, competitionID)
		if err != nil {
			return nil, fmt.Errorf("list tickets: %w", err)
		}
		r := s.cachedOrFresh(ctx, c, tickets)
		result = &r
	}

	participants, err := s.repo.ListParticipants(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	var rows []ExportRow
	for _, p := range participants {
		base := ExportRow{
			CompetitionID:    c.ID,
			CompetitionTitle: c.Title,
			ParticipantID:    p.ID,
			ParticipantName:  p.Name,
			ParticipantPhone: p.Phone,
		}
		if result != nil {
			judge := result.Judge
			at := result.ComputedAt
			base.FinalJudge = &judge
			base.ComputedAt = &at
		}
		if len(p.Tickets) == 0 {
			rows = append(rows, base)
			continue
		}

		for _, t := range p.Tickets {
			row := base
			row.TicketID = t.ID
			row.TicketNumber = t.TicketNumber
			row.TicketStatus = t.Status
			if result != nil {
				row.WinnerRank = result.RankOf(t.ID)
			}
			if len(t.Markers) == 0 {
				rows = append(rows, row)
				continue
			}
			for _, m := range t.Markers {
				mr := row
				pt := m.Point()
				mr.MarkerID = m.ID
				mr.Marker = &pt
				if result != nil {
					d := result.Judge.Distance(pt)
					mr.DistanceToFinal = &d
				}
				rows = append(rows, mr)
			}
		}
	}
	return rows, nil
}

// Record renders the row in ExportHeader order.
func (r ExportRow) Record() []string {
	rec := []string{
		r.CompetitionID, safeCell(r.CompetitionTitle),
		r.ParticipantID, safeCell(r.ParticipantName), r.ParticipantPhone,
		r.TicketID, "", string(r.TicketStatus),
		r.MarkerID, "", "",
		formatFloatPtr(r.DistanceToFinal), "",
		"", "", "",
	}
	if r.TicketNumber > 0 {
		rec[6] = strconv.Itoa(r.TicketNumber)
	}
	if r.Marker != nil {
		rec[9] = formatFloat(r.Marker.X)
		rec[10] = formatFloat(r.Marker.Y)
	}
	if r.WinnerRank > 0 {
		rec[12] = strconv.Itoa(r.WinnerRank)
	}
	if r.FinalJudge != nil {
		rec[13] = formatFloat(r.FinalJudge.X)
		rec[14] = formatFloat(r.FinalJudge.Y)
	}
	if r.ComputedAt != nil {
		rec[15] = r.ComputedAt.UTC().Format(time.RFC3339)
	}
	return rec
}

// safeCell keeps spreadsheets from evaluating free text as a formula.
// Phones are stored as digits only and need no escaping.
func safeCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// WriteCSV writes the header followed by every row.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
