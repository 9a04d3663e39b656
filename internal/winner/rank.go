// Package winner ranks submitted tickets by their distance to the judged
// point and exports the flattened results.
package winner

import (
	"math"
	"sort"
	"time"

	"github.com/playperu/spottheball/internal/spotball"
)

// Rank scores every USED ticket by its closest marker and orders the tickets
// ascending by score. Equal scores keep ticket number order. Tickets without
// markers are left out.
func Rank(competitionID string, judge spotball.Point, tickets []spotball.Ticket, computedAt time.Time) spotball.WinnerResult {
	entries := make([]spotball.WinnerEntry, 0, len(tickets))
	for _, t := range tickets {
		if t.Status != spotball.TicketUsed || len(t.Markers) == 0 {
			continue
		}
		best := math.Inf(1)
		for _, m := range t.Markers {
			best = min(best, judge.Distance(m.Point()))
		}
		entries = append(entries, spotball.WinnerEntry{
			TicketID:      t.ID,
			TicketNumber:  t.TicketNumber,
			ParticipantID: t.ParticipantID,
			Distance:      best,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Distance != entries[j].Distance {
			return entries[i].Distance < entries[j].Distance
		}
		return entries[i].TicketNumber < entries[j].TicketNumber
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return spotball.WinnerResult{
		CompetitionID: competitionID,
		Judge:         judge,
		Entries:       entries,
		ComputedAt:    computedAt,
	}
}
