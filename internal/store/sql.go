package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/spottheball/internal/spotball"
)

// SQLStore implements Repository on the libSQL database opened by
// database.Open and migrated by migrations.Run.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const competitionColumns = `id, title, image_url, max_entries, price_per_ticket, markers_per_ticket,
	status, final_judge_x, final_judge_y, invite_password_hash, ends_at, results_locked_at, created_at`

func (s *SQLStore) CreateCompetition(ctx context.Context, c spotball.Competition) error {
	var judgeX, judgeY sql.NullFloat64
	if c.FinalJudge != nil {
		judgeX = sql.NullFloat64{Float64: c.FinalJudge.X, Valid: true}
		judgeY = sql.NullFloat64{Float64: c.FinalJudge.Y, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitions (`+competitionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Title, c.ImageURL, c.MaxEntries, c.PricePerTicket.String(), c.MarkersPerTicket,
		string(c.Status), judgeX, judgeY, c.InvitePasswordHash,
		formatNullTime(c.EndsAt), formatNullTime(c.ResultsLockedAt), formatTime(c.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("competition %s: %w", c.ID, ErrConflict)
	}
	return err
}

func (s *SQLStore) GetCompetition(ctx context.Context, id string) (spotball.Competition, error) {
	return getCompetition(ctx, s.db, id)
}

func getCompetition(ctx context.Context, q querier, id string) (spotball.Competition, error) {
	row := q.QueryRowContext(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE id = ?`, id)
	c, err := scanCompetition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return spotball.Competition{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) ListCompetitions(ctx context.Context) ([]spotball.Competition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+competitionColumns+` FROM competitions
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []spotball.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateCompetition(ctx context.Context, id string, patch spotball.CompetitionPatch) (spotball.Competition, error) {
	var updated spotball.Competition
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getCompetition(ctx, tx, id)
		if err != nil {
			return err
		}
		c = patch.Apply(c)

		var judgeX, judgeY sql.NullFloat64
		if c.FinalJudge != nil {
			judgeX = sql.NullFloat64{Float64: c.FinalJudge.X, Valid: true}
			judgeY = sql.NullFloat64{Float64: c.FinalJudge.Y, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE competitions SET title = ?, image_url = ?, max_entries = ?, price_per_ticket = ?,
				markers_per_ticket = ?, status = ?, final_judge_x = ?, final_judge_y = ?,
				invite_password_hash = ?, ends_at = ?, results_locked_at = ?
			WHERE id = ?
		`, c.Title, c.ImageURL, c.MaxEntries, c.PricePerTicket.String(), c.MarkersPerTicket,
			string(c.Status), judgeX, judgeY, c.InvitePasswordHash,
			formatNullTime(c.EndsAt), formatNullTime(c.ResultsLockedAt), id)
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	return updated, err
}

func (s *SQLStore) ListTickets(ctx context.Context, competitionID string) ([]spotball.Ticket, error) {
	var out []spotball.Ticket
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCompetition(ctx, tx, competitionID); err != nil {
			return err
		}
		var err error
		out, err = listTickets(ctx, tx, `t.competition_id = ?`, competitionID)
		return err
	})
	return out, err
}

func (s *SQLStore) CreateTickets(ctx context.Context, competitionID string, specs []spotball.TicketSpec) ([]spotball.Ticket, error) {
	var created []spotball.Ticket
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var seq int
		err := tx.QueryRowContext(ctx,
			`SELECT ticket_seq FROM competitions WHERE id = ?`, competitionID,
		).Scan(&seq)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		now := s.now()
		for _, spec := range specs {
			var owner string
			err := tx.QueryRowContext(ctx,
				`SELECT competition_id FROM participants WHERE id = ?`, spec.ParticipantID,
			).Scan(&owner)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != competitionID) {
				return fmt.Errorf("participant %s: %w", spec.ParticipantID, ErrNotFound)
			}
			if err != nil {
				return err
			}

			seq++
			t := spotball.Ticket{
				ID:             uuid.NewString(),
				CompetitionID:  competitionID,
				ParticipantID:  spec.ParticipantID,
				TicketNumber:   seq,
				Status:         spec.Status,
				MarkersAllowed: spec.MarkersAllowed,
				CreatedAt:      now,
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tickets (id, competition_id, participant_id, ticket_number, status,
					markers_allowed, markers_used, created_at)
				VALUES (?, ?, ?, ?, ?, ?, 0, ?)
			`, t.ID, t.CompetitionID, t.ParticipantID, t.TicketNumber, string(t.Status),
				t.MarkersAllowed, formatTime(t.CreatedAt))
			if err != nil {
				return fmt.Errorf("inserting ticket: %w", err)
			}
			created = append(created, t)
		}

		_, err = tx.ExecContext(ctx, `UPDATE competitions SET ticket_seq = ? WHERE id = ?`, seq, competitionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLStore) SubmitTickets(ctx context.Context, competitionID string, subs []spotball.TicketSubmission) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, sub := range subs {
			res, err := tx.ExecContext(ctx, `
				UPDATE tickets SET status = 'USED', markers_used = ?, submitted_at = ?
				WHERE id = ? AND competition_id = ? AND status = 'ASSIGNED'
			`, len(sub.Markers), formatTime(sub.SubmittedAt), sub.TicketID, competitionID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("ticket %s not assignable: %w", sub.TicketID, ErrConflict)
			}

			for i, m := range sub.Markers {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO markers (id, ticket_id, position, x, y, label)
					VALUES (?, ?, ?, ?, ?, ?)
				`, m.ID, sub.TicketID, i+1, m.X, m.Y, m.Label)
				if err != nil {
					return fmt.Errorf("inserting marker: %w", err)
				}
			}
		}
		return nil
	})
}

const participantColumns = `id, competition_id, name, phone, email, created_at`

func (s *SQLStore) GetParticipant(ctx context.Context, competitionID, participantID string) (spotball.Participant, error) {
	return s.findParticipant(ctx, `id = ? AND competition_id = ?`, participantID, competitionID)
}

func (s *SQLStore) FindParticipantByPhone(ctx context.Context, competitionID, phone string) (spotball.Participant, error) {
	return s.findParticipant(ctx, `competition_id = ? AND phone = ?`, competitionID, phone)
}

func (s *SQLStore) findParticipant(ctx context.Context, where string, args ...any) (spotball.Participant, error) {
	var p spotball.Participant
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		p, err = scanParticipant(tx.QueryRowContext(ctx,
			`SELECT `+participantColumns+` FROM participants WHERE `+where, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		p.Tickets, err = listTickets(ctx, tx, `t.participant_id = ?`, p.ID)
		return err
	})
	return p, err
}

func (s *SQLStore) ListParticipants(ctx context.Context, competitionID string) ([]spotball.Participant, error) {
	var out []spotball.Participant
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCompetition(ctx, tx, competitionID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT `+participantColumns+` FROM participants
			WHERE competition_id = ?
			ORDER BY created_at, id
		`, competitionID)
		if err != nil {
			return err
		}
		for rows.Next() {
			p, err := scanParticipant(rows)
			if err != nil {
				rows.Close()
				return err
			}
			out = append(out, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		tickets, err := listTickets(ctx, tx, `t.competition_id = ?`, competitionID)
		if err != nil {
			return err
		}
		byOwner := make(map[string][]spotball.Ticket)
		for _, t := range tickets {
			byOwner[t.ParticipantID] = append(byOwner[t.ParticipantID], t)
		}
		for i := range out {
			out[i].Tickets = byOwner[out[i].ID]
		}
		return nil
	})
	return out, err
}

func (s *SQLStore) SaveParticipant(ctx context.Context, p spotball.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (`+participantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, phone = excluded.phone, email = excluded.email
	`, p.ID, p.CompetitionID, p.Name, p.Phone, p.Email, formatTime(p.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("phone already registered: %w", ErrConflict)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("competition %s: %w", p.CompetitionID, ErrNotFound)
	}
	return err
}

func (s *SQLStore) DeleteParticipant(ctx context.Context, competitionID, participantID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM markers WHERE ticket_id IN (SELECT id FROM tickets WHERE participant_id = ?)
		`, participantID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE participant_id = ?`, participantID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM participants WHERE id = ? AND competition_id = ?`, participantID, competitionID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLStore) AdminByUsername(ctx context.Context, username string) (spotball.Admin, error) {
	var a spotball.Admin
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash FROM admins WHERE username = ?
	`, username).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) SaveAdmin(ctx context.Context, a spotball.Admin) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash
	`, a.ID, a.Username, a.PasswordHash)
	return err
}

// listTickets loads tickets matching where (aliased as t) with their markers,
// ordered by ticket number.
func listTickets(ctx context.Context, q querier, where string, arg any) ([]spotball.Ticket, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.competition_id, t.participant_id, t.ticket_number, t.status,
			t.markers_allowed, t.markers_used, t.submitted_at, t.created_at
		FROM tickets t
		WHERE `+where+`
		ORDER BY t.ticket_number
	`, arg)
	if err != nil {
		return nil, err
	}

	var tickets []spotball.Ticket
	index := make(map[string]int)
	for rows.Next() {
		var t spotball.Ticket
		var status, createdAt string
		var submittedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.CompetitionID, &t.ParticipantID, &t.TicketNumber, &status,
			&t.MarkersAllowed, &t.MarkersUsed, &submittedAt, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		t.Status = spotball.TicketStatus(status)
		t.CreatedAt = parseTime(createdAt)
		t.SubmittedAt = parseNullTime(submittedAt)
		index[t.ID] = len(tickets)
		tickets = append(tickets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return tickets, nil
	}

	mrows, err := q.QueryContext(ctx, `
		SELECT m.id, m.ticket_id, m.x, m.y, m.label
		FROM markers m
		JOIN tickets t ON t.id = m.ticket_id
		WHERE `+where+`
		ORDER BY m.ticket_id, m.position
	`, arg)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()

	for mrows.Next() {
		var m spotball.Marker
		if err := mrows.Scan(&m.ID, &m.TicketID, &m.X, &m.Y, &m.Label); err != nil {
			return nil, err
		}
		if i, ok := index[m.TicketID]; ok {
			tickets[i].Markers = append(tickets[i].Markers, m)
		}
	}
	return tickets, mrows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompetition(row scanner) (spotball.Competition, error) {
	var c spotball.Competition
	var price, status, createdAt string
	var judgeX, judgeY sql.NullFloat64
	var endsAt, lockedAt sql.NullString
	err := row.Scan(&c.ID, &c.Title, &c.ImageURL, &c.MaxEntries, &price, &c.MarkersPerTicket,
		&status, &judgeX, &judgeY, &c.InvitePasswordHash, &endsAt, &lockedAt, &createdAt)
	if err != nil {
		return c, err
	}
	if err := c.PricePerTicket.Scan(price); err != nil {
		return c, fmt.Errorf("price_per_ticket: %w", err)
	}
	c.Status = spotball.CompetitionStatus(status)
	if judgeX.Valid && judgeY.Valid {
		c.FinalJudge = &spotball.Point{X: judgeX.Float64, Y: judgeY.Float64}
	}
	c.EndsAt = parseNullTime(endsAt)
	c.ResultsLockedAt = parseNullTime(lockedAt)
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func scanParticipant(row scanner) (spotball.Participant, error) {
	var p spotball.Participant
	var createdAt string
	err := row.Scan(&p.ID, &p.CompetitionID, &p.Name, &p.Phone, &p.Email, &createdAt)
	p.CreatedAt = parseTime(createdAt)
	return p, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

var _ Repository = (*SQLStore)(nil)
