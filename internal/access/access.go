// Package access exchanges credentials for tokens: admin login, the
// competition invite password and participant name+phone authentication.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
	"github.com/playperu/spottheball/internal/token"
)

// Grant is an issued token with its expiry.
type Grant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	repo   store.Repository
	tokens *token.Service
	logger *slog.Logger
}

func New(repo store.Repository, tokens *token.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

func (s *Service) AdminLogin(ctx context.Context, username, password string) (Grant, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		var f apperr.Fields
		f.Require(username != "", "username")
		f.Require(password != "", "password")
		return Grant{}, f.Err()
	}

	a, err := s.repo.AdminByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return Grant{}, invalidCredentials()
	}
	if err != nil {
		return Grant{}, apperr.Internal(fmt.Errorf("find admin: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return Grant{}, invalidCredentials()
	}

	return s.issue(token.KindAdmin, token.AdminClaims(a.ID, a.Username))
}

// VerifyCompetitionPassword checks the invite password and grants read access
// to the competition.
func (s *Service) VerifyCompetitionPassword(ctx context.Context, competitionID, password string) (Grant, error) {
	c, err := s.repo.GetCompetition(ctx, competitionID)
	if errors.Is(err, store.ErrNotFound) {
		return Grant{}, apperr.NotFound(apperr.CodeCompetitionNotFound, "competition %s not found", competitionID)
	}
	if err != nil {
		return Grant{}, apperr.Internal(fmt.Errorf("get competition: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.InvitePasswordHash), []byte(password)); err != nil {
		return Grant{}, apperr.Unauthenticated(apperr.CodeInvalidCredentials, "wrong competition password")
	}

	return s.issue(token.KindCompetitionAccess, token.CompetitionClaims(c.ID))
}

// AuthenticateParticipant finds the participant by phone and requires the
// registered name to match, so a reused phone number cannot impersonate.
func (s *Service) AuthenticateParticipant(ctx context.Context, competitionID, name, phone string) (Grant, spotball.Participant, error) {
	var f apperr.Fields
	f.Require(strings.TrimSpace(name) != "", "name")
	normalized, err := spotball.NormalizePhone(phone)
	if err != nil {
		f.Add("phone", apperr.CodeInvalidPhone, "phone must contain between 7 and 15 digits")
	}
	if err := f.Err(); err != nil {
		return Grant{}, spotball.Participant{}, err
	}

	p, err := s.repo.FindParticipantByPhone(ctx, competitionID, normalized)
	if errors.Is(err, store.ErrNotFound) {
		return Grant{}, spotball.Participant{}, apperr.NotFound(apperr.CodeParticipantNotFound, "no participant registered with this phone")
	}
	if err != nil {
		return Grant{}, spotball.Participant{}, apperr.Internal(fmt.Errorf("find participant: %w", err))
	}
	if !spotball.SameName(p.Name, name) {
		s.logger.Warn("participant name mismatch", "competition_id", competitionID, "participant_id", p.ID)
		return Grant{}, spotball.Participant{}, apperr.New(apperr.KindForbidden, apperr.CodeNameMismatch,
			apperr.WithMessagef("name does not match the registered participant"))
	}

	g, err := s.issue(token.KindParticipantAccess, token.ParticipantClaims(competitionID, p.ID))
	return g, p, err
}

// SeedAdmin creates the configured admin account when it does not exist yet.
func (s *Service) SeedAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(strings.ToLower(username))
	_, err := s.repo.AdminByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.repo.SaveAdmin(ctx, spotball.Admin{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("save admin: %w", err)
	}

	s.logger.Info("admin account seeded", "username", username)
	return nil
}

func (s *Service) issue(kind token.Kind, c token.Claims) (Grant, error) {
	raw, exp, err := s.tokens.Issue(kind, c, 0)
	if err != nil {
		return Grant{}, apperr.Internal(err)
	}
	return Grant{Token: raw, ExpiresAt: exp}, nil
}

func invalidCredentials() error {
	return apperr.Unauthenticated(apperr.CodeInvalidCredentials, "invalid credentials")
}
