// Package token issues and verifies the three classes of signed,
// time-limited access tokens. Verification is stateless: there is no
// server-side session store, only the process-wide signing secret.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAdmin             Kind = "admin_token"
	KindCompetitionAccess Kind = "competition_access"
	KindParticipantAccess Kind = "participant_access"
)

const RoleAdmin = "ADMIN"

const (
	DefaultAdminTTL       = 12 * time.Hour
	DefaultCompetitionTTL = time.Hour
	DefaultParticipantTTL = 24 * time.Hour
)

var (
	ErrExpiredToken = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the union of the three claim shapes. Which fields are set is
// determined by Kind; see MatchesKind.
type Claims struct {
	Kind          Kind   `json:"kind"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
	CompetitionID string `json:"competitionId,omitempty"`
	ParticipantID string `json:"participantId,omitempty"`
	jwt.RegisteredClaims
}

// MatchesKind reports whether the claims have exactly the shape of kind k.
func (c Claims) MatchesKind(k Kind) bool {
	if c.Kind != k {
		return false
	}
	switch k {
	case KindAdmin:
		return c.Subject != "" && c.Username != "" && c.Role == RoleAdmin &&
			c.CompetitionID == "" && c.ParticipantID == ""
	case KindCompetitionAccess:
		return c.CompetitionID != "" && c.ParticipantID == "" &&
			c.Role == "" && c.Username == ""
	case KindParticipantAccess:
		return c.CompetitionID != "" && c.ParticipantID != "" &&
			c.Role == "" && c.Username == ""
	}
	return false
}

func AdminClaims(adminID, username string) Claims {
	return Claims{
		Username:         username,
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: adminID},
	}
}

func CompetitionClaims(competitionID string) Claims {
	return Claims{CompetitionID: competitionID}
}

func ParticipantClaims(competitionID, participantID string) Claims {
	return Claims{CompetitionID: competitionID, ParticipantID: participantID}
}

type Config struct {
	Secret         string
	Issuer         string
	AdminTTL       time.Duration
	CompetitionTTL time.Duration
	ParticipantTTL time.Duration
	Now            func() time.Time
}

type Service struct {
	secret []byte
	issuer string
	ttls   map[Kind]time.Duration
	now    func() time.Time
}

func NewService(c Config) (*Service, error) {
	if len(c.Secret) < 16 {
		return nil, errors.New("token secret must be at least 16 bytes")
	}
	s := &Service{
		secret: []byte(c.Secret),
		issuer: c.Issuer,
		ttls: map[Kind]time.Duration{
			KindAdmin:             orDefault(c.AdminTTL, DefaultAdminTTL),
			KindCompetitionAccess: orDefault(c.CompetitionTTL, DefaultCompetitionTTL),
			KindParticipantAccess: orDefault(c.ParticipantTTL, DefaultParticipantTTL),
		},
		now: c.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.issuer == "" {
		s.issuer = "spottheball"
	}
	return s, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// TTL returns the configured lifetime for kind.
func (s *Service) TTL(kind Kind) time.Duration {
	return s.ttls[kind]
}

// Issue signs claims as a token of the given kind. A non-positive ttl uses
// the configured lifetime of the kind.
func (s *Service) Issue(kind Kind, c Claims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttls[kind]
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	c.Kind = kind
	if !c.MatchesKind(kind) {
		return "", time.Time{}, fmt.Errorf("claims do not match kind %s", kind)
	}
	c.Issuer = s.issuer
	c.ID = uuid.NewString()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(expiresAt)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the claims. It does not
// check the claim shape; callers compare against the kind they require.
func (s *Service) Verify(raw string) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Claims{}, ErrExpiredToken
	}
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return c, nil
}
