package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/spottheball/internal/access"
	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
	"github.com/playperu/spottheball/internal/token"
)

func setup(t *testing.T) (*access.Service, *store.Memory, *token.Service) {
	t.Helper()
	repo := store.NewMemory()
	tokens, err := token.NewService(token.Config{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, repo.CreateCompetition(ctx, spotball.Competition{
		ID:                 "c1",
		Title:              "Derby",
		MaxEntries:         10,
		MarkersPerTicket:   1,
		Status:             spotball.CompetitionActive,
		InvitePasswordHash: string(hash),
	}))
	require.NoError(t, repo.SaveParticipant(ctx, spotball.Participant{
		ID:            "p1",
		CompetitionID: "c1",
		Name:          "Ana Quispe",
		Phone:         "+51999111111",
	}))

	return access.New(repo, tokens, nil), repo, tokens
}

func TestAdminLogin(t *testing.T) {
	svc, _, tokens := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.SeedAdmin(ctx, "Admin", "s3cret"))
	// Seeding again keeps the existing account.
	require.NoError(t, svc.SeedAdmin(ctx, "admin", "other"))

	g, err := svc.AdminLogin(ctx, " ADMIN ", "s3cret")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(token.DefaultAdminTTL), g.ExpiresAt, time.Minute)

	claims, err := tokens.Verify(g.Token)
	require.NoError(t, err)
	require.True(t, claims.MatchesKind(token.KindAdmin))
	require.Equal(t, "admin", claims.Username)

	_, err = svc.AdminLogin(ctx, "admin", "other")
	require.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
	_, err = svc.AdminLogin(ctx, "nobody", "s3cret")
	require.Equal(t, apperr.CodeInvalidCredentials, apperr.CodeOf(err))
	require.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = svc.AdminLogin(ctx, "", "")
	require.Len(t, apperr.Convert(err).Fields, 2)
}

func TestVerifyCompetitionPassword(t *testing.T) {
	svc, _, tokens := setup(t)
	ctx := context.Background()

	g, err := svc.VerifyCompetitionPassword(ctx, "c1", "letmein")
	require.NoError(t, err)
	claims, err := tokens.Verify(g.Token)
	require.NoError(t, err)
	require.True(t, claims.MatchesKind(token.KindCompetitionAccess))
	require.Equal(t, "c1", claims.CompetitionID)

	_, err = svc.VerifyCompetitionPassword(ctx, "c1", "wrong")
	require.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = svc.VerifyCompetitionPassword(ctx, "c2", "letmein")
	require.Equal(t, apperr.CodeCompetitionNotFound, apperr.CodeOf(err))
}

func TestAuthenticateParticipant(t *testing.T) {
	svc, _, tokens := setup(t)
	ctx := context.Background()

	g, p, err := svc.AuthenticateParticipant(ctx, "c1", "ana  QUISPE", "+51 999-111-111")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	claims, err := tokens.Verify(g.Token)
	require.NoError(t, err)
	require.True(t, claims.MatchesKind(token.KindParticipantAccess))
	require.Equal(t, "p1", claims.ParticipantID)

	_, _, err = svc.AuthenticateParticipant(ctx, "c1", "Someone Else", "+51999111111")
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Equal(t, apperr.CodeNameMismatch, apperr.CodeOf(err))

	_, _, err = svc.AuthenticateParticipant(ctx, "c1", "Ana Quispe", "+51999000000")
	require.Equal(t, apperr.CodeParticipantNotFound, apperr.CodeOf(err))

	_, _, err = svc.AuthenticateParticipant(ctx, "c1", "", "abc")
	require.Len(t, apperr.Convert(err).Fields, 2)
}
