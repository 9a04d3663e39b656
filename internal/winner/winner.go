package winner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/metrics"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
)

type Publisher interface {
	Publish(competitionID string, e spotball.Event)
}

type Config struct {
	Repo      store.Repository
	Cache     Cache
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service computes rankings from persisted state. It takes no locks; a
// cached result is only served while it matches a fresh ranking.
type Service struct {
	repo      store.Repository
	cache     Cache
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func New(c Config) *Service {
	s := &Service{
		repo:      c.Repo,
		cache:     c.Cache,
		publisher: c.Publisher,
		metrics:   c.Metrics,
		logger:    c.Logger,
		now:       c.Now,
	}
	if s.cache == nil {
		s.cache = NewMemoryCache()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// ComputeWinners ranks the competition from scratch. Once results are locked
// it returns the locked ranking instead.
func (s *Service) ComputeWinners(ctx context.Context, competitionID string) (_ spotball.WinnerResult, err error) {
	defer s.observe("compute_winners", &err)

	c, tickets, err := s.snapshot(ctx, competitionID)
	if err != nil {
		return spotball.WinnerResult{}, err
	}
	if c.ResultsLocked() {
		return s.cachedOrFresh(ctx, c, tickets), nil
	}

	r := Rank(c.ID, *c.FinalJudge, tickets, s.now())
	s.store(ctx, r)

	s.logger.Info("winners computed", "competition_id", c.ID, "ranked_tickets", len(r.Entries))
	if s.publisher != nil {
		s.publisher.Publish(c.ID, spotball.Event{
			Type:          spotball.EventWinnersComputed,
			CompetitionID: c.ID,
			Count:         len(r.Entries),
		})
	}
	return r, nil
}

// Result returns the cached ranking, computing it on a miss.
func (s *Service) Result(ctx context.Context, competitionID string) (_ spotball.WinnerResult, err error) {
	defer s.observe("get_winners", &err)

	c, tickets, err := s.snapshot(ctx, competitionID)
	if err != nil {
		return spotball.WinnerResult{}, err
	}
	return s.cachedOrFresh(ctx, c, tickets), nil
}

func (s *Service) snapshot(ctx context.Context, competitionID string) (spotball.Competition, []spotball.Ticket, error) {
	c, err := s.repo.GetCompetition(ctx, competitionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c, nil, apperr.NotFound(apperr.CodeCompetitionNotFound, "competition %s not found", competitionID)
		}
		return c, nil, fmt.Errorf("get competition: %w", err)
	}
	if c.FinalJudge == nil {
		return c, nil, apperr.Precondition(apperr.CodeJudgmentPending, "final judge point is not set")
	}
	tickets, err := s.repo.ListTickets(ctx, competitionID)
	if err != nil {
		return c, nil, fmt.Errorf("list tickets: %w", err)
	}
	return c, tickets, nil
}

// cachedOrFresh serves the cached result when its ranking still matches the
// snapshot, so that computedAt stays stable between reads.
func (s *Service) cachedOrFresh(ctx context.Context, c spotball.Competition, tickets []spotball.Ticket) spotball.WinnerResult {
	at := s.now()
	if c.ResultsLocked() {
		at = *c.ResultsLockedAt
	}
	fresh := Rank(c.ID, *c.FinalJudge, tickets, at)
	fresh.Locked = c.ResultsLocked()

	cached, ok, err := s.cache.Get(ctx, c.ID)
	if err != nil {
		s.logger.Error("read winner cache", "competition_id", c.ID, "error", err)
	}
	if ok && cached.Judge == fresh.Judge && slices.Equal(cached.Entries, fresh.Entries) {
		cached.Locked = fresh.Locked
		if fresh.Locked {
			cached.ComputedAt = fresh.ComputedAt
		}
		return cached
	}

	s.store(ctx, fresh)
	return fresh
}

func (s *Service) store(ctx context.Context, r spotball.WinnerResult) {
	s.metrics.WinnerComputed()
	if err := s.cache.Set(ctx, r); err != nil {
		s.logger.Error("write winner cache", "competition_id", r.CompetitionID, "error", err)
	}
}

// Invalidate drops the cached result of a competition.
func (s *Service) Invalidate(ctx context.Context, competitionID string) error {
	return s.cache.Invalidate(ctx, competitionID)
}

func (s *Service) observe(op string, err *error) {
	if *err == nil {
		return
	}
	e := apperr.Convert(*err)
	*err = e
	s.metrics.OperationFailed(op, e.Code)
	if e.Kind == apperr.KindInternal {
		s.logger.Error("operation failed", "operation", op, "error", e.Unwrap())
	}
}
