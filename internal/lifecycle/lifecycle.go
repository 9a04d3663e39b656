// Package lifecycle applies the state transitions of a competition: ticket
// assignment, marker submission, closing, judging and result locking.
// Mutations of one competition never interleave.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/spottheball/internal/apperr"
	"github.com/playperu/spottheball/internal/metrics"
	"github.com/playperu/spottheball/internal/spotball"
	"github.com/playperu/spottheball/internal/store"
)

const DefaultMaxTicketsPerParticipant = 10

// Invalidator drops a cached winner result.
type Invalidator interface {
	Invalidate(ctx context.Context, competitionID string) error
}

// Publisher receives an event after every committed transition.
type Publisher interface {
	Publish(competitionID string, e spotball.Event)
}

type Config struct {
	Repo                     store.Repository
	Cache                    Invalidator
	Publisher                Publisher
	Metrics                  *metrics.Metrics
	Logger                   *slog.Logger
	MaxTicketsPerParticipant int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

type Service struct {
	repo      store.Repository
	cache     Invalidator
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	maxPerP   int
	cost      int
	now       func() time.Time
	locks     keyedMutex
}

func New(c Config) *Service {
	s := &Service{
		repo:      c.Repo,
		cache:     c.Cache,
		publisher: c.Publisher,
		metrics:   c.Metrics,
		logger:    c.Logger,
		maxPerP:   c.MaxTicketsPerParticipant,
		cost:      c.BcryptCost,
		now:       c.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.maxPerP <= 0 {
		s.maxPerP = DefaultMaxTicketsPerParticipant
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// lock serializes mutations of one competition and returns the unlock func.
func (s *Service) lock(competitionID string) func() {
	return s.locks.lock(competitionID)
}

// observe counts a failed operation and logs unexpected failures.
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

func (s *Service) invalidate(ctx context.Context, competitionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, competitionID); err != nil {
		s.logger.Error("invalidate winner cache", "competition_id", competitionID, "error", err)
	}
}

func (s *Service) publish(e spotball.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(e.CompetitionID, e)
}

func (s *Service) competition(ctx context.Context, id string) (spotball.Competition, error) {
	c, err := s.repo.GetCompetition(ctx, id)
	if err != nil {
		return c, notFound(err, apperr.CodeCompetitionNotFound, "competition %s not found", id)
	}
	return c, nil
}

func (s *Service) participant(ctx context.Context, competitionID, participantID string) (spotball.Participant, error) {
	p, err := s.repo.GetParticipant(ctx, competitionID, participantID)
	if err != nil {
		return p, notFound(err, apperr.CodeParticipantNotFound, "participant %s not found", participantID)
	}
	return p, nil
}

// notFound translates store.ErrNotFound; anything else is internal.
func notFound(err error, code, format string, args ...any) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(code, format, args...)
	}
	return apperr.Internal(err)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
