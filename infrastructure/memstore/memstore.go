// Package memstore provides in-memory implementations of the store
// contracts in ports. The surrounding application owns the real
// relational store; these adapters back the engine's tests and the
// riskscan CLI's dataset mode.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/realizewhoitis/training-tracker-sub001/internal/domain"
	"github.com/realizewhoitis/training-tracker-sub001/internal/ports"
)

// Store is a mutex-guarded in-memory template/response/flag store.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	templates map[domain.TemplateID]domain.Template
	responses []domain.Response
	flags     []domain.Flag
}

var (
	_ ports.TemplateStore = (*Store)(nil)
	_ ports.ResponseStore = (*Store)(nil)
	_ ports.FlagStore     = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{templates: make(map[domain.TemplateID]domain.Template)}
}

// PutTemplate adds or replaces a template.
func (s *Store) PutTemplate(tpl domain.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl
}

// AddResponse records a response.
func (s *Store) AddResponse(resp domain.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, resp)
}

// GetTemplate implements ports.TemplateStore.
func (s *Store) GetTemplate(ctx context.Context, id domain.TemplateID) (*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrTemplateNotFound, id)
	}
	return &tpl, nil
}

// ListByTrainee implements ports.ResponseStore. Results are ordered
// ascending by submission date.
func (s *Store) ListByTrainee(ctx context.Context, trainee domain.PersonID, statuses ...domain.ResponseStatus) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Response
	for _, resp := range s.responses {
		if resp.TraineeID != trainee {
			continue
		}
		for _, status := range statuses {
			if resp.Status == status {
				out = append(out, resp)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// ListReviewedSince implements ports.ResponseStore. The lower bound is
// inclusive.
func (s *Store) ListReviewedSince(ctx context.Context, trainee domain.PersonID, since time.Time) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Response
	for _, resp := range s.responses {
		if resp.TraineeID != trainee || resp.Status != domain.StatusReviewed {
			continue
		}
		if resp.SubmittedAt.Before(since) {
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

// CreateFlag implements ports.FlagStore.
func (s *Store) CreateFlag(ctx context.Context, flag *domain.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.flags {
		if existing.ID == flag.ID {
			return fmt.Errorf("%w: %s", domain.ErrFlagExists, flag.ID)
		}
	}
	s.flags = append(s.flags, *flag)
	return nil
}

// Flags returns a snapshot of all persisted flags.
func (s *Store) Flags() []domain.Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Flag, len(s.flags))
	copy(out, s.flags)
	return out
}

// Trainees returns the distinct trainee ids seen across responses, in
// first-seen order. The riskscan CLI uses this to build its sweep.
func (s *Store) Trainees() []domain.PersonID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[domain.PersonID]bool)
	var out []domain.PersonID
	for _, resp := range s.responses {
		if !seen[resp.TraineeID] {
			seen[resp.TraineeID] = true
			out = append(out, resp.TraineeID)
		}
	}
	return out
}
