// Package ports defines the contracts between the scoring core and its
// external collaborators: the template, response, and flag stores plus
// the observability surface. These interfaces enable dependency
// inversion and make the engine testable against in-memory adapters.
package ports

import (
	"context"
	"time"

	"github.com/realizewhoitis/training-tracker-sub001/internal/domain"
)

// TemplateStore provides read access to evaluation templates. Templates
// are authored elsewhere; the core never writes them.
type TemplateStore interface {
	// GetTemplate returns the template with the given id, or an error
	// wrapping domain.ErrTemplateNotFound when it does not exist.
	GetTemplate(ctx context.Context, id domain.TemplateID) (*domain.Template, error)
}

// ResponseStore provides read access to evaluation submissions for one
// trainee. Implementations back onto the surrounding application's
// relational store; the core only reads.
type ResponseStore interface {
	// ListByTrainee returns the trainee's responses whose status is one of
	// the given statuses, ordered ascending by submission date.
	ListByTrainee(ctx context.Context, trainee domain.PersonID, statuses ...domain.ResponseStatus) ([]domain.Response, error)

	// ListReviewedSince returns the trainee's REVIEWED responses with a
	// submission date at or after since, in no particular order.
	ListReviewedSince(ctx context.Context, trainee domain.PersonID, since time.Time) ([]domain.Response, error)
}

// FlagStore persists early-intervention flags. Creation is the only
// operation this core performs; resolution is owned elsewhere.
type FlagStore interface {
	// CreateFlag persists a new flag. The store must not mutate the flag.
	CreateFlag(ctx context.Context, flag *domain.Flag) error
}
