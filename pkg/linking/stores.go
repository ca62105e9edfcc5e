package linking

import (
	"context"
	"errors"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

var (
	// ErrInvalidInput is returned for requests rejected before any record is read.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersistence wraps store write failures captured as failed decisions.
	ErrPersistence = errors.New("persistence error")
	// ErrRunInProgress is returned when another run holds the run lock.
	ErrRunInProgress = errors.New("an auto-link run is already in progress")
)

// RecordStore reads service listings without a provider and writes their links.
type RecordStore interface {
	ListUnlinked(ctx context.Context) ([]models.UnlinkedRecord, error)
	// SetLink must fail if the record is already linked.
	SetLink(ctx context.Context, recordID, entityID string) error
}

// EntityStore reads and creates providers.
type EntityStore interface {
	ListAll(ctx context.Context) ([]models.CandidateEntity, error)
	Create(ctx context.Context, entity models.NewEntity) (string, error)
}

// Transactor runs fn so that every store write made with the ctx it receives
// commits or rolls back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunLocker provides the single-writer lock held by non dry-run batches.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Observer is notified after writes commit. Implementations handle their own errors.
type Observer interface {
	ProviderCreated(ctx context.Context, provider models.CandidateEntity, recordIDs []string)
	ServiceLinked(ctx context.Context, decision models.MatchDecision)
}
