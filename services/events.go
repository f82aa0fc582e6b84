package services

import (
	"context"

	"github.com/cppla/agp/models"
	"github.com/cppla/agp/repository"
)

// Tx is one engine operation bound to a database transaction. Every award
// posted through it is recorded so post-commit work (cache invalidation,
// metrics) only sees committed entries.
type Tx struct {
	repository.Store

	posted []models.PointsTransaction
	depth  int
}

func newTx(store repository.Store) *Tx {
	return &Tx{Store: store}
}

// Posted returns the ledger entries written so far in this operation.
func (t *Tx) Posted() []models.PointsTransaction {
	return t.posted
}

// PointsAwarded is published after a ledger entry and its balance increment
// have been written.
type PointsAwarded struct {
	Transaction models.PointsTransaction
}

// Subscriber reacts to awards inside the same transaction. A returned error
// aborts the whole operation.
type Subscriber interface {
	HandlePointsAwarded(ctx context.Context, tx *Tx, event PointsAwarded) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, tx *Tx, event PointsAwarded) error

func (f SubscriberFunc) HandlePointsAwarded(ctx context.Context, tx *Tx, event PointsAwarded) error {
	return f(ctx, tx, event)
}

// Awarder posts a ledger entry inside an existing operation.
type Awarder interface {
	Award(ctx context.Context, tx *Tx, req AwardRequest) (*models.PointsTransaction, error)
}
