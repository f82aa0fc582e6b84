package services

import (
	"context"
	"errors"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/agp/models"
	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/repository"
)

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 200

	// maxAwardDepth bounds subscriber re-entrancy within one operation.
	maxAwardDepth = 8
)

// BalanceCache is an optional read-through cache for balances. Entries are
// dropped after every commit that touched the user.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID string) (int64, bool)
	SetBalance(ctx context.Context, userID string, points int64)
	Invalidate(ctx context.Context, userID string)
}

// AwardRequest describes one ledger entry to post.
type AwardRequest struct {
	UserID            string
	Amount            int64
	Type              models.PointsTransactionType
	Description       string
	RelatedEntityID   string
	RelatedEntityType string
}

func (r AwardRequest) validate() error {
	if r.UserID == "" {
		return invalid("user id is required")
	}
	if !r.Type.Valid() {
		return invalid("unknown transaction type %q", r.Type)
	}
	return nil
}

// PointsService owns the ledger and user balances. Every award runs the
// registered subscribers in order inside the same transaction.
type PointsService struct {
	store       repository.Store
	clock       Clock
	logger      *zap.Logger
	metrics     *observability.Metrics
	cache       BalanceCache
	locks       *keyedMutex
	subscribers []Subscriber
}

func NewPointsService(store repository.Store, opts Options) *PointsService {
	opts = opts.withDefaults()
	return &PointsService{
		store:   store,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		cache:   opts.Cache,
		locks:   newKeyedMutex(),
	}
}

// Subscribe appends sub to the dispatch list. Not safe to call while
// operations are running.
func (s *PointsService) Subscribe(sub Subscriber) {
	s.subscribers = append(s.subscribers, sub)
}

// Run executes fn as one atomic operation for userID. Operations for the
// same user are serialized.
func (s *PointsService) Run(ctx context.Context, userID string, fn func(tx *Tx) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	var posted []models.PointsTransaction
	err := s.store.Transaction(ctx, func(store repository.Store) error {
		tx := newTx(store)
		if err := fn(tx); err != nil {
			return err
		}
		posted = tx.Posted()
		return nil
	})
	if err != nil {
		return err
	}
	s.committed(ctx, posted)
	return nil
}

func (s *PointsService) committed(ctx context.Context, posted []models.PointsTransaction) {
	touched := make(map[string]struct{}, 1)
	for _, p := range posted {
		s.metrics.ObserveTransaction(string(p.Type), p.Amount)
		if p.Type == models.TxAchievement {
			s.metrics.ObserveAchievementUnlocked(p.RelatedEntityID)
		}
		touched[p.UserID] = struct{}{}
	}
	if s.cache == nil {
		return
	}
	for id := range touched {
		s.cache.Invalidate(ctx, id)
	}
}

// AddPoints posts a ledger entry, increments the balance and runs the
// achievement and streak rules, all or nothing.
func (s *PointsService) AddPoints(ctx context.Context, req AwardRequest) (*models.PointsTransaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var out *models.PointsTransaction
	err := s.Run(ctx, req.UserID, func(tx *Tx) error {
		var err error
		out, err = s.Award(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Award posts req inside an operation that is already running. Subscribers
// see the entry after the balance has been incremented.
func (s *PointsService) Award(ctx context.Context, tx *Tx, req AwardRequest) (*models.PointsTransaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if tx.depth >= maxAwardDepth {
		return nil, invalid("award chain for user %q exceeds depth %d", req.UserID, maxAwardDepth)
	}

	user, err := tx.Users().Get(ctx, req.UserID)
	if err != nil {
		return nil, persistErr("load user", err)
	}
	if user == nil {
		return nil, notFound("user", req.UserID)
	}

	entry := &models.PointsTransaction{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		Amount:            req.Amount,
		Type:              req.Type,
		Description:       req.Description,
		Timestamp:         s.clock.Now(),
		RelatedEntityID:   req.RelatedEntityID,
		RelatedEntityType: req.RelatedEntityType,
	}
	if err := tx.Ledger().Insert(ctx, entry); err != nil {
		return nil, persistErr("insert ledger entry", err)
	}
	if err := tx.Users().IncrementPoints(ctx, req.UserID, req.Amount); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, notFound("user", req.UserID)
		}
		return nil, persistErr("increment balance", err)
	}
	tx.posted = append(tx.posted, *entry)

	s.logger.Debug("points awarded",
		zap.String("user_id", entry.UserID),
		zap.String("type", string(entry.Type)),
		zap.Int64("amount", entry.Amount),
		zap.Int("depth", tx.depth),
	)

	tx.depth++
	defer func() { tx.depth-- }()
	event := PointsAwarded{Transaction: *entry}
	for _, sub := range s.subscribers {
		if err := sub.HandlePointsAwarded(ctx, tx, event); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// GetPointsBalance returns the stored balance, or 0 for an unknown user.
// A cache miss is filled under the user's lock so a concurrent commit cannot
// be overwritten by the value read before it.
func (s *PointsService) GetPointsBalance(ctx context.Context, userID string) (int64, error) {
	if s.cache != nil {
		if v, ok := s.cache.GetBalance(ctx, userID); ok {
			return v, nil
		}
		unlock := s.locks.Lock(userID)
		defer unlock()
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return 0, persistErr("load user", err)
	}
	if user == nil {
		return 0, nil
	}
	if s.cache != nil {
		s.cache.SetBalance(ctx, userID, user.Points)
	}
	return user.Points, nil
}

// NormalizeLimit applies the default and the upper bound to a page size.
func NormalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, invalid("limit must not be negative")
	case limit == 0:
		return DefaultTransactionLimit, nil
	case limit > MaxTransactionLimit:
		return MaxTransactionLimit, nil
	}
	return limit, nil
}

// GetPointsTransactions returns one page of the user's ledger, newest first.
// An unknown user yields an empty page.
func (s *PointsService) GetPointsTransactions(ctx context.Context, userID string, limit, offset int) ([]models.PointsTransaction, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, invalid("offset must not be negative")
	}
	items, err := s.store.Ledger().ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, persistErr("list ledger", err)
	}
	return items, nil
}

func (s *PointsService) CountPointsTransactions(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.Ledger().CountByUser(ctx, userID)
	if err != nil {
		return 0, persistErr("count ledger", err)
	}
	return n, nil
}

// Transactions walks the user's whole ledger newest first, fetching pageSize
// entries at a time. Each range over the sequence starts from the top again.
func (s *PointsService) Transactions(ctx context.Context, userID string, pageSize int) iter.Seq2[models.PointsTransaction, error] {
	return func(yield func(models.PointsTransaction, error) bool) {
		limit, err := NormalizeLimit(pageSize)
		if err != nil {
			yield(models.PointsTransaction{}, err)
			return
		}
		for offset := 0; ; offset += limit {
			page, err := s.store.Ledger().ListByUser(ctx, userID, limit, offset)
			if err != nil {
				yield(models.PointsTransaction{}, persistErr("list ledger", err))
				return
			}
			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}
			if len(page) < limit {
				return
			}
		}
	}
}
