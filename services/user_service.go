package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/cppla/agp/models"
	"github.com/cppla/agp/repository"
	"github.com/cppla/agp/utils"
)

const (
	DefaultUserID   = "default-user"
	DefaultUserName = "User"
)

// BalanceReport compares a stored balance with the sum of its ledger.
type BalanceReport struct {
	UserID    string `json:"user_id"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledger_sum"`
}

// Consistent reports whether the stored balance equals the ledger sum.
func (r BalanceReport) Consistent() bool {
	return r.Balance == r.LedgerSum
}

// UserService creates users lazily and seeds their achievement rows.
type UserService struct {
	store   repository.Store
	points  *PointsService
	clock   Clock
	logger  *zap.Logger
	catalog []CatalogEntry
}

func NewUserService(store repository.Store, points *PointsService, catalog []CatalogEntry, opts Options) *UserService {
	opts = opts.withDefaults()
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &UserService{
		store:   store,
		points:  points,
		clock:   opts.Clock,
		logger:  opts.Logger,
		catalog: catalog,
	}
}

// EnsureUser returns the user with id, creating it with a zero balance when
// missing. Catalog entries the user lacks are seeded either way.
func (s *UserService) EnsureUser(ctx context.Context, id, name string) (*models.User, error) {
	if id == "" {
		return nil, invalid("user id is required")
	}
	name = utils.SanitizeText(name)
	if name == "" {
		name = DefaultUserName
	}

	var out *models.User
	created := false
	err := s.points.Run(ctx, id, func(tx *Tx) error {
		user, err := tx.Users().Get(ctx, id)
		if err != nil {
			return persistErr("load user", err)
		}
		if user == nil {
			now := s.clock.Now()
			user = &models.User{
				ID:          id,
				Name:        name,
				CreatedAt:   now,
				LastLoginAt: now,
				UpdatedAt:   now,
			}
			if err := tx.Users().Create(ctx, user); err != nil {
				return persistErr("create user", err)
			}
			created = true
		}
		if err := tx.Achievements().SeedMissing(ctx, seedRows(id, s.catalog)); err != nil {
			return persistErr("seed achievements", err)
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("user created", zap.String("user_id", id))
	}
	return out, nil
}

// Bootstrap ensures the installation's default user exists. Empty arguments
// fall back to DefaultUserID and DefaultUserName.
func (s *UserService) Bootstrap(ctx context.Context, id, name string) (*models.User, error) {
	if id == "" {
		id = DefaultUserID
	}
	if name == "" {
		name = DefaultUserName
	}
	return s.EnsureUser(ctx, id, name)
}

// GetUser returns the user with its achievements loaded from the
// achievement store.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Users().GetWithAchievements(ctx, id)
	if err != nil {
		return nil, persistErr("load user", err)
	}
	if user == nil {
		return nil, notFound("user", id)
	}
	return user, nil
}

func (s *UserService) ListAchievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, persistErr("load user", err)
	}
	if user == nil {
		return nil, notFound("user", userID)
	}
	items, err := s.store.Achievements().ListByUser(ctx, userID)
	if err != nil {
		return nil, persistErr("list achievements", err)
	}
	return items, nil
}

// VerifyBalance recomputes the ledger sum for userID.
func (s *UserService) VerifyBalance(ctx context.Context, userID string) (BalanceReport, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return BalanceReport{}, persistErr("load user", err)
	}
	if user == nil {
		return BalanceReport{}, notFound("user", userID)
	}
	sum, err := s.store.Ledger().SumByUser(ctx, userID)
	if err != nil {
		return BalanceReport{}, persistErr("sum ledger", err)
	}
	return BalanceReport{UserID: userID, Balance: user.Points, LedgerSum: sum}, nil
}

// VerifyAll checks every user and returns only the inconsistent reports.
func (s *UserService) VerifyAll(ctx context.Context) ([]BalanceReport, error) {
	ids, err := s.store.Users().ListIDs(ctx)
	if err != nil {
		return nil, persistErr("list users", err)
	}
	var bad []BalanceReport
	for _, id := range ids {
		r, err := s.VerifyBalance(ctx, id)
		if err != nil {
			return nil, err
		}
		if !r.Consistent() {
			s.logger.Warn("balance mismatch",
				zap.String("user_id", id),
				zap.Int64("balance", r.Balance),
				zap.Int64("ledger_sum", r.LedgerSum),
			)
			bad = append(bad, r)
		}
	}
	return bad, nil
}
