// Package repository holds the gorm-backed persistence layer. Each entity
// store is reached through Store so that a whole engine operation can run
// against one database transaction.
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/agp/models"
)

// UserRepository persists the per-user balance aggregate.
type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetWithAchievements(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	IncrementPoints(ctx context.Context, id string, delta int64) error
	UpdateStreak(ctx context.Context, id string, streak int, lastLoginAt time.Time) error
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// LedgerRepository persists immutable points transactions.
type LedgerRepository interface {
	Insert(ctx context.Context, tx *models.PointsTransaction) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.PointsTransaction, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
	SumSince(ctx context.Context, since time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// AchievementRepository persists per-user achievement progress.
type AchievementRepository interface {
	Get(ctx context.Context, userID, id string) (*models.Achievement, error)
	ListByUser(ctx context.Context, userID string) ([]models.Achievement, error)
	SeedMissing(ctx context.Context, items []models.Achievement) error
	UpdateProgress(ctx context.Context, userID, id string, progress int) error
	MarkUnlocked(ctx context.Context, userID, id string, at time.Time) (bool, error)
}

// AgentRepository persists agents and their traits.
type AgentRepository interface {
	Create(ctx context.Context, agent *models.Agent) error
	Get(ctx context.Context, id string) (*models.Agent, error)
	GetForUpdate(ctx context.Context, id string) (*models.Agent, error)
	List(ctx context.Context, creator string) ([]models.Agent, error)
	Update(ctx context.Context, agent *models.Agent) error
	UpdateProgression(ctx context.Context, agent *models.Agent) error
	AddTrait(ctx context.Context, trait *models.AgentTrait, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// Store groups the entity repositories. Transaction runs fn against a Store
// bound to a single database transaction; fn's error rolls everything back.
type Store interface {
	Users() UserRepository
	Ledger() LedgerRepository
	Achievements() AchievementRepository
	Agents() AgentRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store on top of a *gorm.DB.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models lists every table owned by the store, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PointsTransaction{},
		&models.Achievement{},
		&models.Agent{},
		&models.AgentTrait{},
	}
}

// AutoMigrate creates or extends the store's tables.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(Models()...)
}

func (s *GormStore) Users() UserRepository { return &userRepository{db: s.db} }

func (s *GormStore) Ledger() LedgerRepository { return &ledgerRepository{db: s.db} }

func (s *GormStore) Achievements() AchievementRepository {
	return &achievementRepository{db: s.db}
}

func (s *GormStore) Agents() AgentRepository { return &agentRepository{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
