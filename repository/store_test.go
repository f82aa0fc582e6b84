package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/agp/models"
)

var t0 = time.Date(2024, time.April, 2, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := NewGormStore(db)
	require.NoError(t, store.AutoMigrate(context.Background()))
	return store
}

func seedUser(t *testing.T, s *GormStore, id string) {
	t.Helper()
	require.NoError(t, s.Users().Create(context.Background(), &models.User{ID: id, Name: "n", CreatedAt: t0}))
}

func entry(userID string, amount int64, at time.Time) *models.PointsTransaction {
	return &models.PointsTransaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Type:      models.TxFeedReaction,
		Timestamp: at,
	}
}

func TestUsers_CreateGetIncrement(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1")

	u, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.LastLoginAt.Equal(t0))

	require.NoError(t, s.Users().IncrementPoints(ctx, "u1", 15))
	require.NoError(t, s.Users().IncrementPoints(ctx, "u1", -4))
	u, err = s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), u.Points)

	assert.ErrorIs(t, s.Users().IncrementPoints(ctx, "nobody", 1), ErrNoRows)
	assert.ErrorIs(t, s.Users().UpdateStreak(ctx, "nobody", 1, t0), ErrNoRows)

	missing, err := s.Users().Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ids, err := s.Users().ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestUsers_UpdateStreak(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1")

	later := t0.Add(26 * time.Hour)
	require.NoError(t, s.Users().UpdateStreak(ctx, "u1", 4, later))
	u, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, u.Streak)
	assert.True(t, u.LastLoginAt.Equal(later))
}

func TestLedger_OrderingAndSums(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ledger().Insert(ctx, entry("u1", 1, t0)))
	require.NoError(t, s.Ledger().Insert(ctx, entry("u1", 2, t0.Add(time.Hour))))
	require.NoError(t, s.Ledger().Insert(ctx, entry("u1", 3, t0.Add(time.Hour))))
	require.NoError(t, s.Ledger().Insert(ctx, entry("u2", 10, t0.Add(2*time.Hour))))

	items, err := s.Ledger().ListByUser(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, int64(3), items[0].Amount)
	assert.Equal(t, int64(2), items[1].Amount)
	assert.Equal(t, int64(1), items[2].Amount)

	page, err := s.Ledger().ListByUser(ctx, "u1", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].Amount)

	sum, err := s.Ledger().SumByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum)

	sum, err = s.Ledger().SumByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, sum)

	since, err := s.Ledger().SumSince(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(15), since)

	n, err := s.Ledger().CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = s.Ledger().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestAchievements_SeedAndUnlock(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	rows := []models.Achievement{
		{ID: "a", UserID: "u1", Name: "A", PointsReward: 5, MaxProgress: 2},
		{ID: "b", UserID: "u1", Name: "B", PointsReward: 7, MaxProgress: 1},
	}
	require.NoError(t, s.Achievements().SeedMissing(ctx, rows))
	require.NoError(t, s.Achievements().UpdateProgress(ctx, "u1", "a", 1))

	rows[0].Progress = 0
	require.NoError(t, s.Achievements().SeedMissing(ctx, rows))
	a, err := s.Achievements().Get(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Progress)

	first, err := s.Achievements().MarkUnlocked(ctx, "u1", "a", t0)
	require.NoError(t, err)
	assert.True(t, first)
	second, err := s.Achievements().MarkUnlocked(ctx, "u1", "a", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, second)

	a, err = s.Achievements().Get(ctx, "u1", "a")
	require.NoError(t, err)
	require.NotNil(t, a.UnlockedAt)
	assert.True(t, a.UnlockedAt.Equal(t0))

	missing, err := s.Achievements().Get(ctx, "u2", "a")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, s.Achievements().UpdateProgress(ctx, "u2", "a", 1), ErrNoRows)

	list, err := s.Achievements().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
}

func TestAgents_TraitsAndDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	agent := &models.Agent{
		ID:      uuid.NewString(),
		Name:    "Nova",
		Goals:   []string{"learn"},
		Creator: "u1",
		Level:   1,
		Class:   models.ClassScout,
	}
	require.NoError(t, s.Agents().Create(ctx, agent))

	for i, name := range []string{"z-last", "a-first"} {
		trait := &models.AgentTrait{ID: uuid.NewString(), AgentID: agent.ID, Position: i, Name: name, Unlocked: true}
		require.NoError(t, s.Agents().AddTrait(ctx, trait, t0))
	}
	got, err := s.Agents().Get(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, got.Traits, 2)
	assert.Equal(t, "z-last", got.Traits[0].Name)
	assert.Equal(t, []string{"learn"}, got.Goals)

	got.XP, got.Level, got.Class = 900, 4, models.ClassScout
	got.UpdatedAt = t0
	require.NoError(t, s.Agents().UpdateProgression(ctx, got))
	again, err := s.Agents().Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), again.XP)
	assert.Equal(t, 4, again.Level)

	orphan := &models.AgentTrait{ID: uuid.NewString(), AgentID: "missing", Name: "x"}
	assert.ErrorIs(t, s.Agents().AddTrait(ctx, orphan, t0), ErrNoRows)

	list, err := s.Agents().List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = s.Agents().List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	ok, err := s.Agents().Delete(ctx, agent.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Agents().Delete(ctx, agent.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Agents().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAgents_UpdateKeepsProgressionAndTraits(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	agent := &models.Agent{
		ID:      uuid.NewString(),
		Name:    "Nova",
		Goals:   []string{"learn"},
		Creator: "u1",
		XP:      400,
		Level:   3,
		Class:   models.ClassScout,
	}
	require.NoError(t, s.Agents().Create(ctx, agent))
	trait := &models.AgentTrait{ID: uuid.NewString(), AgentID: agent.ID, Name: "calm", Unlocked: true}
	require.NoError(t, s.Agents().AddTrait(ctx, trait, t0))

	locked, err := s.Agents().GetForUpdate(ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, locked.Traits, 1)

	later := t0.Add(time.Hour)
	locked.Name, locked.Description, locked.Goals = "Nova II", "", []string{"teach", "explore"}
	locked.XP, locked.Level = 0, 1
	locked.UpdatedAt = later
	require.NoError(t, s.Agents().Update(ctx, locked))

	got, err := s.Agents().Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nova II", got.Name)
	assert.Equal(t, []string{"teach", "explore"}, got.Goals)
	assert.Equal(t, int64(400), got.XP)
	assert.Equal(t, 3, got.Level)
	assert.Len(t, got.Traits, 1)
	assert.True(t, got.UpdatedAt.Equal(later))

	missing, err := s.Agents().GetForUpdate(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, s.Agents().Update(ctx, &models.Agent{ID: "missing", Name: "x"}), ErrNoRows)
}

func TestTransaction_RollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	seedUser(t, s, "u1")

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.Ledger().Insert(ctx, entry("u1", 5, t0)); err != nil {
			return err
		}
		if err := tx.Users().IncrementPoints(ctx, "u1", 5); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := s.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u.Points)
	n, err := s.Ledger().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
