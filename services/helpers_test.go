package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/agp/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) *repository.GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewGormStore(db)
	require.NoError(t, store.AutoMigrate(context.Background()))
	return store
}

type testEnv struct {
	store  *repository.GormStore
	clock  *testClock
	engine *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newTestStore(t)
	clock := newTestClock(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC))
	return &testEnv{
		store:  store,
		clock:  clock,
		engine: NewEngine(store, Options{Clock: clock}),
	}
}

func (e *testEnv) user(t *testing.T, id string) {
	t.Helper()
	_, err := e.engine.Users.EnsureUser(context.Background(), id, "")
	require.NoError(t, err)
}

func (e *testEnv) ledgerSum(t *testing.T, userID string) int64 {
	t.Helper()
	sum, err := e.store.Ledger().SumByUser(context.Background(), userID)
	require.NoError(t, err)
	return sum
}
