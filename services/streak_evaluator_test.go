package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/agp/models"
)

func addReaction(t *testing.T, env *testEnv, userID string) {
	t.Helper()
	_, err := env.engine.Points.AddPoints(context.Background(), AwardRequest{
		UserID: userID,
		Amount: 1,
		Type:   models.TxFeedReaction,
	})
	require.NoError(t, err)
}

func loadUser(t *testing.T, env *testEnv, id string) *models.User {
	t.Helper()
	u, err := env.store.Users().Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestStreak_SameDayIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "u1")

	addReaction(t, env, "u1")
	env.clock.Advance(5 * time.Minute)
	addReaction(t, env, "u1")

	u := loadUser(t, env, "u1")
	assert.Equal(t, 0, u.Streak)
	assert.Equal(t, int64(2), u.Points)
}

func TestStreak_ConsecutiveDayPaysOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "u1")

	env.clock.Advance(24 * time.Hour)
	addReaction(t, env, "u1")

	u := loadUser(t, env, "u1")
	assert.Equal(t, 1, u.Streak)
	assert.True(t, u.LastLoginAt.Equal(env.clock.Now()))
	assert.Equal(t, int64(1+10), u.Points)

	items, err := env.engine.Points.GetPointsTransactions(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.TxDailyStreak, items[0].Type)
	assert.Equal(t, int64(10), items[0].Amount)
	assert.Equal(t, "Daily streak: 1 days", items[0].Description)

	env.clock.Advance(3 * time.Minute)
	addReaction(t, env, "u1")
	u = loadUser(t, env, "u1")
	assert.Equal(t, 1, u.Streak)
	assert.Equal(t, int64(1+10+1), u.Points)

	env.clock.Advance(24 * time.Hour)
	addReaction(t, env, "u1")
	u = loadUser(t, env, "u1")
	assert.Equal(t, 2, u.Streak)
	assert.Equal(t, int64(1+10+1+1+20), u.Points)
	assert.Equal(t, u.Points, env.ledgerSum(t, "u1"))
}

func TestStreak_GapResets(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "u1")

	env.clock.Advance(24 * time.Hour)
	addReaction(t, env, "u1")
	env.clock.Advance(24 * time.Hour)
	addReaction(t, env, "u1")
	require.Equal(t, 2, loadUser(t, env, "u1").Streak)

	env.clock.Advance(72 * time.Hour)
	before := loadUser(t, env, "u1").Points
	addReaction(t, env, "u1")

	u := loadUser(t, env, "u1")
	assert.Equal(t, 1, u.Streak)
	assert.Equal(t, before+1, u.Points)
}

func TestStreak_MonthAndYearRollover(t *testing.T) {
	cases := []struct {
		name string
		last time.Time
		now  time.Time
	}{
		{"month", time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC), time.Date(2024, time.February, 1, 0, 15, 0, 0, time.UTC)},
		{"leap day", time.Date(2024, time.February, 29, 8, 0, 0, 0, time.UTC), time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)},
		{"year", time.Date(2023, time.December, 31, 12, 0, 0, 0, time.UTC), time.Date(2024, time.January, 1, 1, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.clock.Set(tc.last)
			env.user(t, "u1")

			env.clock.Set(tc.now)
			addReaction(t, env, "u1")

			u := loadUser(t, env, "u1")
			assert.Equal(t, 1, u.Streak)
			assert.Equal(t, int64(11), u.Points)
		})
	}
}

func TestStreak_UsesClockLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	env := newTestEnv(t)
	// 20:00 UTC on the 10th is already the 11th at UTC+9.
	env.clock.Set(time.Date(2024, time.May, 10, 10, 0, 0, 0, loc))
	env.user(t, "u1")

	env.clock.Set(time.Date(2024, time.May, 10, 20, 0, 0, 0, time.UTC).In(loc))
	addReaction(t, env, "u1")

	u := loadUser(t, env, "u1")
	assert.Equal(t, 1, u.Streak)
}

func TestStreak_EvaluateUnknownUserIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	err := env.engine.Points.Run(ctx, "ghost", func(tx *Tx) error {
		return env.engine.Streaks.Evaluate(ctx, tx, "ghost")
	})
	require.NoError(t, err)
}
