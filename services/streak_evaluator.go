package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cppla/agp/models"
)

// StreakEvaluator maintains the consecutive-day activity streak. The first
// award of a new calendar day extends or resets the streak; later awards on
// the same day leave it alone.
type StreakEvaluator struct {
	awarder Awarder
	clock   Clock
	logger  *zap.Logger
}

func NewStreakEvaluator(awarder Awarder, opts Options) *StreakEvaluator {
	opts = opts.withDefaults()
	return &StreakEvaluator{awarder: awarder, clock: opts.Clock, logger: opts.Logger}
}

func (e *StreakEvaluator) HandlePointsAwarded(ctx context.Context, tx *Tx, event PointsAwarded) error {
	return e.Evaluate(ctx, tx, event.Transaction.UserID)
}

func (e *StreakEvaluator) Evaluate(ctx context.Context, tx *Tx, userID string) error {
	user, err := tx.Users().Get(ctx, userID)
	if err != nil {
		return persistErr("load user", err)
	}
	if user == nil {
		return nil
	}

	now := e.clock.Now()
	today := calendarDay(now)
	lastDay := calendarDay(user.LastLoginAt.In(now.Location()))

	switch {
	case lastDay.Equal(today):
		return nil
	case lastDay.AddDate(0, 0, 1).Equal(today):
		streak := user.Streak + 1
		if err := tx.Users().UpdateStreak(ctx, userID, streak, now); err != nil {
			return persistErr("update streak", err)
		}
		e.logger.Debug("streak extended", zap.String("user_id", userID), zap.Int("streak", streak))
		_, err := e.awarder.Award(ctx, tx, AwardRequest{
			UserID:      userID,
			Amount:      int64(10 * streak),
			Type:        models.TxDailyStreak,
			Description: fmt.Sprintf("Daily streak: %d days", streak),
		})
		return err
	default:
		if err := tx.Users().UpdateStreak(ctx, userID, 1, now); err != nil {
			return persistErr("reset streak", err)
		}
		e.logger.Debug("streak reset", zap.String("user_id", userID))
		return nil
	}
}
