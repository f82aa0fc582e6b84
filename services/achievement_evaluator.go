package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cppla/agp/models"
)

// AchievementEvaluator advances achievement progress for each award and pays
// the reward exactly once when an achievement completes.
type AchievementEvaluator struct {
	awarder Awarder
	clock   Clock
	logger  *zap.Logger
	rules   map[models.PointsTransactionType]AchievementRule
}

func NewAchievementEvaluator(awarder Awarder, rules map[models.PointsTransactionType]AchievementRule, opts Options) *AchievementEvaluator {
	opts = opts.withDefaults()
	if rules == nil {
		rules = DefaultRules()
	}
	return &AchievementEvaluator{
		awarder: awarder,
		clock:   opts.Clock,
		logger:  opts.Logger,
		rules:   rules,
	}
}

func (e *AchievementEvaluator) HandlePointsAwarded(ctx context.Context, tx *Tx, event PointsAwarded) error {
	return e.Evaluate(ctx, tx, event.Transaction.UserID, event.Transaction.Type)
}

// Evaluate applies the rule for txType, if any, to userID's achievements.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, tx *Tx, userID string, txType models.PointsTransactionType) error {
	rule, ok := e.rules[txType]
	if !ok {
		return nil
	}
	a, err := tx.Achievements().Get(ctx, userID, rule.AchievementID)
	if err != nil {
		return persistErr("load achievement", err)
	}
	if a == nil || a.Unlocked() {
		return nil
	}

	progress := a.Progress + rule.Increment
	if progress > a.MaxProgress {
		progress = a.MaxProgress
	}
	if progress != a.Progress {
		if err := tx.Achievements().UpdateProgress(ctx, userID, a.ID, progress); err != nil {
			return persistErr("update achievement progress", err)
		}
	}
	if progress < a.MaxProgress {
		return nil
	}

	unlocked, err := tx.Achievements().MarkUnlocked(ctx, userID, a.ID, e.clock.Now())
	if err != nil {
		return persistErr("unlock achievement", err)
	}
	if !unlocked {
		return nil
	}
	e.logger.Info("achievement unlocked",
		zap.String("user_id", userID),
		zap.String("achievement", a.ID),
	)
	_, err = e.awarder.Award(ctx, tx, AwardRequest{
		UserID:            userID,
		Amount:            a.PointsReward,
		Type:              models.TxAchievement,
		Description:       fmt.Sprintf("Achievement unlocked: %s", a.Name),
		RelatedEntityID:   a.ID,
		RelatedEntityType: "achievement",
	})
	return err
}
