package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/repository"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

// StatsController provides installation-wide counters.
type StatsController struct {
	base
	store repository.Store
	clock services.Clock
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(store repository.Store, clock services.Clock, logger *zap.Logger, metrics *observability.Metrics) *StatsController {
	if clock == nil {
		clock = services.NewSystemClock(nil)
	}
	return &StatsController{base: newBase(logger, metrics), store: store, clock: clock}
}

// GetStats returns aggregate counts. A failing counter reports 0 instead of
// failing the whole endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	c := ctx.Request.Context()
	count := func(name string, fn func() (int64, error)) int64 {
		n, err := fn()
		if err != nil {
			s.logger.Warn("stats counter failed", zap.String("counter", name), zap.Error(err))
			return 0
		}
		return n
	}

	now := s.clock.Now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	utils.Success(ctx, gin.H{
		"user_count":        count("users", func() (int64, error) { return s.store.Users().Count(c) }),
		"agent_count":       count("agents", func() (int64, error) { return s.store.Agents().Count(c) }),
		"transaction_count": count("transactions", func() (int64, error) { return s.store.Ledger().Count(c) }),
		"points_today":      count("points_today", func() (int64, error) { return s.store.Ledger().SumSince(c, today) }),
	})
}
