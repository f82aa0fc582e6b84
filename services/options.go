package services

import (
	"go.uber.org/zap"

	"github.com/cppla/agp/observability"
)

// Options carries the collaborators shared by the engines. Zero values fall
// back to the system clock and a no-op logger.
type Options struct {
	Clock   Clock
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Cache   BalanceCache
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = NewSystemClock(nil)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
