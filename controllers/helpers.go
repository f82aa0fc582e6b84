package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

const (
	defaultPageSize = services.DefaultTransactionLimit
	maxPageSize     = services.MaxTransactionLimit
	// maxPage keeps (page-1)*pageSize inside int32.
	maxPage = math.MaxInt32 / maxPageSize
)

// base carries what every controller needs to report failures.
type base struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

func newBase(logger *zap.Logger, metrics *observability.Metrics) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{logger: logger, metrics: metrics}
}

// fail maps engine errors onto HTTP status and logs them once.
func (b base) fail(ctx *gin.Context, op string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.String("path", ctx.Request.URL.Path), zap.Error(err)}
	switch {
	case errors.Is(err, services.ErrValidation):
		b.metrics.ObserveError(op, "validation")
		b.logger.Warn("request rejected", fields...)
		utils.Error(ctx, http.StatusBadRequest, utils.CodeBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		b.metrics.ObserveError(op, "not_found")
		b.logger.Warn("entity not found", fields...)
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, err.Error())
	default:
		b.metrics.ObserveError(op, "persistence")
		b.logger.Error("operation failed", fields...)
		utils.Error(ctx, http.StatusInternalServerError, utils.CodeInternal, "internal error")
	}
}

func (b base) badPayload(ctx *gin.Context, op string, code int) {
	b.metrics.ObserveError(op, "validation")
	utils.Error(ctx, http.StatusBadRequest, code, "invalid request payload")
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := defaultPageSize
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = min(p, maxPage)
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
		pageSize = min(s, maxPageSize)
	}
	return page, pageSize
}
