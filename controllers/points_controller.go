package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/agp/models"
	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

// PointsController exposes balances and the ledger.
type PointsController struct {
	base
	points *services.PointsService
}

func NewPointsController(points *services.PointsService, logger *zap.Logger, metrics *observability.Metrics) *PointsController {
	return &PointsController{base: newBase(logger, metrics), points: points}
}

// GetBalance returns the user's balance; unknown users have 0.
func (p *PointsController) GetBalance(ctx *gin.Context) {
	userID := ctx.Param("id")
	balance, err := p.points.GetPointsBalance(ctx.Request.Context(), userID)
	if err != nil {
		p.fail(ctx, "get_balance", err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": userID, "points": balance})
}

// AddPoints posts one ledger entry for the user.
func (p *PointsController) AddPoints(ctx *gin.Context) {
	var req struct {
		Amount            *int64 `json:"amount" binding:"required"`
		Type              string `json:"type" binding:"required"`
		Description       string `json:"description" binding:"max=512"`
		RelatedEntityID   string `json:"related_entity_id" binding:"max=64"`
		RelatedEntityType string `json:"related_entity_type" binding:"max=32"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		p.badPayload(ctx, "add_points", 40020)
		return
	}
	tx, err := p.points.AddPoints(ctx.Request.Context(), services.AwardRequest{
		UserID:            ctx.Param("id"),
		Amount:            *req.Amount,
		Type:              models.PointsTransactionType(req.Type),
		Description:       utils.SanitizeText(req.Description),
		RelatedEntityID:   req.RelatedEntityID,
		RelatedEntityType: req.RelatedEntityType,
	})
	if err != nil {
		p.fail(ctx, "add_points", err)
		return
	}
	utils.Created(ctx, tx)
}

// ListTransactions returns one page of the ledger, newest first.
func (p *PointsController) ListTransactions(ctx *gin.Context) {
	userID := ctx.Param("id")
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	items, err := p.points.GetPointsTransactions(ctx.Request.Context(), userID, pageSize, (page-1)*pageSize)
	if err != nil {
		p.fail(ctx, "list_transactions", err)
		return
	}
	total, err := p.points.CountPointsTransactions(ctx.Request.Context(), userID)
	if err != nil {
		p.fail(ctx, "list_transactions", err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      items,
		"pagination": utils.NewPagination(page, pageSize, total),
	})
}
