package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

// UserController exposes user profiles and achievements.
type UserController struct {
	base
	users         *services.UserService
	defaultUserID string
}

func NewUserController(users *services.UserService, defaultUserID string, logger *zap.Logger, metrics *observability.Metrics) *UserController {
	if defaultUserID == "" {
		defaultUserID = services.DefaultUserID
	}
	return &UserController{base: newBase(logger, metrics), users: users, defaultUserID: defaultUserID}
}

// EnsureUser creates the user if missing and returns it.
func (u *UserController) EnsureUser(ctx *gin.Context) {
	var req struct {
		ID   string `json:"id" binding:"max=64"`
		Name string `json:"name" binding:"max=128"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		u.badPayload(ctx, "ensure_user", 40010)
		return
	}
	if req.ID == "" {
		req.ID = u.defaultUserID
	}
	user, err := u.users.EnsureUser(ctx.Request.Context(), req.ID, req.Name)
	if err != nil {
		u.fail(ctx, "ensure_user", err)
		return
	}
	utils.Success(ctx, user)
}

func (u *UserController) GetUser(ctx *gin.Context) {
	user, err := u.users.GetUser(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		u.fail(ctx, "get_user", err)
		return
	}
	utils.Success(ctx, user)
}

func (u *UserController) ListAchievements(ctx *gin.Context) {
	items, err := u.users.ListAchievements(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		u.fail(ctx, "list_achievements", err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}
