package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/agp/models"
	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/services"
	"github.com/cppla/agp/utils"
)

// AgentController exposes agent creation and evolution.
type AgentController struct {
	base
	agents        *services.AgentService
	defaultUserID string
}

func NewAgentController(agents *services.AgentService, defaultUserID string, logger *zap.Logger, metrics *observability.Metrics) *AgentController {
	if defaultUserID == "" {
		defaultUserID = services.DefaultUserID
	}
	return &AgentController{base: newBase(logger, metrics), agents: agents, defaultUserID: defaultUserID}
}

func (a *AgentController) CreateAgent(ctx *gin.Context) {
	var req struct {
		Name        string   `json:"name" binding:"required,max=128"`
		Description string   `json:"description"`
		Personality string   `json:"personality"`
		Goals       []string `json:"goals"`
		Creator     string   `json:"creator" binding:"max=64"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		a.badPayload(ctx, "create_agent", 40030)
		return
	}
	creator := req.Creator
	if creator == "" {
		creator = a.defaultUserID
	}
	agent, err := a.agents.CreateAgent(ctx.Request.Context(), services.AgentInput{
		Name:        req.Name,
		Description: req.Description,
		Personality: req.Personality,
		Goals:       req.Goals,
	}, creator)
	if err != nil {
		a.fail(ctx, "create_agent", err)
		return
	}
	utils.Created(ctx, agent)
}

// ListAgents returns all agents, or one creator's with ?creator=.
func (a *AgentController) ListAgents(ctx *gin.Context) {
	agents, err := a.agents.ListAgents(ctx.Request.Context(), ctx.Query("creator"))
	if err != nil {
		a.fail(ctx, "list_agents", err)
		return
	}
	utils.Success(ctx, gin.H{"items": agents})
}

func (a *AgentController) GetAgent(ctx *gin.Context) {
	agent, err := a.agents.GetAgent(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		a.fail(ctx, "get_agent", err)
		return
	}
	utils.Success(ctx, agent)
}

// UpdateAgent applies a partial edit. xp, level and class are refused.
func (a *AgentController) UpdateAgent(ctx *gin.Context) {
	var req struct {
		Name        *string   `json:"name" binding:"omitempty,max=128"`
		Description *string   `json:"description"`
		Personality *string   `json:"personality"`
		Goals       *[]string `json:"goals"`
		XP          *int64    `json:"xp"`
		Level       *int      `json:"level"`
		Class       *string   `json:"class"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		a.badPayload(ctx, "update_agent", 40033)
		return
	}
	upd := services.AgentUpdate{
		Name:        req.Name,
		Description: req.Description,
		Personality: req.Personality,
		Goals:       req.Goals,
		XP:          req.XP,
		Level:       req.Level,
	}
	if req.Class != nil {
		class := models.AgentClass(*req.Class)
		upd.Class = &class
	}
	agent, err := a.agents.UpdateAgent(ctx.Request.Context(), ctx.Param("id"), upd)
	if err != nil {
		a.fail(ctx, "update_agent", err)
		return
	}
	utils.Success(ctx, agent)
}

func (a *AgentController) DeleteAgent(ctx *gin.Context) {
	if err := a.agents.DeleteAgent(ctx.Request.Context(), ctx.Param("id")); err != nil {
		a.fail(ctx, "delete_agent", err)
		return
	}
	utils.Respond(ctx, http.StatusOK, utils.CodeOK, "deleted", nil)
}

// AddXP adds experience; user_id names who receives a level-up reward.
func (a *AgentController) AddXP(ctx *gin.Context) {
	var req struct {
		XP     *int64 `json:"xp" binding:"required"`
		UserID string `json:"user_id" binding:"max=64"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		a.badPayload(ctx, "add_agent_xp", 40031)
		return
	}
	agent, err := a.agents.AddAgentXP(ctx.Request.Context(), ctx.Param("id"), *req.XP, req.UserID)
	if err != nil {
		a.fail(ctx, "add_agent_xp", err)
		return
	}
	utils.Success(ctx, agent)
}

func (a *AgentController) AddTrait(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=128"`
		Description string `json:"description"`
		Effect      string `json:"effect"`
		UserID      string `json:"user_id" binding:"max=64"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		a.badPayload(ctx, "add_agent_trait", 40032)
		return
	}
	agent, err := a.agents.AddAgentTrait(ctx.Request.Context(), ctx.Param("id"), services.TraitInput{
		Name:        req.Name,
		Description: req.Description,
		Effect:      req.Effect,
	}, req.UserID)
	if err != nil {
		a.fail(ctx, "add_agent_trait", err)
		return
	}
	utils.Success(ctx, agent)
}
