package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/agp/models"
	"github.com/cppla/agp/observability"
	"github.com/cppla/agp/repository"
	"github.com/cppla/agp/utils"
)

const (
	AgentCreationReward int64 = 50
	TraitReward         int64 = 30
	LevelUpRewardFactor int64 = 100
)

// AgentInput carries the user supplied fields of a new agent.
type AgentInput struct {
	Name        string
	Description string
	Personality string
	Goals       []string
}

// TraitInput carries the user supplied fields of a new trait.
type TraitInput struct {
	Name        string
	Description string
	Effect      string
}

// AgentUpdate is a partial edit; nil fields keep their value. XP, Level and
// Class are derived from experience and are rejected when set.
type AgentUpdate struct {
	Name        *string
	Description *string
	Personality *string
	Goals       *[]string

	XP    *int64
	Level *int
	Class *models.AgentClass
}

// AgentService converts experience into level and class and pays the
// evolution rewards through the points engine.
type AgentService struct {
	store   repository.Store
	points  *PointsService
	clock   Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewAgentService(store repository.Store, points *PointsService, opts Options) *AgentService {
	opts = opts.withDefaults()
	return &AgentService{
		store:   store,
		points:  points,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// CreateAgent stores a level 1 Scout owned by creator and pays the creation
// reward. The creator must exist.
func (s *AgentService) CreateAgent(ctx context.Context, in AgentInput, creator string) (*models.Agent, error) {
	if creator == "" {
		return nil, invalid("creator is required")
	}
	name := utils.SanitizeText(in.Name)
	if name == "" {
		return nil, invalid("agent name is required")
	}
	now := s.clock.Now()
	agent := &models.Agent{
		ID:          uuid.NewString(),
		Name:        name,
		Description: utils.SanitizeText(in.Description),
		Personality: utils.SanitizeText(in.Personality),
		Goals:       utils.SanitizeAll(in.Goals),
		Creator:     creator,
		XP:          0,
		Level:       1,
		Class:       models.ClassScout,
		Traits:      []models.AgentTrait{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.points.Run(ctx, creator, func(tx *Tx) error {
		user, err := tx.Users().Get(ctx, creator)
		if err != nil {
			return persistErr("load user", err)
		}
		if user == nil {
			return notFound("user", creator)
		}
		if err := tx.Agents().Create(ctx, agent); err != nil {
			return persistErr("create agent", err)
		}
		_, err = s.points.Award(ctx, tx, AwardRequest{
			UserID:            creator,
			Amount:            AgentCreationReward,
			Type:              models.TxAgentCreation,
			Description:       fmt.Sprintf("Created agent: %s", agent.Name),
			RelatedEntityID:   agent.ID,
			RelatedEntityType: "agent",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("agent created", zap.String("agent_id", agent.ID), zap.String("creator", creator))
	return agent, nil
}

func (s *AgentService) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := s.store.Agents().Get(ctx, id)
	if err != nil {
		return nil, persistErr("load agent", err)
	}
	if agent == nil {
		return nil, notFound("agent", id)
	}
	return agent, nil
}

// ListAgents returns every agent, or only creator's when creator is set.
func (s *AgentService) ListAgents(ctx context.Context, creator string) ([]models.Agent, error) {
	agents, err := s.store.Agents().List(ctx, creator)
	if err != nil {
		return nil, persistErr("list agents", err)
	}
	return agents, nil
}

// DeleteAgent removes the agent and its traits. Ledger entries that refer to
// it are kept.
func (s *AgentService) DeleteAgent(ctx context.Context, id string) error {
	ok, err := s.store.Agents().Delete(ctx, id)
	if err != nil {
		return persistErr("delete agent", err)
	}
	if !ok {
		return notFound("agent", id)
	}
	return nil
}

// UpdateAgent merges upd into the agent and bumps UpdatedAt.
func (s *AgentService) UpdateAgent(ctx context.Context, id string, upd AgentUpdate) (*models.Agent, error) {
	if upd.XP != nil || upd.Level != nil || upd.Class != nil {
		return nil, invalid("xp, level and class change only through experience")
	}
	var name string
	if upd.Name != nil {
		if name = utils.SanitizeText(*upd.Name); name == "" {
			return nil, invalid("agent name is required")
		}
	}

	var out *models.Agent
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		agent, err := tx.Agents().GetForUpdate(ctx, id)
		if err != nil {
			return persistErr("load agent", err)
		}
		if agent == nil {
			return notFound("agent", id)
		}
		if upd.Name != nil {
			agent.Name = name
		}
		if upd.Description != nil {
			agent.Description = utils.SanitizeText(*upd.Description)
		}
		if upd.Personality != nil {
			agent.Personality = utils.SanitizeText(*upd.Personality)
		}
		if upd.Goals != nil {
			agent.Goals = utils.SanitizeAll(*upd.Goals)
		}
		agent.UpdatedAt = s.clock.Now()
		if err := tx.Agents().Update(ctx, agent); err != nil {
			if errors.Is(err, repository.ErrNoRows) {
				return notFound("agent", id)
			}
			return persistErr("update agent", err)
		}
		out = agent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddAgentXP adds xpDelta to the agent, recomputes level and class, and pays
// 100 * level to userID once when the level went up. An empty userID pays
// the agent's creator. The agent row stays locked until commit because the
// per-user lock does not cover callers paying different users.
func (s *AgentService) AddAgentXP(ctx context.Context, agentID string, xpDelta int64, userID string) (*models.Agent, error) {
	owner, err := s.resolveOwner(ctx, agentID, userID)
	if err != nil {
		return nil, err
	}

	var (
		out      *models.Agent
		leveled  bool
		newClass models.AgentClass
	)
	err = s.points.Run(ctx, owner, func(tx *Tx) error {
		agent, err := tx.Agents().GetForUpdate(ctx, agentID)
		if err != nil {
			return persistErr("load agent", err)
		}
		if agent == nil {
			return notFound("agent", agentID)
		}

		previous := agent.Level
		agent.XP += xpDelta
		agent.Level = CalculateLevel(agent.XP)
		agent.Class = CalculateClass(agent.Level)
		agent.UpdatedAt = s.clock.Now()
		if err := tx.Agents().UpdateProgression(ctx, agent); err != nil {
			if errors.Is(err, repository.ErrNoRows) {
				return notFound("agent", agentID)
			}
			return persistErr("update agent", err)
		}
		out = agent

		if agent.Level <= previous {
			return nil
		}
		leveled, newClass = true, agent.Class
		_, err = s.points.Award(ctx, tx, AwardRequest{
			UserID:            owner,
			Amount:            LevelUpRewardFactor * int64(agent.Level),
			Type:              models.TxAgentEvolution,
			Description:       fmt.Sprintf("Agent %s evolved to level %d", agent.Name, agent.Level),
			RelatedEntityID:   agent.ID,
			RelatedEntityType: "agent",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if leveled {
		s.metrics.ObserveLevelUp(string(newClass))
		s.logger.Info("agent leveled up",
			zap.String("agent_id", out.ID),
			zap.Int("level", out.Level),
			zap.String("class", string(out.Class)),
		)
	}
	return out, nil
}

// AddAgentTrait appends an unlocked trait and pays the trait reward to
// userID, or to the creator when userID is empty.
func (s *AgentService) AddAgentTrait(ctx context.Context, agentID string, in TraitInput, userID string) (*models.Agent, error) {
	name := utils.SanitizeText(in.Name)
	if name == "" {
		return nil, invalid("trait name is required")
	}
	owner, err := s.resolveOwner(ctx, agentID, userID)
	if err != nil {
		return nil, err
	}

	var out *models.Agent
	err = s.points.Run(ctx, owner, func(tx *Tx) error {
		agent, err := tx.Agents().GetForUpdate(ctx, agentID)
		if err != nil {
			return persistErr("load agent", err)
		}
		if agent == nil {
			return notFound("agent", agentID)
		}

		now := s.clock.Now()
		trait := models.AgentTrait{
			ID:          uuid.NewString(),
			AgentID:     agent.ID,
			Position:    len(agent.Traits),
			Name:        name,
			Description: utils.SanitizeText(in.Description),
			Effect:      utils.SanitizeText(in.Effect),
			Unlocked:    true,
			CreatedAt:   now,
		}
		if err := tx.Agents().AddTrait(ctx, &trait, now); err != nil {
			if errors.Is(err, repository.ErrNoRows) {
				return notFound("agent", agentID)
			}
			return persistErr("add trait", err)
		}
		agent.Traits = append(agent.Traits, trait)
		agent.UpdatedAt = now
		out = agent

		_, err = s.points.Award(ctx, tx, AwardRequest{
			UserID:            owner,
			Amount:            TraitReward,
			Type:              models.TxAgentEvolution,
			Description:       fmt.Sprintf("Added trait %s to agent %s", trait.Name, agent.Name),
			RelatedEntityID:   agent.ID,
			RelatedEntityType: "agent",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AgentService) resolveOwner(ctx context.Context, agentID, userID string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	agent, err := s.GetAgent(ctx, agentID)
	if err != nil {
		return "", err
	}
	return agent.Creator, nil
}
