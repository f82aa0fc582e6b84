package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/agp/models"
)

type agentRepository struct {
	db *gorm.DB
}

func orderTraits(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *agentRepository) Create(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Omit("Traits").Create(agent).Error
}

// Get returns nil, nil when the agent does not exist.
func (r *agentRepository) Get(ctx context.Context, id string) (*models.Agent, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate is Get with a row lock held until the surrounding
// transaction ends. sqlite has no row locks and ignores the clause.
func (r *agentRepository) GetForUpdate(ctx context.Context, id string) (*models.Agent, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *agentRepository) get(db *gorm.DB, id string) (*models.Agent, error) {
	var agent models.Agent
	err := db.Preload("Traits", orderTraits).Where("id = ?", id).Take(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if agent.Traits == nil {
		agent.Traits = []models.AgentTrait{}
	}
	return &agent, nil
}

// List returns agents newest first, optionally filtered by creator.
func (r *agentRepository) List(ctx context.Context, creator string) ([]models.Agent, error) {
	q := r.db.WithContext(ctx).Preload("Traits", orderTraits).Order("created_at DESC")
	if creator != "" {
		q = q.Where("creator = ?", creator)
	}
	agents := []models.Agent{}
	if err := q.Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// Update writes the descriptive fields. Progression and traits are left
// alone. UpdateColumns keeps the caller's UpdatedAt instead of gorm's now.
func (r *agentRepository) Update(ctx context.Context, agent *models.Agent) error {
	row := models.Agent{
		Name:        agent.Name,
		Description: agent.Description,
		Personality: agent.Personality,
		Goals:       agent.Goals,
		UpdatedAt:   agent.UpdatedAt,
	}
	res := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", agent.ID).
		Select("name", "description", "personality", "goals", "updated_at").
		UpdateColumns(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *agentRepository) UpdateProgression(ctx context.Context, agent *models.Agent) error {
	res := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", agent.ID).
		Updates(map[string]interface{}{
			"xp":         agent.XP,
			"level":      agent.Level,
			"class":      agent.Class,
			"updated_at": agent.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *agentRepository) AddTrait(ctx context.Context, trait *models.AgentTrait, at time.Time) error {
	if err := r.db.WithContext(ctx).Create(trait).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", trait.AgentID).
		Update("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// Delete removes the agent and its traits. It reports false when no agent
// matched.
func (r *agentRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("agent_id = ?", id).Delete(&models.AgentTrait{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Agent{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *agentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Agent{}).Count(&n).Error
	return n, err
}
