// Package services implements the points, achievement, streak and agent
// evolution engines on top of the repository layer.
package services

import "github.com/cppla/agp/repository"

// Engine wires the services together with the default rules. Achievement
// evaluation runs before streak evaluation for every award.
type Engine struct {
	Points       *PointsService
	Agents       *AgentService
	Users        *UserService
	Achievements *AchievementEvaluator
	Streaks      *StreakEvaluator
}

func NewEngine(store repository.Store, opts Options) *Engine {
	opts = opts.withDefaults()
	points := NewPointsService(store, opts)
	achievements := NewAchievementEvaluator(points, DefaultRules(), opts)
	streaks := NewStreakEvaluator(points, opts)
	points.Subscribe(achievements)
	points.Subscribe(streaks)
	return &Engine{
		Points:       points,
		Agents:       NewAgentService(store, points, opts),
		Users:        NewUserService(store, points, DefaultCatalog(), opts),
		Achievements: achievements,
		Streaks:      streaks,
	}
}
