package services

import "github.com/cppla/agp/models"

// CatalogEntry is the template every user's achievement row is seeded from.
type CatalogEntry struct {
	ID           string
	Name         string
	Description  string
	PointsReward int64
	MaxProgress  int
}

// AchievementRule maps a transaction type to the achievement it advances.
type AchievementRule struct {
	AchievementID string
	Increment     int
}

const (
	AchievementFirstAgent          = "first-agent"
	AchievementConversationStarter = "conversation-starter"
	AchievementSocialButterfly     = "social-butterfly"
)

// DefaultCatalog is the built-in achievement set.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{
			ID:           AchievementFirstAgent,
			Name:         "Agent Creator",
			Description:  "Create your first agent",
			PointsReward: 100,
			MaxProgress:  1,
		},
		{
			ID:           AchievementConversationStarter,
			Name:         "Conversation Starter",
			Description:  "Have your first conversation with an agent",
			PointsReward: 50,
			MaxProgress:  1,
		},
		{
			ID:           AchievementSocialButterfly,
			Name:         "Social Butterfly",
			Description:  "Create 5 posts in the AGP Feed",
			PointsReward: 200,
			MaxProgress:  5,
		},
	}
}

// DefaultRules lists which transaction types advance which achievements.
func DefaultRules() map[models.PointsTransactionType]AchievementRule {
	return map[models.PointsTransactionType]AchievementRule{
		models.TxAgentCreation: {AchievementID: AchievementFirstAgent, Increment: 1},
		models.TxConversation:  {AchievementID: AchievementConversationStarter, Increment: 1},
		models.TxFeedPost:      {AchievementID: AchievementSocialButterfly, Increment: 1},
	}
}

func seedRows(userID string, catalog []CatalogEntry) []models.Achievement {
	rows := make([]models.Achievement, 0, len(catalog))
	for _, c := range catalog {
		rows = append(rows, models.Achievement{
			ID:           c.ID,
			UserID:       userID,
			Name:         c.Name,
			Description:  c.Description,
			PointsReward: c.PointsReward,
			MaxProgress:  c.MaxProgress,
		})
	}
	return rows
}
