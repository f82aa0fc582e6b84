package models

import "time"

// PointsTransactionType enumerates the kinds of ledger entries.
type PointsTransactionType string

const (
	TxAgentCreation       PointsTransactionType = "agent_creation"
	TxAgentEvolution      PointsTransactionType = "agent_evolution"
	TxConversation        PointsTransactionType = "conversation"
	TxFeedPost            PointsTransactionType = "feed_post"
	TxFeedReaction        PointsTransactionType = "feed_reaction"
	TxKnowledgeCreation   PointsTransactionType = "knowledge_creation"
	TxMarketplaceListing  PointsTransactionType = "marketplace_listing"
	TxMarketplacePurchase PointsTransactionType = "marketplace_purchase"
	TxDailyStreak         PointsTransactionType = "daily_streak"
	TxAchievement         PointsTransactionType = "achievement"
)

var transactionTypes = map[PointsTransactionType]struct{}{
	TxAgentCreation:       {},
	TxAgentEvolution:      {},
	TxConversation:        {},
	TxFeedPost:            {},
	TxFeedReaction:        {},
	TxKnowledgeCreation:   {},
	TxMarketplaceListing:  {},
	TxMarketplacePurchase: {},
	TxDailyStreak:         {},
	TxAchievement:         {},
}

// Valid reports whether t is one of the known transaction types.
func (t PointsTransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// PointsTransaction is an immutable ledger entry. RelatedEntityID is a
// back-reference only; the ledger never owns the referenced entity.
// Seq is the insertion order and breaks timestamp ties.
type PointsTransaction struct {
	Seq               uint64                `gorm:"primaryKey;autoIncrement" json:"-"`
	ID                string                `gorm:"uniqueIndex;size:36;not null" json:"id"`
	UserID            string                `gorm:"index:idx_ptx_user_ts,priority:1;size:64;not null" json:"user_id"`
	Amount            int64                 `gorm:"not null" json:"amount"`
	Type              PointsTransactionType `gorm:"index;size:32;not null" json:"type"`
	Description       string                `gorm:"size:512" json:"description"`
	Timestamp         time.Time             `gorm:"index:idx_ptx_user_ts,priority:2;not null" json:"timestamp"`
	RelatedEntityID   string                `gorm:"size:64" json:"related_entity_id,omitempty"`
	RelatedEntityType string                `gorm:"size:32" json:"related_entity_type,omitempty"`
}
