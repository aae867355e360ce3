package services

import (
	"context"
	"fmt"

	"waggle/db"
	"waggle/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationService struct{}

func NewConversationService() *ConversationService {
	return &ConversationService{}
}

// GetOrCreateConversation returns the conversation id for the unordered
// pair, creating it on first contact. Both participants may race here from
// independent sessions, so the create is a single insert-if-absent keyed by
// the canonicalized pair; losing the race means the winner's row is
// re-read and returned, never an error.
//
// The block relation is deliberately not consulted: a conversation that
// existed before a block must stay reachable. Send-time gating happens in
// MessageService.
func (cs *ConversationService) GetOrCreateConversation(ctx context.Context, a, b int64) (int64, error) {
	if a == b {
		return 0, &ValidationError{Reason: "cannot open a conversation with yourself"}
	}

	low, high := pairKey(a, b)
	conversation := models.Conversation{UserLowID: low, UserHighID: high}

	// Conversation and participant rows commit together. The participant
	// upsert also runs on the conflict path, so a pair whose membership
	// rows are missing is repaired on the next open.
	err := db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conversation)
		if res.Error != nil {
			return fmt.Errorf("failed to create conversation: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			// Conflict: the row exists already. Read through the master
			// so a lagging replica cannot hide the row we just collided
			// with.
			var existing models.Conversation
			err := tx.
				Where("user_low_id = ? AND user_high_id = ?", low, high).
				First(&existing).Error
			if err != nil {
				return fmt.Errorf("failed to resolve existing conversation: %w", err)
			}
			conversation = existing
		}

		participants := []models.ConversationParticipant{
			{ConversationID: conversation.ID, UserID: low},
			{ConversationID: conversation.ID, UserID: high},
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error
		if err != nil {
			return fmt.Errorf("failed to create participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return conversation.ID, nil
}

// Participants returns the user ids of a conversation's two members.
func (cs *ConversationService) Participants(ctx context.Context, conversationID int64) ([]int64, error) {
	var rows []models.ConversationParticipant
	err := db.GetReadOnlyDB(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids, nil
}

// ConversationIDs returns all conversation ids the user participates in.
func (cs *ConversationService) ConversationIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := db.GetReadOnlyDB(ctx).
		Model(&models.ConversationParticipant{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return ids, nil
}
