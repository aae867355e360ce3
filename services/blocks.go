package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waggle/db"
	"waggle/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	BlockStatusNone      = "none"
	BlockStatusBlocked   = "blocked"
	BlockStatusBlockedBy = "blocked_by"
)

type BlockService struct{}

func NewBlockService() *BlockService {
	return &BlockService{}
}

// BlockUser creates the directed edge self -> other. Re-blocking is a no-op.
func (bs *BlockService) BlockUser(ctx context.Context, selfID, otherID int64) error {
	if selfID == otherID {
		return &ValidationError{Reason: "cannot block yourself"}
	}

	block := models.Block{
		BlockerID: selfID,
		BlockedID: otherID,
		CreatedAt: time.Now(),
	}
	err := db.GetWriteDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&block).Error
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

// UnblockUser removes the directed edge self -> other if present.
func (bs *BlockService) UnblockUser(ctx context.Context, selfID, otherID int64) error {
	err := db.GetWriteDB(ctx).
		Where("blocker_id = ? AND blocked_id = ?", selfID, otherID).
		Delete(&models.Block{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove block: %w", err)
	}
	return nil
}

// GetBlockStatus reports the relation from self's point of view. A block
// held by self wins over one held by the other party.
func (bs *BlockService) GetBlockStatus(ctx context.Context, selfID, otherID int64) (string, error) {
	var blocks []models.Block
	err := db.GetReadOnlyDB(ctx).Where(
		"(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
		selfID, otherID, otherID, selfID,
	).Find(&blocks).Error
	if err != nil {
		return "", fmt.Errorf("failed to get block status: %w", err)
	}

	status := BlockStatusNone
	for _, b := range blocks {
		if b.BlockerID == selfID {
			return BlockStatusBlocked, nil
		}
		status = BlockStatusBlockedBy
	}
	return status, nil
}

// IsBlockedPair reports whether a block exists in either direction.
// Consulted by friendship and message mutations before writing.
func (bs *BlockService) IsBlockedPair(ctx context.Context, a, b int64) (bool, error) {
	var block models.Block
	err := db.GetReadOnlyDB(ctx).Where(
		"(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
		a, b, b, a,
	).First(&block).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check block pair: %w", err)
}
