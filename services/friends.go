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

type FriendService struct {
	blocks *BlockService
}

func NewFriendService(blocks *BlockService) *FriendService {
	return &FriendService{blocks: blocks}
}

func pairKey(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// GetFriendshipStatus returns the row for the unordered pair, or nil if none.
func (fs *FriendService) GetFriendshipStatus(ctx context.Context, a, b int64) (*models.Friendship, error) {
	low, high := pairKey(a, b)
	var friendship models.Friendship
	err := db.GetReadOnlyDB(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return &friendship, nil
}

// SendFriendRequest creates a pending row for the pair. If a row already
// exists in any status the existing row is returned unchanged: duplicates
// and mutual requests are resolved transparently, never surfaced as errors.
// The original addressee still has to accept explicitly.
func (fs *FriendService) SendFriendRequest(ctx context.Context, requesterID, addresseeID int64) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, &ValidationError{Reason: "cannot send a friend request to yourself"}
	}

	var profileCount int64
	err := db.GetReadOnlyDB(ctx).Model(&models.Profile{}).
		Where("id IN (?)", []int64{requesterID, addresseeID}).
		Count(&profileCount).Error
	if err != nil {
		return nil, fmt.Errorf("error checking profiles: %w", err)
	}
	if profileCount != 2 {
		return nil, &NotFoundError{Entity: "profile", ID: addresseeID}
	}

	blocked, err := fs.blocks.IsBlockedPair(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, &PermissionError{Reason: "friend requests are not allowed between these users", Blocked: true}
	}

	low, high := pairKey(requesterID, addresseeID)
	friendship := models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		UserLowID:   low,
		UserHighID:  high,
		Status:      models.FriendshipPending,
		CreatedAt:   time.Now(),
	}

	res := db.GetWriteDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&friendship)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return &friendship, nil
	}

	// The pair already has a row (possibly inserted a moment ago by the
	// other party). Return it as-is.
	var existing models.Friendship
	err = db.GetWriteDB(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve existing friendship: %w", err)
	}
	return &existing, nil
}

// AcceptFriendRequest transitions pending -> accepted. Only the addressee
// of the original request may accept.
func (fs *FriendService) AcceptFriendRequest(ctx context.Context, friendshipID, callerID int64) (*models.Friendship, error) {
	var friendship models.Friendship
	err := db.GetWriteDB(ctx).
		Where("id = ? AND status = ?", friendshipID, models.FriendshipPending).
		First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "friend request", ID: friendshipID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load friend request: %w", err)
	}

	if friendship.AddresseeID != callerID {
		return nil, &PermissionError{Reason: "only the addressee can accept a friend request"}
	}

	now := time.Now()
	friendship.Status = models.FriendshipAccepted
	friendship.AcceptedAt = &now
	if err := db.GetWriteDB(ctx).Save(&friendship).Error; err != nil {
		return nil, fmt.Errorf("failed to accept friendship: %w", err)
	}
	return &friendship, nil
}

// DeclineFriendRequest deletes the row whatever its status. Either party
// may call it; removeFriend is the same operation under a different route.
func (fs *FriendService) DeclineFriendRequest(ctx context.Context, friendshipID, callerID int64) error {
	var friendship models.Friendship
	err := db.GetWriteDB(ctx).Where("id = ?", friendshipID).First(&friendship).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: "friendship", ID: friendshipID}
	}
	if err != nil {
		return fmt.Errorf("failed to load friendship: %w", err)
	}

	if friendship.RequesterID != callerID && friendship.AddresseeID != callerID {
		return &PermissionError{Reason: "not a party of this friendship"}
	}

	if err := db.GetWriteDB(ctx).Delete(&models.Friendship{}, friendshipID).Error; err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return nil
}

// RemoveFriend is decline applied to an accepted row.
func (fs *FriendService) RemoveFriend(ctx context.Context, friendshipID, callerID int64) error {
	return fs.DeclineFriendRequest(ctx, friendshipID, callerID)
}

// GetFriends returns the profiles of all accepted friends.
func (fs *FriendService) GetFriends(ctx context.Context, userID int64) ([]models.Profile, error) {
	var friends []models.Profile
	err := db.GetReadOnlyDB(ctx).
		Table("profiles p").
		Joins("JOIN friendships f ON (f.requester_id = p.id AND f.addressee_id = ?) OR (f.addressee_id = p.id AND f.requester_id = ?)", userID, userID).
		Where("f.status = ? AND p.id != ?", models.FriendshipAccepted, userID).
		Select("p.id, p.nickname, p.display_name, p.avatar_url, p.created_at").
		Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return friends, nil
}

// AcceptedFriendIDs returns the single-hop accepted friend id set. Used by
// the check-in fan-out to resolve recipients.
func (fs *FriendService) AcceptedFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	var friendships []models.Friendship
	err := db.GetReadOnlyDB(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.FriendshipAccepted).
		Find(&friendships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get friend ids: %w", err)
	}

	ids := make([]int64, 0, len(friendships))
	for _, f := range friendships {
		if f.RequesterID == userID {
			ids = append(ids, f.AddresseeID)
		} else {
			ids = append(ids, f.RequesterID)
		}
	}
	return ids, nil
}

// GetPendingRequests returns the profiles that sent the user a pending request.
func (fs *FriendService) GetPendingRequests(ctx context.Context, userID int64) ([]models.Profile, error) {
	var requesters []models.Profile
	err := db.GetReadOnlyDB(ctx).
		Table("profiles p").
		Joins("JOIN friendships f ON f.requester_id = p.id").
		Where("f.addressee_id = ? AND f.status = ?", userID, models.FriendshipPending).
		Select("p.id, p.nickname, p.display_name, p.avatar_url, p.created_at").
		Find(&requesters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending requests: %w", err)
	}
	return requesters, nil
}
