package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"waggle/db"
	"waggle/models"

	"gorm.io/gorm"
)

type CheckinService struct{}

func NewCheckinService() *CheckinService {
	return &CheckinService{}
}

// CreateCheckin records the user at a park and publishes the insert event
// that drives the friend check-in fan-out.
func (cs *CheckinService) CreateCheckin(ctx context.Context, userID, parkID int64) (*models.Checkin, error) {
	var park models.Park
	err := db.GetReadOnlyDB(ctx).Where("id = ?", parkID).First(&park).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "park", ID: parkID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load park: %w", err)
	}

	checkin := models.Checkin{
		UserID:    userID,
		ParkID:    parkID,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(&checkin).Error; err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	if err := PublishInsertEvent(ctx, TableCheckins, CheckinEvent{
		ID:        checkin.ID,
		UserID:    checkin.UserID,
		ParkID:    checkin.ParkID,
		CreatedAt: checkin.CreatedAt,
	}); err != nil {
		log.Printf("failed to publish check-in insert event: %v", err)
	}

	return &checkin, nil
}

// RecentCheckins lists the latest check-ins at a park.
func (cs *CheckinService) RecentCheckins(ctx context.Context, parkID int64, limit int) ([]models.Checkin, error) {
	if limit <= 0 {
		limit = 20
	}
	var checkins []models.Checkin
	err := db.GetReadOnlyDB(ctx).
		Where("park_id = ?", parkID).
		Order("created_at DESC").
		Limit(limit).
		Find(&checkins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return checkins, nil
}
