package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"waggle/db"
	"waggle/models"

	"gorm.io/gorm"
)

type ReviewService struct{}

func NewReviewService() *ReviewService {
	return &ReviewService{}
}

func (rs *ReviewService) CreateReview(ctx context.Context, parkID, authorID int64, rating int, content string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Reason: "rating must be between 1 and 5"}
	}

	var park models.Park
	err := db.GetReadOnlyDB(ctx).Where("id = ?", parkID).First(&park).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "park", ID: parkID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load park: %w", err)
	}

	review := models.Review{
		ParkID:    parkID,
		AuthorID:  authorID,
		Rating:    rating,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(&review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &review, nil
}

// CreateReply appends a reply under a review and publishes the insert
// event that drives the review-reply fan-out.
func (rs *ReviewService) CreateReply(ctx context.Context, reviewID, replierID int64, content string) (*models.ReviewReply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Reason: "reply content cannot be empty"}
	}

	var review models.Review
	err := db.GetReadOnlyDB(ctx).Where("id = ?", reviewID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "review", ID: reviewID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	reply := models.ReviewReply{
		ReviewID:  reviewID,
		ReplierID: replierID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(&reply).Error; err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	if err := PublishInsertEvent(ctx, TableReviewReplies, ReviewReplyEvent{
		ID:        reply.ID,
		ReviewID:  reply.ReviewID,
		ReplierID: reply.ReplierID,
		Content:   reply.Content,
		CreatedAt: reply.CreatedAt,
	}); err != nil {
		log.Printf("failed to publish review reply insert event: %v", err)
	}

	return &reply, nil
}

// ParkReviews lists reviews for a park, newest first.
func (rs *ReviewService) ParkReviews(ctx context.Context, parkID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := db.GetReadOnlyDB(ctx).
		Where("park_id = ?", parkID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
