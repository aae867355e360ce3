package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"waggle/db"
	"waggle/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm/clause"
)

const unreadCounterTTL = 24 * time.Hour

// UnreadService keeps per-conversation unread counters. Redis holds a
// cached value that is incremented on message arrival and reset on read;
// any miss or Redis failure falls back to a recount from the message log,
// so a stale counter self-corrects on the next fetch.
type UnreadService struct {
	redisClient   *redis.Client
	conversations *ConversationService
}

func NewUnreadService(redisClient *redis.Client, conversations *ConversationService) *UnreadService {
	return &UnreadService{redisClient: redisClient, conversations: conversations}
}

func (us *UnreadService) counterKey(userID, conversationID int64) string {
	return fmt.Sprintf("unread:%d:%d", userID, conversationID)
}

// IncrementUnread bumps the cached counter for the recipient. Failures are
// logged only: the recount path makes the cache advisory.
func (us *UnreadService) IncrementUnread(ctx context.Context, conversationID, recipientID int64) {
	if us.redisClient == nil {
		return
	}
	key := us.counterKey(recipientID, conversationID)
	pipe := us.redisClient.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, unreadCounterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("failed to increment unread counter %s: %v", key, err)
	}
}

// MarkConversationRead moves the viewer's last-read marker to now and
// resets the cached counter. Fire-and-forget on the caller side: a
// transient stale count after reading is acceptable.
func (us *UnreadService) MarkConversationRead(ctx context.Context, conversationID, viewerID int64) error {
	marker := models.ConversationRead{
		ConversationID: conversationID,
		UserID:         viewerID,
		LastReadAt:     time.Now(),
	}
	err := db.GetWriteDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_read_at"}),
	}).Create(&marker).Error
	if err != nil {
		return fmt.Errorf("failed to update read marker: %w", err)
	}

	if us.redisClient != nil {
		key := us.counterKey(viewerID, conversationID)
		if err := us.redisClient.Set(ctx, key, 0, unreadCounterTTL).Err(); err != nil {
			log.Printf("failed to reset unread counter %s: %v", key, err)
		}
	}
	return nil
}

// UnreadCount returns messages after the viewer's marker sent by the other
// participant.
func (us *UnreadService) UnreadCount(ctx context.Context, conversationID, viewerID int64) (int64, error) {
	if us.redisClient != nil {
		key := us.counterKey(viewerID, conversationID)
		data, err := us.redisClient.Get(ctx, key).Result()
		if err == nil {
			if count, perr := strconv.ParseInt(data, 10, 64); perr == nil {
				return count, nil
			}
		} else if err != redis.Nil {
			log.Printf("unread counter read failed, recounting: %v", err)
		}
	}

	count, err := us.recount(ctx, conversationID, viewerID)
	if err != nil {
		return 0, err
	}

	if us.redisClient != nil {
		key := us.counterKey(viewerID, conversationID)
		if err := us.redisClient.Set(ctx, key, count, unreadCounterTTL).Err(); err != nil {
			log.Printf("failed to cache unread counter %s: %v", key, err)
		}
	}
	return count, nil
}

func (us *UnreadService) recount(ctx context.Context, conversationID, viewerID int64) (int64, error) {
	query := db.GetReadOnlyDB(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ?", conversationID, viewerID)

	var marker models.ConversationRead
	err := db.GetReadOnlyDB(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, viewerID).
		First(&marker).Error
	if err == nil {
		query = query.Where("created_at > ?", marker.LastReadAt)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// BadgeCount sums unread counts across all of the viewer's conversations.
// Cached counters are fetched in one pipeline round trip; only the misses
// fall back to a recount.
func (us *UnreadService) BadgeCount(ctx context.Context, viewerID int64) (int64, error) {
	conversationIDs, err := us.conversations.ConversationIDs(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	if len(conversationIDs) == 0 {
		return 0, nil
	}

	var total int64
	misses := conversationIDs

	if us.redisClient != nil {
		pipe := us.redisClient.Pipeline()
		cmds := make(map[int64]*redis.StringCmd, len(conversationIDs))
		for _, conversationID := range conversationIDs {
			cmds[conversationID] = pipe.Get(ctx, us.counterKey(viewerID, conversationID))
		}
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			log.Printf("badge pipeline read failed, recounting: %v", err)
		}

		misses = make([]int64, 0, len(conversationIDs))
		for _, conversationID := range conversationIDs {
			data, err := cmds[conversationID].Result()
			if err == nil {
				if count, perr := strconv.ParseInt(data, 10, 64); perr == nil {
					total += count
					continue
				}
			}
			misses = append(misses, conversationID)
		}
	}

	for _, conversationID := range misses {
		count, err := us.recount(ctx, conversationID, viewerID)
		if err != nil {
			return 0, err
		}
		total += count

		if us.redisClient != nil {
			key := us.counterKey(viewerID, conversationID)
			if err := us.redisClient.Set(ctx, key, count, unreadCounterTTL).Err(); err != nil {
				log.Printf("failed to cache unread counter %s: %v", key, err)
			}
		}
	}
	return total, nil
}
