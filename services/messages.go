package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"waggle/db"
	"waggle/models"

	"gorm.io/gorm"
)

type MessageService struct {
	conversations *ConversationService
	blocks        *BlockService
	unread        *UnreadService
}

func NewMessageService(conversations *ConversationService, blocks *BlockService, unread *UnreadService) *MessageService {
	return &MessageService{
		conversations: conversations,
		blocks:        blocks,
		unread:        unread,
	}
}

// MessagePage is one page of history plus the cursor for the next older page.
type MessagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor string           `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

const DefaultPageSize = 50

// SendMessage appends an immutable message after gating on participant
// membership and the block relation. The insert event and the websocket
// tail push are best-effort; the stored row is the source of truth.
func (ms *MessageService) SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Reason: "message content cannot be empty"}
	}

	var conversation models.Conversation
	err := db.GetReadOnlyDB(ctx).Where("id = ?", conversationID).First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "conversation", ID: conversationID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if senderID != conversation.UserLowID && senderID != conversation.UserHighID {
		return nil, &PermissionError{Reason: "sender is not a participant of this conversation"}
	}

	blocked, err := ms.blocks.IsBlockedPair(ctx, conversation.UserLowID, conversation.UserHighID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, &PermissionError{Reason: "messaging is blocked between these users", Blocked: true}
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	recipientID := conversation.UserLowID
	if recipientID == senderID {
		recipientID = conversation.UserHighID
	}

	ms.unread.IncrementUnread(ctx, conversationID, recipientID)
	GlobalWSConnManager.SendMessage(recipientID, &message)

	if err := PublishInsertEvent(ctx, TableMessages, MessageEvent{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
	}); err != nil {
		log.Printf("failed to publish message insert event: %v", err)
	}

	return &message, nil
}

// LoadMore pages backwards through history. The cursor is the
// (created_at, id) of the oldest message already loaded, so inserts at the
// head never shift page boundaries. Fetch is newest-first, the returned
// slice is reversed to ascending display order.
func (ms *MessageService) LoadMore(ctx context.Context, conversationID, viewerID int64, cursor string, pageSize int) (*MessagePage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	participants, err := ms.conversations.Participants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	isParticipant := false
	for _, id := range participants {
		if id == viewerID {
			isParticipant = true
		}
	}
	if !isParticipant {
		return nil, &PermissionError{Reason: "viewer is not a participant of this conversation"}
	}

	query := db.GetReadOnlyDB(ctx).
		Where("conversation_id = ?", conversationID)

	if cursor != "" {
		createdAt, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	var messages []models.Message
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pageSize + 1).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	hasMore := len(messages) > pageSize
	if hasMore {
		messages = messages[:pageSize]
	}

	nextCursor := ""
	if len(messages) > 0 {
		oldest := messages[len(messages)-1]
		nextCursor = encodeCursor(oldest.CreatedAt, oldest.ID)
	}

	// Reverse to ascending (created_at, id) for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &MessagePage{Messages: messages, NextCursor: nextCursor, HasMore: hasMore}, nil
}

func encodeCursor(createdAt time.Time, id int64) string {
	raw := fmt.Sprintf("%d:%d", createdAt.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, &ValidationError{Reason: "invalid cursor"}
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, &ValidationError{Reason: "invalid cursor"}
	}
	nanos, err1 := strconv.ParseInt(parts[0], 10, 64)
	id, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return time.Time{}, 0, &ValidationError{Reason: "invalid cursor"}
	}
	return time.Unix(0, nanos), id, nil
}
