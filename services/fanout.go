package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"waggle/db"
	"waggle/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

const pushBodyLimit = 100

var (
	fanoutInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_invocations_total",
			Help: "Total number of fan-out invocations by event type and outcome",
		},
		[]string{"event", "outcome"},
	)

	pushPayloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_payloads_total",
			Help: "Total number of push payloads submitted to the gateway",
		},
		[]string{"event"},
	)
)

// FanoutResult describes one invocation. Skipped results ("invalid
// payload", "no recipients", "no tokens", self-reply) are expected
// outcomes, not errors.
type FanoutResult struct {
	Sent    int    `json:"sent"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// FanoutService resolves recipients for insert events and batches push
// payloads to the gateway. Stateless: every invocation stands alone, many
// may run concurrently, and a gateway failure aborts only its own batch.
type FanoutService struct {
	push          *PushService
	friends       *FriendService
	conversations *ConversationService
}

func NewFanoutService(push *PushService, friends *FriendService, conversations *ConversationService) *FanoutService {
	return &FanoutService{push: push, friends: friends, conversations: conversations}
}

func skip(event, reason string) *FanoutResult {
	fanoutInvocationsTotal.WithLabelValues(event, "skipped").Inc()
	return &FanoutResult{Skipped: true, Reason: reason}
}

// HandleMessageInsert notifies every participant of the message's
// conversation except the sender.
func (fo *FanoutService) HandleMessageInsert(ctx context.Context, event MessageEvent) (*FanoutResult, error) {
	if event.ConversationID == 0 || event.SenderID == 0 {
		return skip("message", "invalid payload"), nil
	}

	participants, err := fo.conversations.Participants(ctx, event.ConversationID)
	if err != nil {
		return nil, err
	}
	recipients := make([]int64, 0, len(participants))
	for _, id := range participants {
		if id != event.SenderID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return skip("message", "no recipients"), nil
	}

	tokens, err := fo.push.TokensForUsers(ctx, recipients)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return skip("message", "no tokens"), nil
	}

	title := "New message"
	var sender models.Profile
	if err := db.GetReadOnlyDB(ctx).Where("id = ?", event.SenderID).First(&sender).Error; err == nil && sender.DisplayName != "" {
		title = sender.DisplayName
	}

	data := map[string]string{"conversationId": strconv.FormatInt(event.ConversationID, 10)}
	payloads := make([]PushPayload, 0, len(tokens))
	for _, token := range tokens {
		payloads = append(payloads, PushPayload{
			To:    token.Token,
			Title: title,
			Body:  truncateBody(event.Content),
			Data:  data,
			Sound: "default",
		})
	}

	if err := fo.push.SendBatch(ctx, payloads); err != nil {
		fanoutInvocationsTotal.WithLabelValues("message", "error").Inc()
		return nil, err
	}

	fo.recordNotifications(ctx, recipients, "new_message", data)
	fanoutInvocationsTotal.WithLabelValues("message", "sent").Inc()
	pushPayloadsTotal.WithLabelValues("message").Add(float64(len(payloads)))
	return &FanoutResult{Sent: len(payloads)}, nil
}

// HandleCheckinInsert notifies the checking-in user's accepted friends.
// Single hop only: friends of friends are never resolved.
func (fo *FanoutService) HandleCheckinInsert(ctx context.Context, event CheckinEvent) (*FanoutResult, error) {
	if event.UserID == 0 || event.ParkID == 0 {
		return skip("checkin", "invalid payload"), nil
	}

	var actor models.Profile
	if err := db.GetReadOnlyDB(ctx).Where("id = ?", event.UserID).First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return skip("checkin", "invalid payload"), nil
		}
		return nil, fmt.Errorf("failed to load check-in actor: %w", err)
	}

	var park models.Park
	if err := db.GetReadOnlyDB(ctx).Where("id = ?", event.ParkID).First(&park).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return skip("checkin", "invalid payload"), nil
		}
		return nil, fmt.Errorf("failed to load park: %w", err)
	}

	recipients, err := fo.friends.AcceptedFriendIDs(ctx, event.UserID)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return skip("checkin", "no recipients"), nil
	}

	tokens, err := fo.push.TokensForUsers(ctx, recipients)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return skip("checkin", "no tokens"), nil
	}

	data := map[string]string{
		"type":   "friend_checkin",
		"parkId": strconv.FormatInt(event.ParkID, 10),
		"userId": strconv.FormatInt(event.UserID, 10),
	}
	payloads := make([]PushPayload, 0, len(tokens))
	for _, token := range tokens {
		payloads = append(payloads, PushPayload{
			To:    token.Token,
			Title: fmt.Sprintf("%s just checked in!", actor.DisplayName),
			Body:  fmt.Sprintf("%s is at %s right now.", actor.DisplayName, park.Name),
			Data:  data,
			Sound: "default",
		})
	}

	if err := fo.push.SendBatch(ctx, payloads); err != nil {
		fanoutInvocationsTotal.WithLabelValues("checkin", "error").Inc()
		return nil, err
	}

	fo.recordNotifications(ctx, recipients, "friend_checkin", data)
	fanoutInvocationsTotal.WithLabelValues("checkin", "sent").Inc()
	pushPayloadsTotal.WithLabelValues("checkin").Add(float64(len(payloads)))
	return &FanoutResult{Sent: len(payloads)}, nil
}

// HandleReviewReplyInsert notifies the parent review's author with a
// deep link to the park page. Replying to your own review never notifies.
func (fo *FanoutService) HandleReviewReplyInsert(ctx context.Context, event ReviewReplyEvent) (*FanoutResult, error) {
	if event.ReviewID == 0 || event.ReplierID == 0 {
		return skip("review_reply", "invalid payload"), nil
	}

	var review models.Review
	if err := db.GetReadOnlyDB(ctx).Where("id = ?", event.ReviewID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return skip("review_reply", "invalid payload"), nil
		}
		return nil, fmt.Errorf("failed to load parent review: %w", err)
	}

	if review.AuthorID == event.ReplierID {
		return skip("review_reply", "self reply"), nil
	}

	tokens, err := fo.push.TokensForUsers(ctx, []int64{review.AuthorID})
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return skip("review_reply", "no tokens"), nil
	}

	body := "Someone replied to your park review."
	content := event.Content
	if content == "" {
		var reply models.ReviewReply
		if err := db.GetReadOnlyDB(ctx).Where("id = ?", event.ID).First(&reply).Error; err == nil {
			content = reply.Content
		}
	}
	if content != "" {
		body = truncateBody(content)
	}

	data := map[string]string{
		"type":     "review_reply",
		"reviewId": strconv.FormatInt(event.ReviewID, 10),
	}
	var park models.Park
	if err := db.GetReadOnlyDB(ctx).Where("id = ?", review.ParkID).First(&park).Error; err == nil {
		data["path"] = fmt.Sprintf("/parks/%s/%s", slugifyState(park.State), slugifyName(park.Name))
	}

	payloads := make([]PushPayload, 0, len(tokens))
	for _, token := range tokens {
		payloads = append(payloads, PushPayload{
			To:    token.Token,
			Title: "New reply to your review",
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	}

	if err := fo.push.SendBatch(ctx, payloads); err != nil {
		fanoutInvocationsTotal.WithLabelValues("review_reply", "error").Inc()
		return nil, err
	}

	fo.recordNotifications(ctx, []int64{review.AuthorID}, "review_reply", data)
	fanoutInvocationsTotal.WithLabelValues("review_reply", "sent").Inc()
	pushPayloadsTotal.WithLabelValues("review_reply").Add(float64(len(payloads)))
	return &FanoutResult{Sent: len(payloads)}, nil
}

// recordNotifications writes one notification row per recipient.
// Best-effort: a failed write never fails the fan-out.
func (fo *FanoutService) recordNotifications(ctx context.Context, recipients []int64, notifType string, data map[string]string) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	rows := make([]models.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		rows = append(rows, models.Notification{
			RecipientID: recipientID,
			Type:        notifType,
			Data:        string(payload),
			CreatedAt:   time.Now(),
		})
	}
	_ = db.GetWriteDB(ctx).Create(&rows).Error
}

func truncateBody(content string) string {
	runes := []rune(content)
	if len(runes) <= pushBodyLimit {
		return content
	}
	return string(runes[:pushBodyLimit])
}

var (
	nonWordRe  = regexp.MustCompile(`[^\w\s-]`)
	collapseRe = regexp.MustCompile(`[\s_-]+`)
)

// slugifyState lowercases and replaces spaces with hyphens.
func slugifyState(state string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(state)), " ", "-")
}

// slugifyName strips non-word characters, collapses whitespace and hyphen
// runs to single hyphens and trims leading/trailing hyphens.
func slugifyName(name string) string {
	slug := nonWordRe.ReplaceAllString(strings.ToLower(name), "")
	slug = collapseRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
