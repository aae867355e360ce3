package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"waggle/db"
	"waggle/models"

	"gorm.io/gorm/clause"
)

// PushPayload is one entry of the batched gateway request, one per device
// token. The gateway acknowledges delivery per token, so a failing token
// never blocks the rest of the batch on its side.
type PushPayload struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

type PushService struct {
	gatewayURL string
	httpClient *http.Client
}

func NewPushService(gatewayURL string) *PushService {
	return &PushService{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterToken stores a device token for the user. Re-registering the
// same token is a no-op; a user may hold many tokens at once.
func (ps *PushService) RegisterToken(ctx context.Context, userID int64, token string) error {
	if token == "" {
		return &ValidationError{Reason: "push token cannot be empty"}
	}
	row := models.PushToken{UserID: userID, Token: token, CreatedAt: time.Now()}
	err := db.GetWriteDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	return nil
}

func (ps *PushService) RemoveToken(ctx context.Context, userID int64, token string) error {
	err := db.GetWriteDB(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.PushToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove push token: %w", err)
	}
	return nil
}

// TokensForUsers resolves every registered device token of the given
// recipients.
func (ps *PushService) TokensForUsers(ctx context.Context, userIDs []int64) ([]models.PushToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []models.PushToken
	err := db.GetReadOnlyDB(ctx).Where("user_id IN (?)", userIDs).Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve push tokens: %w", err)
	}
	return tokens, nil
}

// SendBatch submits all payloads of one fan-out invocation as a single
// gateway call. Any failure aborts this batch only; retries belong to the
// upstream event source.
func (ps *PushService) SendBatch(ctx context.Context, payloads []PushPayload) error {
	if len(payloads) == 0 {
		return nil
	}

	body, err := json.Marshal(payloads)
	if err != nil {
		return fmt.Errorf("failed to marshal push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ps.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: "push gateway request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ps.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "push gateway call", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: "push gateway call", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}
