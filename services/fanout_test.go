package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"waggle/db"
	"waggle/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	server  *httptest.Server
	calls   int
	batches [][]PushPayload
	status  int
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()

	gw := &fakeGateway{status: http.StatusOK}
	gw.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []PushPayload
		if err := json.Unmarshal(body, &batch); err != nil {
			t.Errorf("gateway received invalid JSON: %v", err)
		}
		gw.calls++
		gw.batches = append(gw.batches, batch)
		w.WriteHeader(gw.status)
	}))
	t.Cleanup(gw.server.Close)
	return gw
}

func newFanoutFixture(t *testing.T) (*FanoutService, *fakeGateway, *ConversationService, *FriendService) {
	t.Helper()
	setupTestDB(t)

	gw := newFakeGateway(t)
	push := NewPushService(gw.server.URL)
	friends := newFriendService()
	conversations := NewConversationService()
	fanout := NewFanoutService(push, friends, conversations)
	return fanout, gw, conversations, friends
}

func registerToken(t *testing.T, userID int64, token string) {
	t.Helper()
	row := models.PushToken{UserID: userID, Token: token, CreatedAt: time.Now()}
	require.NoError(t, db.ORM.Create(&row).Error)
}

func makeFriends(t *testing.T, fs *FriendService, a, b int64) {
	t.Helper()
	pending, err := fs.SendFriendRequest(testCtx(), a, b)
	require.NoError(t, err)
	_, err = fs.AcceptFriendRequest(testCtx(), pending.ID, b)
	require.NoError(t, err)
}

func TestMessageFanout(t *testing.T) {
	fanout, gw, conversations, _ := newFanoutFixture(t)
	u1 := createTestProfile(t)
	u2 := createTestProfile(t)
	conversationID, err := conversations.GetOrCreateConversation(testCtx(), u1.ID, u2.ID)
	require.NoError(t, err)

	// Two devices for the recipient: both must land in one batched call.
	registerToken(t, u2.ID, "token-phone")
	registerToken(t, u2.ID, "token-tablet")

	result, err := fanout.HandleMessageInsert(testCtx(), MessageEvent{
		ID:             1,
		ConversationID: conversationID,
		SenderID:       u1.ID,
		Content:        "fancy a playdate at the park?",
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Sent)

	require.Equal(t, 1, gw.calls)
	batch := gw.batches[0]
	require.Len(t, batch, 2)
	tokens := []string{batch[0].To, batch[1].To}
	assert.ElementsMatch(t, []string{"token-phone", "token-tablet"}, tokens)
	for _, payload := range batch {
		assert.Equal(t, u1.DisplayName, payload.Title)
		assert.Equal(t, "fancy a playdate at the park?", payload.Body)
		assert.Contains(t, payload.Data, "conversationId")
	}

	// One notification row for the one recipient.
	var count int64
	require.NoError(t, db.ORM.Model(&models.Notification{}).Where("recipient_id = ?", u2.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMessageFanoutTruncatesBody(t *testing.T) {
	fanout, gw, conversations, _ := newFanoutFixture(t)
	u1 := createTestProfile(t)
	u2 := createTestProfile(t)
	conversationID, err := conversations.GetOrCreateConversation(testCtx(), u1.ID, u2.ID)
	require.NoError(t, err)
	registerToken(t, u2.ID, "token-1")

	long := strings.Repeat("a", 150)
	_, err = fanout.HandleMessageInsert(testCtx(), MessageEvent{
		ID:             1,
		ConversationID: conversationID,
		SenderID:       u1.ID,
		Content:        long,
	})
	require.NoError(t, err)

	require.Equal(t, 1, gw.calls)
	assert.Equal(t, strings.Repeat("a", 100), gw.batches[0][0].Body)
}

func TestMessageFanoutNoTokens(t *testing.T) {
	fanout, gw, conversations, _ := newFanoutFixture(t)
	u1 := createTestProfile(t)
	u2 := createTestProfile(t)
	conversationID, err := conversations.GetOrCreateConversation(testCtx(), u1.ID, u2.ID)
	require.NoError(t, err)

	result, err := fanout.HandleMessageInsert(testCtx(), MessageEvent{
		ID:             1,
		ConversationID: conversationID,
		SenderID:       u1.ID,
		Content:        "anyone?",
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "no tokens", result.Reason)
	assert.Zero(t, gw.calls)
}

func TestMessageFanoutInvalidPayload(t *testing.T) {
	fanout, gw, _, _ := newFanoutFixture(t)

	result, err := fanout.HandleMessageInsert(testCtx(), MessageEvent{})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "invalid payload", result.Reason)
	assert.Zero(t, gw.calls)
}

func TestMessageFanoutGatewayFailure(t *testing.T) {
	fanout, gw, conversations, _ := newFanoutFixture(t)
	gw.status = http.StatusBadGateway

	u1 := createTestProfile(t)
	u2 := createTestProfile(t)
	conversationID, err := conversations.GetOrCreateConversation(testCtx(), u1.ID, u2.ID)
	require.NoError(t, err)
	registerToken(t, u2.ID, "token-1")

	_, err = fanout.HandleMessageInsert(testCtx(), MessageEvent{
		ID:             1,
		ConversationID: conversationID,
		SenderID:       u1.ID,
		Content:        "hello",
	})
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestCheckinFanout(t *testing.T) {
	fanout, gw, _, friends := newFanoutFixture(t)
	actor := createTestProfile(t)
	friend1 := createTestProfile(t)
	friend2 := createTestProfile(t)
	pendingOnly := createTestProfile(t)
	park := createTestPark(t, "Zilker Bark Park", "Texas")

	makeFriends(t, friends, actor.ID, friend1.ID)
	makeFriends(t, friends, friend2.ID, actor.ID)
	_, err := friends.SendFriendRequest(testCtx(), actor.ID, pendingOnly.ID)
	require.NoError(t, err)

	registerToken(t, friend1.ID, "f1-token")
	registerToken(t, friend2.ID, "f2-token")
	registerToken(t, pendingOnly.ID, "pending-token")

	result, err := fanout.HandleCheckinInsert(testCtx(), CheckinEvent{
		ID:     1,
		UserID: actor.ID,
		ParkID: park.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)

	require.Equal(t, 1, gw.calls)
	batch := gw.batches[0]
	require.Len(t, batch, 2)
	tokens := []string{batch[0].To, batch[1].To}
	assert.ElementsMatch(t, []string{"f1-token", "f2-token"}, tokens)
	for _, payload := range batch {
		assert.Equal(t, actor.DisplayName+" just checked in!", payload.Title)
		assert.Equal(t, actor.DisplayName+" is at Zilker Bark Park right now.", payload.Body)
		assert.Equal(t, "friend_checkin", payload.Data["type"])
	}
}

func TestCheckinFanoutNoFriends(t *testing.T) {
	fanout, gw, _, _ := newFanoutFixture(t)
	actor := createTestProfile(t)
	park := createTestPark(t, "Montrose Dog Beach", "Illinois")

	result, err := fanout.HandleCheckinInsert(testCtx(), CheckinEvent{
		ID:     1,
		UserID: actor.ID,
		ParkID: park.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "no recipients", result.Reason)
	assert.Zero(t, gw.calls)
}

func TestReviewReplyFanout(t *testing.T) {
	fanout, gw, _, _ := newFanoutFixture(t)
	author := createTestProfile(t)
	replier := createTestProfile(t)
	park := createTestPark(t, "Prospect Park Dog Beach!", "New York")

	review := models.Review{ParkID: park.ID, AuthorID: author.ID, Rating: 5, Content: "great park"}
	require.NoError(t, db.ORM.Create(&review).Error)
	registerToken(t, author.ID, "author-token")

	result, err := fanout.HandleReviewReplyInsert(testCtx(), ReviewReplyEvent{
		ID:        1,
		ReviewID:  review.ID,
		ReplierID: replier.ID,
		Content:   "totally agree, the water fountains are great",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	require.Equal(t, 1, gw.calls)
	payload := gw.batches[0][0]
	assert.Equal(t, "author-token", payload.To)
	assert.Equal(t, "totally agree, the water fountains are great", payload.Body)
	assert.Equal(t, "/parks/new-york/prospect-park-dog-beach", payload.Data["path"])
}

// Replying to your own review never notifies.
func TestReviewReplySelfNoop(t *testing.T) {
	fanout, gw, _, _ := newFanoutFixture(t)
	author := createTestProfile(t)
	park := createTestPark(t, "Golden Gate Dog Run", "California")

	review := models.Review{ParkID: park.ID, AuthorID: author.ID, Rating: 4, Content: "nice"}
	require.NoError(t, db.ORM.Create(&review).Error)
	registerToken(t, author.ID, "author-token")

	result, err := fanout.HandleReviewReplyInsert(testCtx(), ReviewReplyEvent{
		ID:        1,
		ReviewID:  review.ID,
		ReplierID: author.ID,
		Content:   "replying to myself",
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "self reply", result.Reason)
	assert.Zero(t, gw.calls)
}

func TestReviewReplyFallbackBody(t *testing.T) {
	fanout, gw, _, _ := newFanoutFixture(t)
	author := createTestProfile(t)
	replier := createTestProfile(t)
	park := createTestPark(t, "Golden Gate Dog Run", "California")

	review := models.Review{ParkID: park.ID, AuthorID: author.ID, Rating: 4, Content: "nice"}
	require.NoError(t, db.ORM.Create(&review).Error)
	registerToken(t, author.ID, "author-token")

	// Content missing from the event and no stored reply row to look up.
	result, err := fanout.HandleReviewReplyInsert(testCtx(), ReviewReplyEvent{
		ID:        404,
		ReviewID:  review.ID,
		ReplierID: replier.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, "Someone replied to your park review.", gw.batches[0][0].Body)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		state, park string
		wantState   string
		wantPark    string
	}{
		{"New York", "Prospect Park Dog Beach", "new-york", "prospect-park-dog-beach"},
		{"California", "Fort Funston (Off-Leash!)", "california", "fort-funston-off-leash"},
		{"Texas", "  Zilker   Bark  Park  ", "texas", "zilker-bark-park"},
		{"Rhode Island", "--Dog's Cove--", "rhode-island", "dogs-cove"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.wantState, slugifyState(tc.state), "state %q", tc.state)
		assert.Equal(t, tc.wantPark, slugifyName(tc.park), "park %q", tc.park)
	}
}
