package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"waggle/api/middleware"

	"github.com/gin-gonic/gin"
)

const serviceName = "waggle-api"

// OpenConversation returns the conversation id for the caller and the
// given user, creating the conversation if this is first contact.
func OpenConversation(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	conversationID, err := conversationService.GetOrCreateConversation(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID})
}

func SendMessage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	start := time.Now()
	message, err := messageService.SendMessage(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		middleware.RecordMessageOperation("send", "error", serviceName, time.Since(start))
		respondError(c, err)
		return
	}
	middleware.RecordMessageOperation("send", "ok", serviceName, time.Since(start))
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// LoadMessages pages backwards through a conversation with an opaque
// cursor.
func LoadMessages(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	cursor := c.Query("cursor")
	pageSize := 0
	if raw := c.Query("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
			return
		}
	}

	start := time.Now()
	page, err := messageService.LoadMore(c.Request.Context(), conversationID, userID, cursor, pageSize)
	if err != nil {
		middleware.RecordMessageOperation("load", "error", serviceName, time.Since(start))
		respondError(c, err)
		return
	}
	middleware.RecordMessageOperation("load", "ok", serviceName, time.Since(start))
	c.JSON(http.StatusOK, page)
}

// MarkConversationRead is fire-and-forget: failures are logged, the client
// always gets an ok and the counter self-corrects on the next fetch.
func MarkConversationRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := unreadService.MarkConversationRead(c.Request.Context(), conversationID, userID); err != nil {
		log.Printf("mark read failed for conversation %d: %v", conversationID, err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func GetUnreadCount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	count, err := unreadService.UnreadCount(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "unread": count})
}

// GetBadgeCount sums unread counts across the caller's conversations.
func GetBadgeCount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	total, err := unreadService.BadgeCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badge": total})
}
