package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func callerID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	id, ok := userID.(int64)
	if !ok || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}

// SendFriendRequest creates a pending friendship from the caller. If a row
// for the pair already exists it is returned unchanged; duplicates are not
// errors.
func SendFriendRequest(c *gin.Context) {
	requesterID, ok := callerID(c)
	if !ok {
		return
	}

	var req struct {
		AddresseeID int64 `json:"addressee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	friendship, err := friendService.SendFriendRequest(c.Request.Context(), requesterID, req.AddresseeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendship": friendship})
}

func AcceptFriendRequest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	friendshipID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friendship id"})
		return
	}

	friendship, err := friendService.AcceptFriendRequest(c.Request.Context(), friendshipID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendship": friendship})
}

func DeclineFriendRequest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	friendshipID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friendship id"})
		return
	}

	if err := friendService.DeclineFriendRequest(c.Request.Context(), friendshipID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func RemoveFriend(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	friendshipID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friendship id"})
		return
	}

	if err := friendService.RemoveFriend(c.Request.Context(), friendshipID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetFriendshipStatus reports the friendship row between the caller and
// another user, or null when none exists. Symmetric in argument order.
func GetFriendshipStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	otherID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	friendship, err := friendService.GetFriendshipStatus(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendship": friendship})
}

func GetFriends(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	friends, err := friendService.GetFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func GetPendingRequests(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	requests, err := friendService.GetPendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
