package handlers

import (
	"net/http"
	"strconv"

	"waggle/db"
	"waggle/models"

	"github.com/gin-gonic/gin"
)

func ListParks(c *gin.Context) {
	var parks []models.Park
	if err := db.GetReadOnlyDB(c.Request.Context()).Find(&parks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list parks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"parks": parks})
}

// CreateCheckin records the caller at a park; the insert event fans out to
// the caller's accepted friends.
func CreateCheckin(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req struct {
		ParkID int64 `json:"park_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	checkin, err := checkinService.CreateCheckin(c.Request.Context(), userID, req.ParkID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkin": checkin})
}

func CreateReview(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req struct {
		ParkID  int64  `json:"park_id" binding:"required"`
		Rating  int    `json:"rating" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	review, err := reviewService.CreateReview(c.Request.Context(), req.ParkID, userID, req.Rating, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

// CreateReviewReply appends a reply under a review; the insert event
// notifies the review's author unless they replied to themselves.
func CreateReviewReply(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	reviewID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	reply, err := reviewService.CreateReply(c.Request.Context(), reviewID, userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func ListParkCheckins(c *gin.Context) {
	parkID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid park id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	checkins, err := checkinService.RecentCheckins(c.Request.Context(), parkID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkins": checkins})
}

func ListParkReviews(c *gin.Context) {
	parkID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid park id"})
		return
	}

	reviews, err := reviewService.ParkReviews(c.Request.Context(), parkID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
