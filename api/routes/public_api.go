package routes

import (
	"waggle/api/handlers"
	"waggle/api/middleware"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.POST("auth/register", handlers.Register)
		publicEndpoints.POST("auth/login", handlers.Login)
	}
	return publicEndpoints
}

func AuthenticatedApi(router *gin.Engine, allowTestHeader bool) *gin.RouterGroup {
	endpoints := router.Group("/api/v1/")
	endpoints.Use(middleware.AuthMiddleware(handlers.Profiles(), allowTestHeader))
	{
		endpoints.POST("auth/logout", handlers.Logout)
		endpoints.GET("profiles/:id", handlers.GetProfile)

		// Friends
		endpoints.POST("friends/requests", handlers.SendFriendRequest)
		endpoints.POST("friends/requests/:id/accept", handlers.AcceptFriendRequest)
		endpoints.POST("friends/requests/:id/decline", handlers.DeclineFriendRequest)
		endpoints.DELETE("friends/:id", handlers.RemoveFriend)
		endpoints.GET("friends/status/:user_id", handlers.GetFriendshipStatus)
		endpoints.GET("friends/list", handlers.GetFriends)
		endpoints.GET("friends/pending", handlers.GetPendingRequests)

		// Blocks
		endpoints.POST("blocks", handlers.BlockUser)
		endpoints.POST("blocks/remove", handlers.UnblockUser)
		endpoints.GET("blocks/status/:user_id", handlers.GetBlockStatus)

		// Conversations and messages
		endpoints.POST("conversations/open", handlers.OpenConversation)
		endpoints.POST("conversations/:id/messages", handlers.SendMessage)
		endpoints.GET("conversations/:id/messages", handlers.LoadMessages)
		endpoints.POST("conversations/:id/read", handlers.MarkConversationRead)
		endpoints.GET("conversations/:id/unread", handlers.GetUnreadCount)
		endpoints.GET("conversations/badge", handlers.GetBadgeCount)

		// Push tokens
		endpoints.POST("push/tokens", handlers.RegisterPushToken)
		endpoints.POST("push/tokens/remove", handlers.RemovePushToken)

		// Parks, check-ins, reviews
		endpoints.GET("parks", handlers.ListParks)
		endpoints.GET("parks/:id/reviews", handlers.ListParkReviews)
		endpoints.GET("parks/:id/checkins", handlers.ListParkCheckins)
		endpoints.POST("checkins", handlers.CreateCheckin)
		endpoints.POST("reviews", handlers.CreateReview)
		endpoints.POST("reviews/:id/replies", handlers.CreateReviewReply)

		// Notifications
		endpoints.GET("notifications", handlers.ListNotifications)
		endpoints.POST("notifications/:id/read", handlers.MarkNotificationRead)

		// Realtime tail
		endpoints.GET("ws", handlers.WSHandler)
	}
	return endpoints
}
