package handlers

import (
	"waggle/services"
)

var (
	profileService      = services.NewProfileService()
	blockService        = services.NewBlockService()
	friendService       = services.NewFriendService(blockService)
	conversationService = services.NewConversationService()
	checkinService      = services.NewCheckinService()
	reviewService       = services.NewReviewService()

	unreadService  *services.UnreadService
	messageService *services.MessageService
	pushService    *services.PushService
	fanoutService  *services.FanoutService
)

// Setup wires the services that depend on runtime configuration. Must run
// after Redis init (the client may be nil, unread counting then recounts
// from the database).
func Setup(pushGatewayURL string) {
	unreadService = services.NewUnreadService(services.RedisClient, conversationService)
	messageService = services.NewMessageService(conversationService, blockService, unreadService)
	pushService = services.NewPushService(pushGatewayURL)
	fanoutService = services.NewFanoutService(pushService, friendService, conversationService)
}

// Fanout exposes the wired fan-out service for the event consumer.
func Fanout() *services.FanoutService {
	return fanoutService
}

// Profiles exposes the profile service for the auth middleware.
func Profiles() *services.ProfileService {
	return profileService
}
