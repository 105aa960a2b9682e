package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (logging, recovery, CORS) is applied to the
// router before this is called, in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	userService core.UserService,
	bookingService core.BookingService,
	feedbackService core.FeedbackService,
	notificationService core.NotificationService,
	chatService core.ChatService,
	recommendService core.RecommendationService,
	signalRepo db.SignalRepository,
) {
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("CRITICAL_SETUP_ERROR: Firebase Auth client is not initialized; routes cannot be secured.")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	authHandler := NewAuthHandler(userService)
	userHandler := NewUserHandler(userService)
	mentorHandler := NewMentorHandler(userService, recommendService)
	sessionHandler := NewSessionHandler(bookingService, feedbackService)
	chatHandler := NewChatHandler(chatService)
	notificationHandler := NewNotificationHandler(notificationService)
	signalHandler := NewSignalHandler(signalRepo, bookingService)
	aiHandler := NewAIHandler(recommendService)

	apiV1 := router.Group("/api/v1")
	{
		usersGroup := apiV1.Group("/users", authMW.VerifyToken())
		{
			// Called after client-side Firebase sign-in to ensure the backend
			// profile exists.
			usersGroup.POST("/initialize", authHandler.InitializeUserProfile)
			usersGroup.GET("/me", userHandler.GetCurrentUserProfile)
			usersGroup.PATCH("/me", userHandler.UpdateCurrentUserProfile)
		}

		mentorsGroup := apiV1.Group("/mentors", authMW.VerifyToken())
		{
			mentorsGroup.GET("", mentorHandler.ListMentors)
			mentorsGroup.GET("/me/teaching-tips", mentorHandler.TeachingTips)
			mentorsGroup.GET("/:mentorId", mentorHandler.GetMentor)
			mentorsGroup.PATCH("/:mentorId/approval", mentorHandler.SetApproval)
		}

		sessionsGroup := apiV1.Group("/sessions", authMW.VerifyToken())
		{
			sessionsGroup.POST("", sessionHandler.CreateSession)
			sessionsGroup.GET("", sessionHandler.ListSessions)
			sessionsGroup.GET("/:sessionId", sessionHandler.GetSession)
			sessionsGroup.POST("/:sessionId/resolve", sessionHandler.ResolveSession)
			sessionsGroup.POST("/:sessionId/feedback", sessionHandler.AddFeedback)
			sessionsGroup.DELETE("/:sessionId/feedback", sessionHandler.RemoveFeedback)

			messagesGroup := sessionsGroup.Group("/:sessionId/messages")
			{
				messagesGroup.POST("", chatHandler.SendMessage)
				messagesGroup.POST("/file", chatHandler.SendFile)
				messagesGroup.GET("", chatHandler.ListMessages)
				messagesGroup.GET("/stream", chatHandler.StreamMessages)
			}

			signalGroup := sessionsGroup.Group("/:sessionId/signal")
			{
				signalGroup.POST("/offer", signalHandler.PublishOffer)
				signalGroup.POST("/answer", signalHandler.PublishAnswer)
				signalGroup.POST("/candidates", signalHandler.AddCandidate)
				signalGroup.GET("/peers/:peerId", signalHandler.GetPeerMailbox)
				signalGroup.GET("/peers/:peerId/stream", signalHandler.StreamPeer)
				signalGroup.DELETE("", signalHandler.DeleteMailbox)
			}
		}

		notificationsGroup := apiV1.Group("/notifications", authMW.VerifyToken())
		{
			notificationsGroup.GET("", notificationHandler.ListNotifications)
			notificationsGroup.GET("/stream", notificationHandler.StreamNotifications)
			notificationsGroup.POST("/read", notificationHandler.MarkAllRead)
			notificationsGroup.DELETE("/:notificationId", notificationHandler.DeleteNotification)
		}

		aiGroup := apiV1.Group("/ai", authMW.VerifyToken())
		{
			aiGroup.POST("/suggest-mentors", aiHandler.SuggestMentors)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Mentorly backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
