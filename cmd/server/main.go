package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mentorly-backend-go/internal/ai"
	"mentorly-backend-go/internal/api"
	"mentorly-backend-go/internal/cache"
	"mentorly-backend-go/internal/config"
	"mentorly-backend-go/internal/core"
	"mentorly-backend-go/internal/db"
	"mentorly-backend-go/internal/middleware"
)

func main() {
	// --- 1. Load local .env, if present ---
	// Production deployments configure the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Zap logger initialized successfully.")

	// --- 3. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 4. Initialize Firebase Admin SDK (Firestore, Auth, Storage) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirebase(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firestore client is nil after initialization. Application cannot start.")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase Auth client is nil after initialization. Application cannot start.")
	}
	zapLogger.Info("Firebase Admin SDK initialized successfully.")

	// --- 5. Initialize Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	sessionRepo := db.NewFirestoreSessionRepository(firestoreClient)
	notificationRepo := db.NewFirestoreNotificationRepository(firestoreClient)
	messageRepo := db.NewFirestoreMessageRepository(firestoreClient)
	signalRepo := db.NewFirestoreSignalRepository(firestoreClient)

	var blobRepo db.BlobRepository
	if bucket := db.GetBlobBucket(); bucket != nil {
		blobRepo = db.NewGCSBlobRepository(bucket)
	} else {
		zapLogger.Warn("Blob storage not configured; chat file attachments are disabled.")
	}
	zapLogger.Info("Repositories initialized successfully.")

	// --- 6. Initialize Mentor Cache (optional) ---
	var mentorCache core.MentorCache
	if appConfig.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
		})
		if err := redisClient.Ping(initCtx).Err(); err != nil {
			zapLogger.Warn("Redis unreachable; mentor listing cache disabled", zap.Error(err))
		} else {
			mentorCache = cache.NewMentorCache(redisClient)
			zapLogger.Info("Mentor cache initialized", zap.String("addr", appConfig.RedisAddr))
		}
	}

	// --- 7. Initialize Assistant Client (optional) ---
	var assistant core.Assistant
	if appConfig.AIAPIKey != "" {
		assistant = ai.NewClient(appConfig.AIAPIURL, appConfig.AIAPIKey, appConfig.AIModel)
		zapLogger.Info("Assistant client initialized", zap.String("model", appConfig.AIModel))
	} else {
		zapLogger.Warn("AI_API_KEY not configured; summaries and suggestions are disabled.")
	}

	// --- 8. Initialize Core Services ---
	notificationService := core.NewNotificationService(notificationRepo)
	userService := core.NewUserService(userRepo, notificationService, mentorCache)
	chatService := core.NewChatService(messageRepo, sessionRepo, userRepo, blobRepo)
	bookingService := core.NewBookingService(sessionRepo, userRepo, notificationService, chatService, assistant)
	feedbackService := core.NewFeedbackService(sessionRepo, notificationService)
	recommendService := core.NewRecommendationService(userRepo, assistant)
	zapLogger.Info("Core services initialized successfully.")

	// --- 9. Start Completion Sweeper ---
	sweeperCtx, cancelSweeper := context.WithCancel(context.Background())
	defer cancelSweeper()
	sweeper := core.NewSweeper(bookingService, appConfig.SweepInterval, zapLogger)
	go sweeper.Run(sweeperCtx)
	zapLogger.Info("Session completion sweeper started", zap.Duration("interval", appConfig.SweepInterval))

	// --- 10. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	api.SetupRoutes(
		router,
		zapLogger,
		userService,
		bookingService,
		feedbackService,
		notificationService,
		chatService,
		recommendService,
		signalRepo,
	)

	// --- 11. Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 12. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	cancelSweeper()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	if err := firestoreClient.Close(); err != nil {
		zapLogger.Warn("Failed to close Firestore client", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}
