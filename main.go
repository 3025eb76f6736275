package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/files"
	"messenger-service/internal/handlers"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

var avatarExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	shutdownTracing, err := observability.InitTracing(context.Background(), "messenger-service", cfg.OTLPEndpoint)
	if err != nil {
		sugar.Fatalw("failed to init tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			sugar.Warnw("tracing shutdown failed", "error", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN, sugar)
	if err != nil {
		sugar.Fatalw("failed to connect to db", "error", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, sugar)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, "messenger-service", cfg.Environment, sugar)

	uploadStore, err := files.NewStore(cfg.UploadDir, cfg.MaxFileSize, nil)
	if err != nil {
		sugar.Fatalw("failed to init upload store", "error", err)
	}
	avatarStore, err := files.NewStore(cfg.AvatarDir, cfg.MaxFileSize, avatarExtensions)
	if err != nil {
		sugar.Fatalw("failed to init avatar store", "error", err)
	}

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	fileRepo := repositories.NewFileRepo(database)

	hub := ws.NewHub(sugar)

	chatService := services.NewChatService(chatRepo, userRepo, messageRepo, fileRepo, hub, sugar)
	messageService := services.NewMessageService(chatRepo, messageRepo, reactionRepo, fileRepo, userRepo, uploadStore, hub, sugar)
	userService := services.NewUserService(userRepo, avatarStore, hub, sugar)
	fileService := services.NewFileService(fileRepo, uploadStore, sugar)
	adminService := services.NewAdminService(userRepo, chatRepo, messageRepo, fileRepo, uploadStore, avatarStore, audit, sugar)

	validator := auth.NewJWTValidator(cfg.JWTSecret)
	wsHandler := ws.NewHandler(hub, validator, chatService, sugar)

	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)
	userHandler := handlers.NewUserHandler(userService, avatarStore)
	fileHandler := handlers.NewFileHandler(fileService, uploadStore)
	adminHandler := handlers.NewAdminHandler(adminService)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messenger-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Handle)
	router.GET("/avatars/:name", userHandler.GetAvatar)

	api := router.Group("/api", auth.Middleware(validator))
	{
		api.GET("/chats", chatHandler.ListChats)
		api.POST("/chats", chatHandler.CreateChat)
		api.GET("/chats/:chat_id", chatHandler.GetChat)
		api.PATCH("/chats/:chat_id", chatHandler.UpdateChat)
		api.DELETE("/chats/:chat_id", chatHandler.DeleteChat)
		api.POST("/chats/:chat_id/members", chatHandler.AddMember)
		api.DELETE("/chats/:chat_id/members/:user_id", chatHandler.RemoveMember)

		api.GET("/chats/:chat_id/messages", messageHandler.GetMessages)
		api.POST("/chats/:chat_id/messages", messageHandler.SendMessage)
		api.DELETE("/messages/:message_id", messageHandler.DeleteMessage)
		api.POST("/messages/bulk-delete", messageHandler.BulkDeleteMessages)
		api.POST("/messages/:message_id/read", messageHandler.MarkRead)
		api.POST("/messages/:message_id/reactions", messageHandler.ToggleReaction)

		api.POST("/files", fileHandler.Upload)
		api.GET("/files/:file_id", fileHandler.Download)

		api.GET("/users/search", userHandler.Search)
		api.GET("/users/:user_id", userHandler.GetUser)
		api.PUT("/users/me/avatar", userHandler.UpdateAvatar)
		api.DELETE("/users/me/avatar", userHandler.DeleteAvatar)

		api.DELETE("/admin/wipe", adminHandler.Wipe)
	}

	handlers.RegisterDebugRoutes(router, audit, cfg.Debug)

	sugar.Infow("starting server", "addr", cfg.Addr(), "environment", cfg.Environment)
	if err := router.Run(cfg.Addr()); err != nil {
		sugar.Fatalw("server error", "error", err)
	}
}
