package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"til-service/internal/auth"
	"til-service/internal/db"
	"til-service/internal/handlers"
	"til-service/internal/middleware"
	"til-service/internal/observability"
	"til-service/internal/presence"
	"til-service/internal/rabbitmq"
	"til-service/internal/repositories"
	"til-service/internal/telemetry"
	"til-service/internal/ws"
)

const serviceName = "til-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, os.Getenv("OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("failed to setup tracing: %v", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown failed: %v", err)
		}
	}()

	amqpURL := os.Getenv("AMQP_URL")
	if eventsPublisher, err := observability.NewAMQPPublisher(amqpURL, getEnv("EVENTS_EXCHANGE", "til.events")); err != nil {
		log.Printf("events publisher disabled: %v", err)
	} else {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AUDIT_EXCHANGE", "til.audit"))
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.til", serviceName, getEnv("ENVIRONMENT", "dev"))

	rdb := db.ConnectRedis(os.Getenv("REDIS_URL"))

	tokenTTL, err := time.ParseDuration(getEnv("JWT_TTL", "720h"))
	if err != nil {
		log.Fatalf("invalid JWT_TTL: %v", err)
	}
	authService := auth.NewService([]byte(getEnv("JWT_SECRET", "dev-secret")), tokenTTL)

	profileRepo := repositories.NewProfileRepo(database)
	entryRepo := repositories.NewEntryRepo(database)
	requestRepo := repositories.NewRequestRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	tracker := presence.NewTracker(profileRepo, rdb)

	hub := ws.NewHub()
	go hub.Run(ctx)

	profileHandler := handlers.NewProfileHandler(profileRepo, authService)
	entryHandler := handlers.NewEntryHandler(entryRepo, profileRepo)
	requestHandler := handlers.NewRequestHandler(requestRepo, roomRepo, profileRepo, hub, auditEmitter)
	roomHandler := handlers.NewRoomHandler(roomRepo)
	messageHandler := handlers.NewMessageHandler(roomRepo, messageRepo, hub)
	presenceHandler := handlers.NewPresenceHandler(tracker, roomRepo, hub)
	feedWS := ws.NewFeedHandler(hub, tracker, roomRepo, authService)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authService)
	activityMiddleware := middleware.ActivityMiddleware(profileRepo)

	router.POST("/auth/claim", profileHandler.Claim)
	router.GET("/me", authMiddleware, activityMiddleware, profileHandler.Me)
	router.GET("/profiles/:username", authMiddleware, activityMiddleware, profileHandler.Lookup)

	router.POST("/entries", authMiddleware, activityMiddleware, entryHandler.Create)
	router.GET("/entries", authMiddleware, activityMiddleware, entryHandler.List)
	router.PUT("/entries/:entry_id", authMiddleware, activityMiddleware, entryHandler.Update)
	router.DELETE("/entries/:entry_id", authMiddleware, activityMiddleware, entryHandler.Delete)
	router.GET("/entries/stats", authMiddleware, activityMiddleware, entryHandler.Stats)

	router.POST("/chat/requests", authMiddleware, activityMiddleware, requestHandler.Send)
	router.GET("/chat/requests/incoming", authMiddleware, activityMiddleware, requestHandler.ListIncoming)
	router.POST("/chat/requests/:request_id/respond", authMiddleware, activityMiddleware, requestHandler.Respond)

	router.GET("/chat/rooms", authMiddleware, activityMiddleware, roomHandler.List)
	router.POST("/chat/rooms/:room_id/messages", authMiddleware, activityMiddleware, messageHandler.Post)
	router.GET("/chat/rooms/:room_id/messages", authMiddleware, activityMiddleware, messageHandler.List)
	router.POST("/chat/rooms/:room_id/read", authMiddleware, activityMiddleware, messageHandler.MarkRead)
	router.DELETE("/chat/rooms/:room_id/messages/:message_id", authMiddleware, activityMiddleware, messageHandler.Delete)

	router.POST("/presence/heartbeat", authMiddleware, presenceHandler.Heartbeat)
	router.GET("/presence/:user_id", authMiddleware, activityMiddleware, presenceHandler.Get)

	router.GET("/ws", feedWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, getEnv("DEBUG_ROUTES", "") == "1")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
