package routes

import (
	"fleet-coordinator/internal/api/handlers"
	"fleet-coordinator/internal/api/middleware"
	"fleet-coordinator/internal/chat"
	"fleet-coordinator/internal/config"
	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/push"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/internal/services"
	"fleet-coordinator/internal/websocket"
	"fleet-coordinator/pkg/ratelimit"
	"fleet-coordinator/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupRoutes(router *gin.Engine, db *mongo.Database, redisClient *redis.Client, wsManager websocket.WebSocketManager, cfg *config.Config) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	tripRepo := repository.NewTripRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Push delivery falls back to logging when no server key is configured
	var pushSender push.Sender
	if cfg.FCMServerKey != "" {
		pushSender = push.NewFCMSender(cfg.FCMEndpoint, cfg.FCMServerKey)
	} else {
		pushSender = push.LogSender{}
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo)
	userService.SetWebSocketManager(wsManager)

	companyService := services.NewCompanyService(companyRepo)
	companyService.SetWebSocketManager(wsManager)

	vehicleService := services.NewVehicleService(vehicleRepo)
	vehicleService.SetUserRepository(userRepo)
	vehicleService.SetWebSocketManager(wsManager)

	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	notificationService.SetPushSender(pushSender)
	notificationService.SetWebSocketManager(wsManager)

	tripService := services.NewTripService(tripRepo)
	tripService.SetVehicleFinder(vehicleRepo)
	tripService.SetNotifier(notificationService)
	tripService.SetWebSocketManager(wsManager)

	fleetViewService := services.NewFleetViewService(tripRepo, vehicleRepo, userRepo)

	chatStore := chat.NewStore(redisClient.Raw())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	tripHandler := handlers.NewTripHandler(tripService, fleetViewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(chatStore)
	chatHandler.SetWebSocketManager(wsManager)
	wsHandler := handlers.NewWebSocketHandler(wsManager)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	limiter := ratelimit.NewRedisRateLimiter(redisClient.Raw(), ratelimit.DefaultConfig())

	adminRoles := []string{models.RoleAdmin, models.RoleSuperAdmin}

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(limiter))

	api.GET("/health", healthHandler.HealthCheck)

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.RefreshTokenPublic)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		// Session
		session := protected.Group("/auth")
		{
			session.POST("/logout", authHandler.Logout)
			session.GET("/profile", authHandler.GetProfile)
			session.POST("/token/refresh", authHandler.RefreshToken)
			session.POST("/password", authHandler.ChangePassword)
			session.POST("/fcm-token", authHandler.RegisterFCMToken)
		}

		// Users
		users := protected.Group("/users")
		{
			users.GET("/drivers", userHandler.GetDrivers)

			managed := users.Group("", middleware.RequireRole(adminRoles...))
			{
				managed.GET("", userHandler.GetUsers)
				managed.GET("/:id", userHandler.GetUser)
				managed.PATCH("/:id", userHandler.UpdateUser)
				managed.PATCH("/:id/activation", userHandler.SetActive)
				managed.PATCH("/:id/role", userHandler.SetRole)
				managed.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Companies
		companies := protected.Group("/companies")
		{
			companies.GET("/active", companyHandler.GetActiveCompanies)

			managed := companies.Group("", middleware.RequireRole(models.RoleSuperAdmin))
			{
				managed.GET("", companyHandler.GetCompanies)
				managed.GET("/:id", companyHandler.GetCompany)
				managed.POST("", companyHandler.CreateCompany)
				managed.PATCH("/:id", companyHandler.UpdateCompany)
				managed.PATCH("/:id/activation", companyHandler.SetActive)
			}
		}

		// Vehicles
		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("/mine", vehicleHandler.GetMyVehicle)

			managed := vehicles.Group("", middleware.RequireRole(adminRoles...))
			{
				managed.GET("", vehicleHandler.GetVehicles)
				managed.POST("", vehicleHandler.CreateVehicle)
				managed.GET("/:id", vehicleHandler.GetVehicle)
				managed.PATCH("/:id", vehicleHandler.UpdateVehicle)
				managed.PATCH("/:id/driver", vehicleHandler.AssignDriver)
				managed.DELETE("/:id/driver", vehicleHandler.ReleaseDriver)
				managed.PATCH("/:id/maintenance", vehicleHandler.SetMaintenance)
				managed.DELETE("/:id", vehicleHandler.DeleteVehicle)
			}
		}

		// Trips
		trips := protected.Group("/trips")
		{
			trips.GET("/missions", tripHandler.GetMissions)
			trips.GET("/live", tripHandler.GetLiveMap)
			trips.GET("/:id", tripHandler.GetTrip)
			trips.PATCH("/:id/status", tripHandler.UpdateStatus)
			trips.PATCH("/:id/parcels/:index", tripHandler.ToggleParcel)
			trips.PATCH("/:id/passengers/:index", tripHandler.TogglePassenger)
			trips.POST("/:id/items", tripHandler.AddItems)
			trips.POST("/:id/items/ack", tripHandler.AcknowledgeItems)
			trips.POST("/:id/position", middleware.RequireRole(models.RoleDriver), tripHandler.UpdatePosition)

			managed := trips.Group("", middleware.RequireRole(adminRoles...))
			{
				managed.GET("", tripHandler.GetTrips)
				managed.POST("", tripHandler.CreateTrip)
				managed.DELETE("/:id", tripHandler.DeleteTrip)
			}
		}

		// Notifications
		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread", notificationHandler.GetUnreadCount)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			notifications.POST("", middleware.RequireRole(adminRoles...), notificationHandler.Send)
		}

		// Chat
		chatRoutes := protected.Group("/chat")
		{
			chatRoutes.POST("/messages", chatHandler.SendMessage)
			chatRoutes.GET("/conversations", chatHandler.GetConversations)
			chatRoutes.GET("/conversations/:peerId", chatHandler.GetHistory)
			chatRoutes.POST("/conversations/:peerId/read", chatHandler.MarkRead)
			chatRoutes.GET("/unread", chatHandler.GetUnreadCounts)
		}

		// WebSocket administration
		ws := protected.Group("/ws", middleware.RequireRole(adminRoles...))
		{
			ws.GET("/clients", wsHandler.GetConnectedClients)
			ws.DELETE("/clients/:clientId", wsHandler.DisconnectClient)
		}
	}

	// WebSocket endpoint authenticates via token query parameter
	router.GET("/ws", wsHandler.HandleWebSocket)
}
