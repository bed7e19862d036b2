package main

import (
	"flag"
	"log"
	"time"

	"fleet-coordinator/internal/api/routes"
	"fleet-coordinator/internal/config"
	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/repository"
	"fleet-coordinator/internal/websocket"
	"fleet-coordinator/pkg/database"
	"fleet-coordinator/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	seed := flag.Bool("seed", false, "seed bootstrap admin accounts and exit")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Disconnect()

	if err := createIndexes(db.Database); err != nil {
		log.Printf("Index creation failed: %v", err)
	}

	if *seed {
		seedBootstrapAdmins(db.Database, cfg)
		return
	}

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
	}

	// Start the live update fan-out
	wsManager := websocket.NewManager()
	if err := wsManager.Start(); err != nil {
		log.Fatal("Failed to start WebSocket manager:", err)
	}
	defer wsManager.Stop()

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	// Setup routes
	routes.SetupRoutes(router, db.Database, redisClient, wsManager, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}

func createIndexes(db *mongo.Database) error {
	if err := repository.NewUserRepository(db).CreateIndexes(); err != nil {
		return err
	}
	if err := repository.NewCompanyRepository(db).CreateIndexes(); err != nil {
		return err
	}
	if err := repository.NewVehicleRepository(db).CreateIndexes(); err != nil {
		return err
	}
	if err := repository.NewTripRepository(db).CreateIndexes(); err != nil {
		return err
	}
	return repository.NewNotificationRepository(db).CreateIndexes()
}

// seedBootstrapAdmins makes sure each allow-listed administrator has an
// account, so a fresh deployment is usable before any registration.
func seedBootstrapAdmins(db *mongo.Database, cfg *config.Config) {
	if len(cfg.BootstrapAdmins) == 0 {
		log.Println("No bootstrap admins configured, nothing to seed")
		return
	}

	userRepo := repository.NewUserRepository(db)

	for _, email := range cfg.BootstrapAdmins {
		if existing, _ := userRepo.FindByEmail(email); existing != nil {
			log.Printf("Bootstrap admin %s already exists, skipping", email)
			continue
		}

		if cfg.SeedPassword == "" {
			log.Printf("Cannot seed %s: BOOTSTRAP_ADMIN_PASSWORD is not set", email)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash password for %s: %v", email, err)
			continue
		}

		user := &models.User{
			ID:          primitive.NewObjectID(),
			Email:       email,
			DisplayName: "Administrator",
			Password:    string(hashed),
			Role:        models.RoleSuperAdmin,
			Company:     models.SystemCompany,
			IsActive:    true,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if _, err := userRepo.Create(user); err != nil {
			log.Printf("Failed to seed bootstrap admin %s: %v", email, err)
			continue
		}

		log.Printf("Seeded bootstrap admin %s (change the initial password immediately)", email)
	}
}
