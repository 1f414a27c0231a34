package setup

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/wardenbot/warden/internal/database"
	"github.com/wardenbot/warden/internal/jobs"
	"github.com/wardenbot/warden/internal/redis"
	"github.com/wardenbot/warden/internal/setup/config"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config  // Application configuration
	Logger       *zap.Logger     // Main application logger
	DB           database.Client // Database connection pool
	RedisManager *redis.Manager  // Redis connection manager
	Jobs         *jobs.Client    // Expiration job backend
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context) (*App, error) {
	// Load app configuration
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, err := NewLogger(&cfg.Debug)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Redis, logger)

	// Initialize database with migration check
	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, logger.Named("database"), true)
	if err != nil {
		return nil, err
	}

	// Get Redis client for the expiration schedule
	scheduleClient, err := redisManager.GetClient(redis.ScheduleDBIndex)
	if err != nil {
		db.Close()
		redisManager.Close()

		return nil, err
	}

	jobClient := jobs.NewClient(scheduleClient, logger.Named("jobs"))

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		RedisManager: redisManager,
		Jobs:         jobClient,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup() {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()
}
