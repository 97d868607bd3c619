package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"showtalk/internal/config"
	"showtalk/internal/logging"
	"showtalk/internal/models"
)

// Open connects to PostgreSQL and tunes the connection pool.
func Open(cfg *config.Config) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger: logging.GormLogger(),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("Database connection established")
	return conn, nil
}

// Init opens the database and migrates it.
func Init(cfg *config.Config) (*gorm.DB, error) {
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table and seeds reaction types.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Discussion{},
		&models.Comment{},
		&models.Vote{},
		&models.ReactionType{},
		&models.Reaction{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info().Msg("Database migration completed")

	return seedReactionTypes(conn)
}

// DefaultReactionTypes is the seed set, grouped by category.
var DefaultReactionTypes = []models.ReactionType{
	{Category: "feelings", Name: "love", Emoji: "❤️", Position: 1},
	{Category: "feelings", Name: "laugh", Emoji: "😂", Position: 2},
	{Category: "feelings", Name: "sad", Emoji: "😢", Position: 3},
	{Category: "feelings", Name: "angry", Emoji: "😡", Position: 4},
	{Category: "plot", Name: "shocked", Emoji: "😱", Position: 1},
	{Category: "plot", Name: "mindblown", Emoji: "🤯", Position: 2},
	{Category: "plot", Name: "called_it", Emoji: "🔮", Position: 3},
	{Category: "verdict", Name: "agree", Emoji: "👍", Position: 1},
	{Category: "verdict", Name: "disagree", Emoji: "👎", Position: 2},
	{Category: "verdict", Name: "fire", Emoji: "🔥", Position: 3},
}

func seedReactionTypes(conn *gorm.DB) error {
	// 已有数据则跳过
	var count int64
	if err := conn.Model(&models.ReactionType{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count reaction types: %w", err)
	}
	if count > 0 {
		log.Debug().Int64("count", count).Msg("Reaction types already seeded, skipping")
		return nil
	}

	seed := make([]models.ReactionType, len(DefaultReactionTypes))
	copy(seed, DefaultReactionTypes)
	if err := conn.Create(&seed).Error; err != nil {
		return fmt.Errorf("seed reaction types: %w", err)
	}
	log.Info().Int("count", len(seed)).Msg("Initial reaction types created")
	return nil
}

// Health pings the database and reports pool statistics.
func Health(conn *gorm.DB) map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := conn.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	return stats
}
