package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// OpenRepository builds the configured storage backend. The returned close
// function releases the underlying connection pool.
func OpenRepository(cfg *config.Config, logger utils.Logger) (repositories.Repository, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewRepository(), func() error { return nil }, nil
	case config.StoragePostgres:
		db, err := InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		logger.Info("Connected to PostgreSQL")
		return postgres.NewRepository(db), sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
