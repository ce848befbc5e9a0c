package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"agroexposure/risk-portal/risk-portal-backend/internal/config"
)

// Open builds the store selected by cfg.Snapshot.Backend. The returned
// close function releases the database pool, if any.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Snapshot.Backend {
	case "", "file":
		logger.Info("Using file snapshot store", zap.String("path", cfg.Snapshot.FilePath))
		return NewFileStore(cfg.Snapshot.FilePath), noop, nil

	case "database":
		db, err := OpenDatabase(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		logger.Info("Using database snapshot store", zap.String("driver", cfg.Database.Driver))
		return NewGormStore(db, DefaultSnapshotName), sqlDB.Close, nil

	case "s3":
		// Credentials come from the default AWS chain
		store, err := NewS3StoreFromConfig(ctx, cfg.Snapshot, "", "")
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using S3 snapshot store",
			zap.String("bucket", cfg.Snapshot.Bucket),
			zap.String("key", cfg.Snapshot.Key))
		return store, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
}
