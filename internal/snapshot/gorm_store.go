package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agroexposure/risk-portal/risk-portal-backend/internal/config"
)

// DefaultSnapshotName is the row used when a single operator shares the database.
const DefaultSnapshotName = "default"

// StateSnapshot is the database row holding one named snapshot.
type StateSnapshot struct {
	ID        string         `json:"id" gorm:"primaryKey;size:64"`
	Values    datatypes.JSON `json:"values"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// OpenDatabase connects with the configured driver and migrates the schema.
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDatabaseURL())
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.MaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
		}
	}

	if err := db.AutoMigrate(&StateSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot table: %w", err)
	}
	return db, nil
}

// GormStore keeps a named snapshot in a relational database.
type GormStore struct {
	db   *gorm.DB
	name string
}

// NewGormStore creates a store for the snapshot row called name.
func NewGormStore(db *gorm.DB, name string) *GormStore {
	if name == "" {
		name = DefaultSnapshotName
	}
	return &GormStore{db: db, name: name}
}

// Load reads the snapshot row.
func (s *GormStore) Load(ctx context.Context) (Snapshot, error) {
	var row StateSnapshot
	err := s.db.WithContext(ctx).First(&row, "id = ?", s.name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", s.name, err)
	}
	return Decode([]byte(row.Values))
}

// Save upserts the snapshot row.
func (s *GormStore) Save(ctx context.Context, snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	row := StateSnapshot{ID: s.name, Values: datatypes.JSON(data)}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", s.name, err)
	}
	return nil
}
