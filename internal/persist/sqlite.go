package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/distroflow/cartcore/pkg/config"
	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
	"github.com/distroflow/cartcore/pkg/logger"
)

type snapshotRow struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   []byte    `gorm:"column:payload"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (snapshotRow) TableName() string {
	return "cart_snapshots"
}

// Store is the sqlite-backed Adapter: one row per snapshot key in an
// embedded database file that survives process restarts.
type Store struct {
	db   *gorm.DB
	key  string
	logg *logger.Logger
}

// NewStore opens (and migrates) the embedded database behind the adapter.
func NewStore(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if cfg.SnapshotKey == "" {
		return nil, fmt.Errorf("snapshot key is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&snapshotRow{}); err != nil {
		return nil, fmt.Errorf("migrating snapshot schema: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "snapshot storage ready")
	}

	return &Store{db: conn, key: cfg.SnapshotKey, logg: logg}, nil
}

// Load reads the snapshot blob and recovers whatever entries survive
// structural validation. Corrupted entries are dropped with one warning.
func (s *Store) Load(ctx context.Context) ([]LineRecord, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", s.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cart snapshot: %w", err)
	}

	records, dropped := decodeRecords(row.Payload)
	if dropped != nil {
		s.warn(ctx, dropped)
	}
	return records, nil
}

// Save replaces the snapshot blob under the adapter's key.
func (s *Store) Save(ctx context.Context, records []LineRecord) error {
	payload, err := encodeRecords(records)
	if err != nil {
		return err
	}
	row := snapshotRow{Key: s.key, Payload: payload, UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("writing cart snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) warn(ctx context.Context, dropped error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "dropped", pkgerrors.Dump(dropped)), "dropped corrupted cart snapshot entries")
}
