package database

import (
	"fmt"
	"time"

	"github.com/Leventi/bl-parser/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the gorm connection and exposes the registry queries.
type Store struct {
	db *gorm.DB
}

// NewStore opens a PostgreSQL connection
func NewStore(host string, port int, user, password, dbname, sslmode string) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStoreFromDB creates a Store from an existing gorm.DB instance
func NewStoreFromDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying gorm.DB instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (s *Store) InitSchema() error {
	return s.db.AutoMigrate(
		&models.Monopoly{},
		&models.SyncState{},
	)
}

// FindByINN returns the record with the given INN regardless of its
// removal state. Returns gorm.ErrRecordNotFound when the INN was never seen.
func (s *Store) FindByINN(inn string) (*models.Monopoly, error) {
	var record models.Monopoly
	err := s.db.Where("inn = ?", inn).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindActiveByINN returns the record with the given INN only if it is
// currently listed (remove_date is null).
func (s *Store) FindActiveByINN(inn string) (*models.Monopoly, error) {
	var record models.Monopoly
	err := s.db.Where("inn = ? AND remove_date IS NULL", inn).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new registry record
func (s *Store) Create(record *models.Monopoly) error {
	return s.db.Create(record).Error
}

// Save persists all fields of an existing record
func (s *Store) Save(record *models.Monopoly) error {
	return s.db.Save(record).Error
}

// UpdateLastCheck refreshes only the presence-confirmation timestamp.
func (s *Store) UpdateLastCheck(inn string, t time.Time) error {
	return s.db.Model(&models.Monopoly{}).
		Where("inn = ?", inn).
		Update("last_check", t).Error
}

// MarkStaleRemoved soft-deletes every listed record that was not confirmed
// since the given pass start and is not protected by a manual upload.
// Returns the number of records marked.
func (s *Store) MarkStaleRemoved(before time.Time) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Monopoly{}).
		Where("last_check < ? AND remove_date IS NULL AND (manual_upload IS NULL OR manual_upload = ?)", before, false).
		Update("remove_date", &now)
	return result.RowsAffected, result.Error
}

// CountListed returns the number of currently listed records
func (s *Store) CountListed() (int64, error) {
	var count int64
	err := s.db.Model(&models.Monopoly{}).Where("remove_date IS NULL").Count(&count).Error
	return count, err
}

// CountRemoved returns the number of soft-deleted records
func (s *Store) CountRemoved() (int64, error) {
	var count int64
	err := s.db.Model(&models.Monopoly{}).Where("remove_date IS NOT NULL").Count(&count).Error
	return count, err
}

// GetSyncState returns the singleton sync state row, creating it on first use.
func (s *Store) GetSyncState() (*models.SyncState, error) {
	var state models.SyncState
	err := s.db.Where(models.SyncState{ID: 1}).
		Attrs(models.SyncState{LastAttempt: time.Now()}).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveSyncState persists the sync state row
func (s *Store) SaveSyncState(state *models.SyncState) error {
	return s.db.Save(state).Error
}
