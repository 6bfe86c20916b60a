package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// SQLiteHistoryRepository implements domain.HistoryRepository using SQLite.
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (or creates) the history database.
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.RequestRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create inserts a new request record.
func (r *SQLiteHistoryRepository) Create(record *domain.RequestRecord) error {
	return r.db.Create(record).Error
}

// Update persists changes to an existing record.
func (r *SQLiteHistoryRepository) Update(record *domain.RequestRecord) error {
	return r.db.Save(record).Error
}

// FindBySessionID finds one record by session ID.
func (r *SQLiteHistoryRepository) FindBySessionID(sessionID string) (*domain.RequestRecord, error) {
	var record domain.RequestRecord
	err := r.db.First(&record, "session_id = ?", sessionID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecent returns the most recent records, newest first.
func (r *SQLiteHistoryRepository) FindRecent(limit int) ([]*domain.RequestRecord, error) {
	var records []*domain.RequestRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// GetStats returns aggregate history statistics.
func (r *SQLiteHistoryRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.RequestRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.RequestRecord{}).
		Where("status = ?", domain.RequestCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.RequestRecord{}).
		Where("status = ?", domain.RequestFailed).
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// Close closes the underlying database connection.
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
