package gormkv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/output"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time check to ensure GormStorage implements DurableStorage interface
var _ output.DurableStorage = (*GormStorage)(nil)

// GormStorage struct - Secondary/Driven adapter keeping the durable key-value store in a
// relational database (PostgreSQL in production, SQLite for local runs and tests)
type GormStorage struct {
	dbGorm *gorm.DB
}

// NewGormStorage func - Creates the database storage, migrating its table
func NewGormStorage(dbGorm *gorm.DB) (*GormStorage, error) {
	logrus.Info("Migrate client storage table ...")
	if err := domain.MigrateStorage(dbGorm); err != nil {
		logrus.Errorln(err)
		return nil, err
	}
	return &GormStorage{
		dbGorm: dbGorm,
	}, nil
}

// Get func - Reads the value of key
func (p *GormStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var record domain.StorageRecord
	err := p.dbGorm.WithContext(ctx).Where("storage_key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		logrus.Errorln(err)
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return record.Value, true, nil
}

// Set func - Upserts the value of key
func (p *GormStorage) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC()
	record := domain.StorageRecord{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := p.dbGorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		logrus.Errorln(err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove func - Deletes key; deleting a missing key is not an error
func (p *GormStorage) Remove(ctx context.Context, key string) error {
	err := p.dbGorm.WithContext(ctx).Where("storage_key = ?", key).Delete(&domain.StorageRecord{}).Error
	if err != nil {
		logrus.Errorln(err)
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
