package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// StorageRecord struct - one key of the durable key-value store when backed by a database
type StorageRecord struct {
	Key       string    `gorm:"column:storage_key;type:varchar(191);primary_key;"`
	Value     string    `gorm:"type:text;not null;"`
	CreatedAt time.Time `gorm:"type:timestamp"`
	UpdatedAt time.Time `gorm:"type:timestamp"`
}

// TableName func
func (r *StorageRecord) TableName() string {
	return "client_storage"
}

// MigrateStorage func - Auto-migrate the key-value table
func MigrateStorage(db *gorm.DB) error {
	if db == nil {
		return errors.New("an error when connect database")
	}
	return db.AutoMigrate(&StorageRecord{})
}
