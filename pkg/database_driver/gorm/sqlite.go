package gorm

import (
	"errors"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectToSQLite func - opens a pure-go sqlite database; path may be a file or "file::memory:"
func ConnectToSQLite(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("cannot estabished the connection")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		logrus.Error(err)
		return nil, err
	}

	// sqlite serialises writers; one connection avoids "database is locked"
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	logrus.Info("Connected to sqlite: ", path)
	return &DB{Dialect: db.Dialector.Name(), Gorm: db}, nil
}
