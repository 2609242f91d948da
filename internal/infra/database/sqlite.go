package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSqlite opens a single-connection sqlite database. sqlite serializes
// writers anyway; one connection avoids SQLITE_BUSY under concurrent
// transactions.
func NewSqlite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
