package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewGormConnection открывает файл основного хранилища через GORM.
// WAL: читатели не блокируют единственного писателя.
func NewGormConnection(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
