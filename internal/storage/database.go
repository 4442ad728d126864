package storage

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrEmptyName = errors.New("city name is empty")

// Favorites is an ordered, duplicate-free list of city names.
type Favorites interface {
	ListFavorites() ([]string, error)
	AddFavorite(name string) (bool, error)
	RemoveFavorite(name string) (bool, error)
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&FavoriteCity{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) ListFavorites() ([]string, error) {
	var cities []FavoriteCity
	if err := d.db.Order("id asc").Find(&cities).Error; err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cities))
	for _, c := range cities {
		names = append(names, c.Name)
	}
	return names, nil
}

// AddFavorite appends name and reports false if it was already there.
func (d *Database) AddFavorite(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}

	var count int64
	if err := d.db.Model(&FavoriteCity{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := d.db.Create(&FavoriteCity{Name: name}).Error; err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFavorite deletes permanently so the unique name can be added again.
func (d *Database) RemoveFavorite(name string) (bool, error) {
	result := d.db.Unscoped().Where("name = ?", strings.TrimSpace(name)).Delete(&FavoriteCity{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
