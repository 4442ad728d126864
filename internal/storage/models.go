package storage

import (
	"gorm.io/gorm"
)

type FavoriteCity struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}
