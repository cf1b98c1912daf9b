package model

import (
	"time"

	"gorm.io/gorm"
)

// User — анкета пользователя в основном (SQLite) хранилище.
// CardNumber выдается хранилищем: max(card_number)+1, уникален и не переиспользуется.
type User struct {
	gorm.Model
	FullName       string     `json:"full_name" gorm:"type:varchar(255);not null"`
	Summ           float64    `json:"summ" gorm:"default:0"`
	CardNumber     int64      `json:"card_number" gorm:"uniqueIndex:users_card_number_unique"`
	Birthday       string     `json:"birthday" gorm:"type:varchar(16)"` // формат YYYY-MM-DD
	MirrorIsSynced bool       `json:"mirror_is_synced" gorm:"default:false;index:idx_users_mirror_synced"`
	SyncedAt       *time.Time `json:"synced_at"`
}

// MirrorUser — копия анкеты в удаленной (Postgres) БД.
// Идентификатор свой, поля копируются из основного хранилища как есть.
// Составной уникальный индекс — естественный ключ для дедупликации при повторной отправке.
type MirrorUser struct {
	gorm.Model
	FullName   string  `json:"full_name" gorm:"type:varchar(255);uniqueIndex:mirror_users_natural_key"`
	Summ       float64 `json:"summ" gorm:"default:0"`
	CardNumber int64   `json:"card_number" gorm:"uniqueIndex:mirror_users_natural_key"`
	Birthday   string  `json:"birthday" gorm:"type:varchar(16);uniqueIndex:mirror_users_natural_key"`
}
