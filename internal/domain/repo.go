package domain

import "anketa_bot/internal/model"

// UserRepo — контракт основного хранилища анкет.
type UserRepo interface {
	// Вставка анкеты. Если CardNumber == 0, номер карты выдается
	// атомарно внутри вставки (max существующих + 1).
	InsertUser(user *model.User) error

	// Все анкеты с MirrorIsSynced=false, по возрастанию id
	GetUnsyncedUsers() ([]model.User, error)

	// Все анкеты, по возрастанию id
	GetAllUsers() ([]model.User, error)

	// Атомарно пометить анкеты синхронизированными. Пустой список — успех без записи.
	MarkUsersSynced(ids []uint) error

	// Следующий свободный номер карты
	NextCardNumber() (int64, error)

	// Статистика синхронизации с зеркалом
	GetSyncStats() (SyncStats, error)
}

// SyncStats — сводка по синхронизации основного хранилища с зеркалом.
type SyncStats struct {
	Total          int64
	Synced         int64
	Unsynced       int64
	SyncPercentage float64 // округлено до двух знаков, 0 при пустом хранилище
}
