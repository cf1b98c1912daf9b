package sqlite

import (
	"math"
	"sync"
	"time"

	"anketa_bot/internal/domain"
	"anketa_bot/internal/model"

	"gorm.io/gorm"
)

// UserRepository — основное хранилище анкет поверх SQLite.
// mu сериализует выдачу номера карты и вставку: два параллельных
// заполнения анкеты не должны получить один и тот же номер.
type UserRepository struct {
	DB *gorm.DB
	mu sync.Mutex
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Вставка анкеты. CardNumber == 0 означает "выдать следующий свободный".
// Явно заданный номер вставляется как есть; дубликат упрется в уникальный индекс.
func (r *UserRepository) InsertUser(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if user.CardNumber == 0 {
			next, err := nextCardNumber(tx)
			if err != nil {
				return err
			}
			user.CardNumber = next
		}
		user.MirrorIsSynced = false
		user.SyncedAt = nil
		return tx.Create(user).Error
	})
	if err != nil {
		return domain.StorageError("insert user", err)
	}
	return nil
}

// Получение всех анкет с MirrorIsSynced=false, старые первыми —
// порядок повторной отправки в зеркало стабилен.
func (r *UserRepository) GetUnsyncedUsers() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("mirror_is_synced = ?", false).Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, domain.StorageError("get unsynced users", err)
	}
	return users, nil
}

// Получение всех анкет по возрастанию id
func (r *UserRepository) GetAllUsers() ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, domain.StorageError("get all users", err)
	}
	return users, nil
}

// MarkUsersSynced помечает анкеты синхронизированными одним UPDATE:
// либо помечаются все, либо (при ошибке) ни одна.
func (r *UserRepository) MarkUsersSynced(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	err := r.DB.Model(&model.User{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"mirror_is_synced": true,
			"synced_at":        &now,
		}).Error
	if err != nil {
		return domain.StorageError("mark users synced", err)
	}
	return nil
}

// NextCardNumber возвращает max(card_number)+1, или 1 для пустого хранилища
func (r *UserRepository) NextCardNumber() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := nextCardNumber(r.DB)
	if err != nil {
		return 0, domain.StorageError("next card number", err)
	}
	return next, nil
}

func nextCardNumber(tx *gorm.DB) (int64, error) {
	var maxCard int64
	err := tx.Model(&model.User{}).
		Select("COALESCE(MAX(card_number), 0)").
		Scan(&maxCard).Error
	if err != nil {
		return 0, err
	}
	return maxCard + 1, nil
}

// Статистика синхронизации с зеркалом
func (r *UserRepository) GetSyncStats() (domain.SyncStats, error) {
	var stats domain.SyncStats

	if err := r.DB.Model(&model.User{}).Count(&stats.Total).Error; err != nil {
		return stats, domain.StorageError("sync stats", err)
	}
	if err := r.DB.Model(&model.User{}).Where("mirror_is_synced = ?", true).Count(&stats.Synced).Error; err != nil {
		return stats, domain.StorageError("sync stats", err)
	}
	stats.Unsynced = stats.Total - stats.Synced
	if stats.Total > 0 {
		p := float64(stats.Synced) / float64(stats.Total) * 100
		stats.SyncPercentage = math.Round(p*100) / 100
	}
	return stats, nil
}
