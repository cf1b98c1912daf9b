package postgres

import (
	"context"

	"anketa_bot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirrorRepository — зеркальная БД анкет в Postgres.
type MirrorRepository struct {
	DB *gorm.DB
}

func NewMirrorRepository(db *gorm.DB) *MirrorRepository {
	return &MirrorRepository{DB: db}
}

// Вставка копии анкеты. Конфликт по естественному ключу
// (имя + дата рождения + номер карты) молча пропускается: повторная
// отправка после неудавшейся пометки синхронизации — не ошибка.
func (r *MirrorRepository) InsertUser(ctx context.Context, user *model.MirrorUser) (uint, error) {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Проверка соединения
func (r *MirrorRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
