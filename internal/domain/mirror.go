package domain

import (
	"context"

	"anketa_bot/internal/model"
)

// MirrorRepo — контракт зеркальной (удаленной) БД.
// Запись односторонняя: зеркало только принимает копии анкет.
type MirrorRepo interface {
	// Вставка копии анкеты. Повторная вставка той же анкеты
	// (по естественному ключу имя+дата рождения+номер карты) — no-op.
	// Возвращает идентификатор зеркала; ядро от него не зависит.
	InsertUser(ctx context.Context, user *model.MirrorUser) (uint, error)

	// Проверка соединения
	Ping(ctx context.Context) error
}
