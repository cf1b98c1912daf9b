package domain

import "anketa_bot/internal/model"

// BackupStore — контракт резервной копии (табличный журнал, только добавление).
// Принадлежность записи определяется наличием ее id в журнале.
type BackupStore interface {
	// Создать файл/лист с заголовком, если его еще нет
	EnsureReady() error

	// Множество id анкет, уже присутствующих в копии
	ExistingIDs() (map[uint]bool, error)

	// Дописать анкету в конец
	AppendUser(user model.User) error

	// Очистить копию до строки заголовка
	Clear() error

	// Количество строк данных (без заголовка)
	RowCount() (int, error)
}
