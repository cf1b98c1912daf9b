package domain

import (
	"errors"
	"fmt"
)

// Базовые ошибки ядра. Конкретные причины оборачиваются через %w,
// проверка — errors.Is.
var (
	// ErrStorage — сбой основного хранилища (I/O или нарушение ограничения).
	ErrStorage = errors.New("storage error")

	// ErrMirror — не удалось отправить одну запись в зеркальную БД.
	ErrMirror = errors.New("mirror error")

	// ErrBackup — не удалось записать одну запись в резервную копию.
	ErrBackup = errors.New("backup error")

	// ErrValidation — пользовательский ввод не прошел проверку.
	ErrValidation = errors.New("validation error")

	// ErrReportingInconsistency — записи отправлены в зеркало, но пометить их
	// синхронизированными не удалось. Записи будут отправлены повторно,
	// зеркало обязано переварить дубликат.
	ErrReportingInconsistency = errors.New("reporting inconsistency: synced rows not marked")
)

func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func MirrorError(userID uint, err error) error {
	return fmt.Errorf("%w: user %d: %w", ErrMirror, userID, err)
}

func BackupError(userID uint, err error) error {
	return fmt.Errorf("%w: user %d: %w", ErrBackup, userID, err)
}
