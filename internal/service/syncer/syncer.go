package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anketa_bot/internal/domain"
	"anketa_bot/internal/model"

	"go.uber.org/zap"
)

// Таймаут одной вставки в зеркало: зависшая сеть — это ошибка записи, а не ожидание
const mirrorInsertTimeout = 10 * time.Second

// Syncer — координатор синхронизации: единственный, кто помечает анкеты
// синхронизированными. Проход с зеркалом и проход с резервной копией
// независимы; каждый сериализован сам с собой мьютексом.
type Syncer struct {
	logger   *zap.Logger
	userRepo domain.UserRepo
	mirror   domain.MirrorRepo
	backup   domain.BackupStore

	mirrorMu sync.Mutex
	backupMu sync.Mutex

	forceUpdateCh chan struct{}
	stopCh        chan struct{}
}

func NewSyncer(userRepo domain.UserRepo, mirror domain.MirrorRepo, backup domain.BackupStore, logger *zap.Logger, forceUpdateCh chan struct{}) *Syncer {
	s := &Syncer{
		logger:        logger,
		userRepo:      userRepo,
		mirror:        mirror,
		backup:        backup,
		forceUpdateCh: forceUpdateCh,
		stopCh:        make(chan struct{}),
	}
	go s.background()
	return s
}

// Фоновая синхронизация с зеркалом по сигналу из канала.
// Периодического опроса нет: синхронизация только по требованию.
func (s *Syncer) background() {
	for {
		select {
		case <-s.forceUpdateCh:
			if _, err := s.SyncToMirror(context.Background()); err != nil {
				s.logger.Error("фоновая синхронизация с зеркалом не удалась", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// ForceUpdate немедленно запускает синхронизацию с зеркалом
func (s *Syncer) ForceUpdate() {
	select {
	case s.forceUpdateCh <- struct{}{}:
	default:
	}
}

// Остановка фоновой задачи
func (s *Syncer) Stop() {
	close(s.stopCh)
}

// SyncToMirror отправляет все несинхронизированные анкеты в зеркало.
// Ошибка одной вставки не прерывает проход. Пометка синхронизации —
// одним батчем в конце; если она не удалась, вставленные анкеты будут
// отправлены повторно, зеркало дедуплицирует их по естественному ключу.
func (s *Syncer) SyncToMirror(ctx context.Context) (domain.MirrorReport, error) {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()

	var report domain.MirrorReport

	users, err := s.userRepo.GetUnsyncedUsers()
	if err != nil {
		return report, err
	}
	report.Total = len(users)
	if len(users) == 0 {
		return report, nil
	}

	syncedIDs := make([]uint, 0, len(users))
	for _, user := range users {
		mirrorUser := &model.MirrorUser{
			FullName:   user.FullName,
			Summ:       user.Summ,
			CardNumber: user.CardNumber,
			Birthday:   user.Birthday,
		}
		insertCtx, cancel := context.WithTimeout(ctx, mirrorInsertTimeout)
		_, err := s.mirror.InsertUser(insertCtx, mirrorUser)
		cancel()
		if err != nil {
			report.Failed++
			s.logger.Error("не удалось вставить анкету в зеркало",
				zap.Int64("card_number", user.CardNumber),
				zap.Error(domain.MirrorError(user.ID, err)))
			continue
		}
		syncedIDs = append(syncedIDs, user.ID)
	}
	report.Synced = len(syncedIDs)

	if err := s.userRepo.MarkUsersSynced(syncedIDs); err != nil {
		report.MarkFailed = true
		s.logger.Error("анкеты вставлены в зеркало, но не помечены синхронизированными",
			zap.Int("count", len(syncedIDs)),
			zap.Error(err))
		return report, fmt.Errorf("%w: %w", domain.ErrReportingInconsistency, err)
	}

	s.logger.Info("синхронизация с зеркалом завершена",
		zap.Int("total", report.Total),
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed))
	return report, nil
}

// FullBackup очищает резервную копию до заголовка и переписывает ее заново
// всеми анкетами по возрастанию id. Для случая, когда копия заведомо битая.
func (s *Syncer) FullBackup() (domain.BackupReport, error) {
	s.backupMu.Lock()
	defer s.backupMu.Unlock()

	var report domain.BackupReport

	if err := s.backup.EnsureReady(); err != nil {
		return report, err
	}
	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return report, err
	}
	report.Total = len(users)

	if err := s.backup.Clear(); err != nil {
		return report, err
	}
	for _, user := range users {
		if err := s.backup.AppendUser(user); err != nil {
			report.Failed++
			s.logger.Error("не удалось записать анкету в резервную копию",
				zap.Error(domain.BackupError(user.ID, err)))
			continue
		}
		report.Inserted++
	}

	report.Rows, err = s.backup.RowCount()
	if err != nil {
		s.logger.Warn("не удалось получить итоговое число строк копии", zap.Error(err))
	}
	s.logger.Info("полное резервное копирование завершено",
		zap.Int("inserted", report.Inserted),
		zap.Int("failed", report.Failed),
		zap.Int("rows", report.Rows))
	return report, nil
}

// IncrementalBackup дописывает в копию только анкеты, id которых в ней
// еще нет. Повторный запуск без новых анкет не добавляет ни одной строки.
func (s *Syncer) IncrementalBackup() (domain.BackupReport, error) {
	s.backupMu.Lock()
	defer s.backupMu.Unlock()

	var report domain.BackupReport

	if err := s.backup.EnsureReady(); err != nil {
		return report, err
	}
	existing, err := s.backup.ExistingIDs()
	if err != nil {
		return report, err
	}
	users, err := s.userRepo.GetAllUsers()
	if err != nil {
		return report, err
	}
	report.Total = len(users)

	for _, user := range users {
		if existing[user.ID] {
			report.Skipped++
			continue
		}
		if err := s.backup.AppendUser(user); err != nil {
			report.Failed++
			s.logger.Error("не удалось дописать анкету в резервную копию",
				zap.Error(domain.BackupError(user.ID, err)))
			continue
		}
		report.Inserted++
	}

	report.Rows, err = s.backup.RowCount()
	if err != nil {
		s.logger.Warn("не удалось получить итоговое число строк копии", zap.Error(err))
	}
	s.logger.Info("инкрементальное резервное копирование завершено",
		zap.Int("skipped", report.Skipped),
		zap.Int("inserted", report.Inserted),
		zap.Int("failed", report.Failed),
		zap.Int("rows", report.Rows))
	return report, nil
}
