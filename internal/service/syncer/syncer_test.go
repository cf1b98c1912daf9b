package syncer

import (
	"context"
	"errors"
	"testing"

	"anketa_bot/internal/domain"
	"anketa_bot/internal/model"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

// Фейковое основное хранилище
type fakeUserRepo struct {
	users    []model.User
	markErr  error
	markedID map[uint]bool
}

func newFakeUserRepo(n int) *fakeUserRepo {
	r := &fakeUserRepo{markedID: make(map[uint]bool)}
	for i := 1; i <= n; i++ {
		r.users = append(r.users, model.User{
			Model:      gorm.Model{ID: uint(i)},
			FullName:   "Иван Петров",
			CardNumber: int64(i),
			Birthday:   "1990-05-15",
		})
	}
	return r
}

func (r *fakeUserRepo) InsertUser(user *model.User) error { return nil }

func (r *fakeUserRepo) GetUnsyncedUsers() ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if !u.MirrorIsSynced {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetAllUsers() ([]model.User, error) { return r.users, nil }

func (r *fakeUserRepo) MarkUsersSynced(ids []uint) error {
	if r.markErr != nil {
		return r.markErr
	}
	for _, id := range ids {
		r.markedID[id] = true
		for i := range r.users {
			if r.users[i].ID == id {
				r.users[i].MirrorIsSynced = true
			}
		}
	}
	return nil
}

func (r *fakeUserRepo) NextCardNumber() (int64, error) { return int64(len(r.users)) + 1, nil }

func (r *fakeUserRepo) GetSyncStats() (domain.SyncStats, error) { return domain.SyncStats{}, nil }

// Фейковое зеркало: вставки падают для заданных номеров карт
type fakeMirror struct {
	failCards map[int64]bool
	inserted  []model.MirrorUser
}

func (m *fakeMirror) InsertUser(ctx context.Context, user *model.MirrorUser) (uint, error) {
	if m.failCards[user.CardNumber] {
		return 0, errors.New("connection refused")
	}
	m.inserted = append(m.inserted, *user)
	return uint(len(m.inserted)), nil
}

func (m *fakeMirror) Ping(ctx context.Context) error { return nil }

// Фейковая резервная копия
type fakeBackup struct {
	rows      []model.User
	failIDs   map[uint]bool
	clearCnt  int
	appendCnt int
}

func (b *fakeBackup) EnsureReady() error { return nil }

func (b *fakeBackup) ExistingIDs() (map[uint]bool, error) {
	ids := make(map[uint]bool)
	for _, u := range b.rows {
		ids[u.ID] = true
	}
	return ids, nil
}

func (b *fakeBackup) AppendUser(user model.User) error {
	b.appendCnt++
	if b.failIDs[user.ID] {
		return errors.New("write failed")
	}
	b.rows = append(b.rows, user)
	return nil
}

func (b *fakeBackup) Clear() error {
	b.clearCnt++
	b.rows = nil
	return nil
}

func (b *fakeBackup) RowCount() (int, error) { return len(b.rows), nil }

func newTestSyncer(repo *fakeUserRepo, mirror *fakeMirror, backup *fakeBackup) *Syncer {
	return &Syncer{
		logger:        zap.NewNop(),
		userRepo:      repo,
		mirror:        mirror,
		backup:        backup,
		forceUpdateCh: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

func TestSyncToMirror_Empty(t *testing.T) {
	s := newTestSyncer(newFakeUserRepo(0), &fakeMirror{}, &fakeBackup{})

	report, err := s.SyncToMirror(context.Background())
	if err != nil {
		t.Fatalf("пустое хранилище не должно давать ошибку: %v", err)
	}
	if report.Total != 0 || report.Synced != 0 || report.Failed != 0 {
		t.Errorf("ожидали нулевой отчет, получили %+v", report)
	}
}

func TestSyncToMirror_AllSucceed(t *testing.T) {
	repo := newFakeUserRepo(5)
	mirror := &fakeMirror{}
	s := newTestSyncer(repo, mirror, &fakeBackup{})

	report, err := s.SyncToMirror(context.Background())
	if err != nil {
		t.Fatalf("SyncToMirror вернул ошибку: %v", err)
	}
	if report.Total != 5 || report.Synced != 5 || report.Failed != 0 {
		t.Errorf("неожиданный отчет: %+v", report)
	}
	if report.Pending() != 0 {
		t.Errorf("ожидали 0 в очереди, получили %d", report.Pending())
	}

	// После успешного прохода несинхронизированных не остается
	unsynced, _ := repo.GetUnsyncedUsers()
	if len(unsynced) != 0 {
		t.Errorf("после прохода осталось %d несинхронизированных", len(unsynced))
	}
}

// Ошибка одной вставки изолирована: при K сбоях синхронизируются ровно M-K анкет
func TestSyncToMirror_PartialFailure(t *testing.T) {
	repo := newFakeUserRepo(5)
	mirror := &fakeMirror{failCards: map[int64]bool{2: true, 4: true}}
	s := newTestSyncer(repo, mirror, &fakeBackup{})

	report, err := s.SyncToMirror(context.Background())
	if err != nil {
		t.Fatalf("частичный сбой не должен быть ошибкой прохода: %v", err)
	}
	if report.Total != 5 || report.Synced != 3 || report.Failed != 2 {
		t.Errorf("неожиданный отчет: %+v", report)
	}
	if report.Pending() != 2 {
		t.Errorf("ожидали 2 в очереди, получили %d", report.Pending())
	}

	unsynced, _ := repo.GetUnsyncedUsers()
	if len(unsynced) != 2 {
		t.Fatalf("ожидали 2 несинхронизированных, получили %d", len(unsynced))
	}
	// Сбойные анкеты не помечены и будут отправлены повторно
	for _, u := range unsynced {
		if !mirror.failCards[u.CardNumber] {
			t.Errorf("анкета с картой %d не должна была остаться несинхронизированной", u.CardNumber)
		}
	}
}

func TestSyncToMirror_MarkFailed(t *testing.T) {
	repo := newFakeUserRepo(3)
	repo.markErr = errors.New("disk full")
	s := newTestSyncer(repo, &fakeMirror{}, &fakeBackup{})

	report, err := s.SyncToMirror(context.Background())
	if err == nil {
		t.Fatal("ожидали ошибку при сбое пометки синхронизации")
	}
	if !errors.Is(err, domain.ErrReportingInconsistency) {
		t.Errorf("ожидали ErrReportingInconsistency, получили %v", err)
	}
	if !report.MarkFailed {
		t.Error("в отчете не выставлен MarkFailed")
	}
	// Ничего не помечено — все анкеты пойдут на повторную отправку
	if report.Pending() != 3 {
		t.Errorf("ожидали 3 в очереди, получили %d", report.Pending())
	}
}

func TestIncrementalBackup_Idempotent(t *testing.T) {
	repo := newFakeUserRepo(4)
	backup := &fakeBackup{}
	s := newTestSyncer(repo, &fakeMirror{}, backup)

	report, err := s.IncrementalBackup()
	if err != nil {
		t.Fatalf("IncrementalBackup вернул ошибку: %v", err)
	}
	if report.Inserted != 4 || report.Skipped != 0 || report.Rows != 4 {
		t.Errorf("неожиданный отчет первого прохода: %+v", report)
	}

	// Повторный запуск без новых анкет не добавляет строк
	report, err = s.IncrementalBackup()
	if err != nil {
		t.Fatalf("повторный IncrementalBackup вернул ошибку: %v", err)
	}
	if report.Inserted != 0 || report.Skipped != 4 || report.Rows != 4 {
		t.Errorf("неожиданный отчет второго прохода: %+v", report)
	}
}

func TestIncrementalBackup_PartialFailure(t *testing.T) {
	repo := newFakeUserRepo(3)
	backup := &fakeBackup{failIDs: map[uint]bool{2: true}}
	s := newTestSyncer(repo, &fakeMirror{}, backup)

	report, err := s.IncrementalBackup()
	if err != nil {
		t.Fatalf("IncrementalBackup вернул ошибку: %v", err)
	}
	if report.Inserted != 2 || report.Failed != 1 {
		t.Errorf("неожиданный отчет: %+v", report)
	}

	// Сбойная анкета дописывается следующим проходом
	backup.failIDs = nil
	report, err = s.IncrementalBackup()
	if err != nil {
		t.Fatalf("повторный IncrementalBackup вернул ошибку: %v", err)
	}
	if report.Inserted != 1 || report.Skipped != 2 || report.Rows != 3 {
		t.Errorf("неожиданный отчет повторного прохода: %+v", report)
	}
}

// Достает ошибку из полей записи лога
func loggedError(t *testing.T, entry observer.LoggedEntry) error {
	t.Helper()
	for _, f := range entry.Context {
		if f.Key == "error" {
			err, ok := f.Interface.(error)
			if !ok {
				t.Fatalf("поле error не является ошибкой: %#v", f.Interface)
			}
			return err
		}
	}
	t.Fatal("в записи лога нет поля error")
	return nil
}

// Сбои отдельных записей логируются ошибками таксономии ядра:
// по errors.Is можно отличить сбой зеркала от сбоя резервной копии
func TestPerRecordErrors_Wrapped(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	repo := newFakeUserRepo(2)
	mirror := &fakeMirror{failCards: map[int64]bool{2: true}}
	backup := &fakeBackup{failIDs: map[uint]bool{1: true}}
	s := newTestSyncer(repo, mirror, backup)
	s.logger = zap.New(core)

	if _, err := s.SyncToMirror(context.Background()); err != nil {
		t.Fatalf("SyncToMirror вернул ошибку: %v", err)
	}
	entries := logs.FilterMessage("не удалось вставить анкету в зеркало").All()
	if len(entries) != 1 {
		t.Fatalf("ожидали 1 запись о сбое зеркала, получили %d", len(entries))
	}
	if err := loggedError(t, entries[0]); !errors.Is(err, domain.ErrMirror) {
		t.Errorf("ошибка зеркала не обернута в ErrMirror: %v", err)
	}

	if _, err := s.IncrementalBackup(); err != nil {
		t.Fatalf("IncrementalBackup вернул ошибку: %v", err)
	}
	entries = logs.FilterMessage("не удалось дописать анкету в резервную копию").All()
	if len(entries) != 1 {
		t.Fatalf("ожидали 1 запись о сбое копии, получили %d", len(entries))
	}
	if err := loggedError(t, entries[0]); !errors.Is(err, domain.ErrBackup) {
		t.Errorf("ошибка копии не обернута в ErrBackup: %v", err)
	}
}

func TestFullBackup_Rewrites(t *testing.T) {
	repo := newFakeUserRepo(3)
	backup := &fakeBackup{}
	s := newTestSyncer(repo, &fakeMirror{}, backup)

	// Засоряем копию посторонней строкой
	if err := backup.AppendUser(model.User{Model: gorm.Model{ID: 99}}); err != nil {
		t.Fatal(err)
	}

	report, err := s.FullBackup()
	if err != nil {
		t.Fatalf("FullBackup вернул ошибку: %v", err)
	}
	if backup.clearCnt != 1 {
		t.Error("FullBackup не очистил копию")
	}
	if report.Inserted != 3 || report.Rows != 3 {
		t.Errorf("неожиданный отчет: %+v", report)
	}
	ids, _ := backup.ExistingIDs()
	if ids[99] {
		t.Error("посторонняя строка пережила полное копирование")
	}
}
