package tg

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"anketa_bot/internal/domain"
	"anketa_bot/internal/model"
	"anketa_bot/pkg/tgbotapisfm"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
)

// Имена состояний конечного автомата анкеты
const (
	StateStart    = "start"
	StateName     = "name_enter"
	StateBirthday = "birthday_enter"
)

const statusPingTimeout = 5 * time.Second

// Coordinator — то, что обработчикам нужно от координатора синхронизации
type Coordinator interface {
	SyncToMirror(ctx context.Context) (domain.MirrorReport, error)
	FullBackup() (domain.BackupReport, error)
	IncrementalBackup() (domain.BackupReport, error)
	ForceUpdate()
}

type TGHandler struct {
	UserRepo domain.UserRepo
	Mirror   domain.MirrorRepo
	Coord    Coordinator
	cache    *gocache.Cache // черновик анкеты по id пользователя
	admins   []int64
}

// Черновик анкеты: имя собрано, дата рождения еще нет
type formDraft struct {
	FullName string
}

func NewTGHandler(userRepo domain.UserRepo, mirror domain.MirrorRepo, coord Coordinator, admins []int64) *TGHandler {
	return &TGHandler{
		UserRepo: userRepo,
		Mirror:   mirror,
		Coord:    coord,
		cache:    gocache.New(24*time.Hour, 1*time.Hour),
		admins:   admins,
	}
}

func (h *TGHandler) StatesMap() map[string]tgbotapisfm.State {
	return map[string]tgbotapisfm.State{
		StateStart:    h.StartState(),
		StateName:     h.NameEnterState(),
		StateBirthday: h.BirthdayEnterState(),
	}
}

func (h *TGHandler) saveDraft(userID int64, draft formDraft) {
	h.cache.Set(fmt.Sprint(userID), draft, gocache.DefaultExpiration)
}

func (h *TGHandler) getDraft(userID int64) (formDraft, bool) {
	if x, found := h.cache.Get(fmt.Sprint(userID)); found {
		draft, ok := x.(formDraft)
		return draft, ok
	}
	return formDraft{}, false
}

func (h *TGHandler) dropDraft(userID int64) {
	h.cache.Delete(fmt.Sprint(userID))
}

func (h *TGHandler) StartState() tgbotapisfm.State {
	return tgbotapisfm.State{
		Global: true,
		MessageHandlers: map[string]tgbotapisfm.Handler{
			"/start":       h.StartHandler(),
			"/help":        h.StartHandler(),
			"/form":        h.FormHandler(),
			"/cancel":      h.CancelHandler(),
			"/status":      h.StatusHandler(),
			"/sync":        h.adminOnly(h.SyncHandler()),
			"/backup":      h.adminOnly(h.BackupHandler(false)),
			"/backup_full": h.adminOnly(h.BackupHandler(true)),
			"/stats":       h.adminOnly(h.StatsHandler()),
		},
		CatchAllFunc: &tgbotapisfm.Handler{
			Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID,
					"Я вас не понял. /form — заполнить анкету, /help — справка.")
				_, err := bot.SendMessage(msg)
				return err
			},
		},
	}
}

func (h *TGHandler) StartHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			text := "Я бот для сбора анкет.\n\n" +
				"/form — заполнить анкету\n" +
				"/cancel — отменить заполнение\n" +
				"/status — проверка подключения к БД\n" +
				"/help — эта справка"
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
			_, err := bot.SendMessage(msg)
			return err
		},
	}
}

// FormHandler начинает новую анкету. Прошлый черновик не переносится.
func (h *TGHandler) FormHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			h.dropDraft(update.Message.From.ID)
			return bot.Transition(update.Message.From.ID, StateName, update)
		},
	}
}

// CancelHandler отменяет заполнение анкеты: черновик удаляется, запись не создается
func (h *TGHandler) CancelHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			userID := update.Message.From.ID
			state, err := bot.GetUserState(userID)
			if err != nil || state == StateStart {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Сейчас нечего отменять. /form — начать анкету.")
				_, err := bot.SendMessage(msg)
				return err
			}

			h.dropDraft(userID)
			if err := bot.SetUserState(userID, StateStart); err != nil {
				return err
			}
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Заполнение анкеты отменено.")
			_, err = bot.SendMessage(msg)
			return err
		},
	}
}

func (h *TGHandler) NameEnterState() tgbotapisfm.State {
	return tgbotapisfm.State{
		AtEntranceFunc: &tgbotapisfm.Handler{
			Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Введите ваши имя и фамилию")
				_, err := bot.SendMessage(msg)
				return err
			},
		},
		CatchAllFunc: &tgbotapisfm.Handler{
			Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
				name, err := ValidateFullName(update.Message.Text)
				if err != nil {
					// Невалидный ввод не ограничен попытками: остаемся в состоянии
					msg := tgbotapi.NewMessage(update.Message.Chat.ID,
						"Пожалуйста, введите имя и фамилию через пробел")
					_, err := bot.SendMessage(msg)
					return err
				}
				h.saveDraft(update.Message.From.ID, formDraft{FullName: name})
				return bot.Transition(update.Message.From.ID, StateBirthday, update)
			},
		},
	}
}

func (h *TGHandler) BirthdayEnterState() tgbotapisfm.State {
	return tgbotapisfm.State{
		AtEntranceFunc: &tgbotapisfm.Handler{
			Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID,
					"Введите дату рождения в формате ДД.ММ.ГГГГ")
				_, err := bot.SendMessage(msg)
				return err
			},
		},
		CatchAllFunc: &tgbotapisfm.Handler{
			Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
				userID := update.Message.From.ID

				birthday, err := ParseBirthday(update.Message.Text, time.Now())
				if err != nil {
					msg := tgbotapi.NewMessage(update.Message.Chat.ID, birthdayErrorText(err))
					_, err := bot.SendMessage(msg)
					return err
				}

				draft, ok := h.getDraft(userID)
				if !ok || draft.FullName == "" {
					// Черновик истек или потерян: анкета не создается
					h.dropDraft(userID)
					if err := bot.SetUserState(userID, StateStart); err != nil {
						return err
					}
					msg := tgbotapi.NewMessage(update.Message.Chat.ID,
						"Данные анкеты потеряны, начните заново: /form")
					_, err := bot.SendMessage(msg)
					return err
				}

				// Номер карты выдается хранилищем атомарно внутри вставки
				user := &model.User{
					FullName: draft.FullName,
					Birthday: birthday,
				}
				if err := h.UserRepo.InsertUser(user); err != nil {
					// Ошибка уходит в OnHandlerError: сессия сбрасывается
					return err
				}

				h.dropDraft(userID)
				if err := bot.SetUserState(userID, StateStart); err != nil {
					return err
				}

				// Сигнал координатору: отправить новую анкету в зеркало
				h.Coord.ForceUpdate()

				msg := tgbotapi.NewMessage(update.Message.Chat.ID,
					fmt.Sprintf("Анкета сохранена! Ваш номер карты: %d", user.CardNumber))
				_, err = bot.SendMessage(msg)
				return err
			},
		},
	}
}

func birthdayErrorText(err error) string {
	switch {
	case errors.Is(err, ErrDateImpossible):
		return "Такой даты не существует. Проверьте день и месяц."
	case errors.Is(err, ErrDateInFuture):
		return "Дата рождения не может быть в будущем."
	default:
		return "Неверный формат. Введите дату как ДД.ММ.ГГГГ, например 15.05.1990"
	}
}

// AbandonSession сбрасывает сессию после ошибки обработчика:
// пользователь не должен застрять в состоянии, не принимающем ввод.
func (h *TGHandler) AbandonSession() tgbotapisfm.HandlerFunc {
	return func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
		userID := update.SentFrom().ID
		h.dropDraft(userID)
		if err := bot.SetUserState(userID, StateStart); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Произошла ошибка. Попробуйте позже.")
		_, err := bot.SendMessage(msg)
		return err
	}
}

// adminOnly пропускает команду только для пользователей из списка админов
func (h *TGHandler) adminOnly(handler tgbotapisfm.Handler) tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			if !slices.Contains(h.admins, update.Message.From.ID) {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Команда доступна только администратору.")
				_, err := bot.SendMessage(msg)
				return err
			}
			return handler.Handle(bot, update)
		},
	}
}

func (h *TGHandler) StatusHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			text := "✅ Основное хранилище доступно"
			if _, err := h.UserRepo.GetSyncStats(); err != nil {
				text = "❌ Основное хранилище недоступно"
			}

			ctx, cancel := context.WithTimeout(context.Background(), statusPingTimeout)
			defer cancel()
			if err := h.Mirror.Ping(ctx); err != nil {
				text += "\n❌ Зеркальная БД недоступна"
			} else {
				text += "\n✅ Зеркальная БД доступна"
			}

			msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
			_, err := bot.SendMessage(msg)
			return err
		},
	}
}

// SyncHandler запускает проход синхронизации с зеркалом и показывает отчет.
// Повторный запуск той же команды — и есть механизм ретрая.
func (h *TGHandler) SyncHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			report, err := h.Coord.SyncToMirror(context.Background())

			var text string
			switch {
			case err != nil && report.MarkFailed:
				text = fmt.Sprintf(
					"⚠️ Анкеты отправлены в зеркало (%d), но пометить их не удалось.\n"+
						"Повторный /sync безопасен: зеркало отбросит дубликаты.", report.Synced)
			case err != nil:
				text = "❌ Синхронизация не удалась. Попробуйте позже."
			case report.Total == 0:
				text = "Все анкеты уже синхронизированы."
			default:
				text = fmt.Sprintf("Синхронизация с зеркалом:\nвсего: %d\nотправлено: %d\nошибок: %d\nв очереди: %d",
					report.Total, report.Synced, report.Failed, report.Pending())
			}

			msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
			_, sendErr := bot.SendMessage(msg)
			return sendErr
		},
	}
}

func (h *TGHandler) BackupHandler(full bool) tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			var (
				report domain.BackupReport
				err    error
			)
			if full {
				report, err = h.Coord.FullBackup()
			} else {
				report, err = h.Coord.IncrementalBackup()
			}
			if err != nil {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, "❌ Резервное копирование не удалось. Попробуйте позже.")
				_, sendErr := bot.SendMessage(msg)
				return sendErr
			}

			text := fmt.Sprintf("Резервное копирование:\nвсего анкет: %d\nуже были: %d\nдописано: %d\nошибок: %d\nстрок в копии: %d",
				report.Total, report.Skipped, report.Inserted, report.Failed, report.Rows)
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
			_, sendErr := bot.SendMessage(msg)
			return sendErr
		},
	}
}

func (h *TGHandler) StatsHandler() tgbotapisfm.Handler {
	return tgbotapisfm.Handler{
		Handle: func(bot tgbotapisfm.Session, update tgbotapi.Update) error {
			stats, err := h.UserRepo.GetSyncStats()
			if err != nil {
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, "❌ Не удалось получить статистику.")
				_, sendErr := bot.SendMessage(msg)
				return sendErr
			}
			text := fmt.Sprintf("Статистика синхронизации:\nвсего анкет: %d\nсинхронизировано: %d\nв очереди: %d\nпроцент: %.2f%%",
				stats.Total, stats.Synced, stats.Unsynced, stats.SyncPercentage)
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
			_, sendErr := bot.SendMessage(msg)
			return sendErr
		},
	}
}
