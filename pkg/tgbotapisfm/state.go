package tgbotapisfm

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Session — то, что обработчику доступно во время обработки обновления:
// отправка сообщений и управление состоянием пользователя. *Bot реализует
// Session; в тестах обработчики прогоняются через подменную реализацию.
type Session interface {
	SendMessage(msg tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUserState(userID int64) (string, error)
	SetUserState(userID int64, state string) error
	Transition(userID int64, state string, update tgbotapi.Update) error
}

// HandlerFunc — функция-обработчик обновления
type HandlerFunc func(bot Session, update tgbotapi.Update) error

// Handler — обработчик одного сообщения в состоянии
type Handler struct {
	Handle HandlerFunc
}

// State — одно состояние пользователя.
// MessageHandlers сопоставляет текст сообщения (в нижнем регистре, без
// окружающих пробелов) обработчику. CatchAllFunc вызывается, если ни один
// обработчик не подошел. AtEntranceFunc вызывается при входе в состояние.
type State struct {
	// Global: обработчики состояния проверяются для любого пользователя
	// до его локального состояния
	Global bool

	MessageHandlers map[string]Handler
	CatchAllFunc    *Handler
	AtEntranceFunc  *Handler
}
