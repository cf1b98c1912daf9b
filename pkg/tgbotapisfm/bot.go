package tgbotapisfm

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Config структура для конфигурации бота
type Config struct {
	Token           string           // Токен бота
	Expiration      time.Duration    // Время хранения состояний пользователя
	CleanupInterval time.Duration    // Интервал очистки кеша
	States          map[string]State // Карта состояний
	DefaultState    string           // Состояние пользователя, которого еще нет в кеше
	// OnHandlerError вызывается при ошибке обработчика. Дает прикладному
	// коду шанс сбросить сессию пользователя, чтобы тот не застрял
	// в состоянии, которое больше не принимает ввод.
	OnHandlerError HandlerFunc
}

// Bot — конечный автомат над Telegram Bot API: у каждого пользователя
// есть текущее состояние, обновления обрабатываются по одному.
type Bot struct {
	BotAPI         *tgbotapi.BotAPI // API бота. Экспортируется для доступа извне
	expiration     time.Duration
	limiter        *Limiter
	cache          *gocache.Cache // Состояния пользователей
	logger         *zap.Logger
	states         map[string]State
	globalStates   []*State
	defaultState   string
	onHandlerError HandlerFunc
	mu             sync.Mutex // Захвачен, пока бот запущен

	IgnoreList []int64 // ID пользователей, которые игнорируются
}

var _ Session = (*Bot)(nil)

// NewBot конструктор нового бота
func NewBot(config Config, ignoreList []int64, logger *zap.Logger) (*Bot, error) {
	if config.States == nil {
		config.States = make(map[string]State)
	}
	if config.Expiration < 0 {
		return nil, NewValidationError(ErrNegativeExpiration, config.Expiration)
	}
	if config.CleanupInterval < 0 {
		return nil, NewValidationError(ErrNegativeCleanup, config.CleanupInterval)
	}
	if config.Token == "" {
		return nil, ErrInvalidToken
	}
	if config.DefaultState != "" {
		if _, ok := config.States[config.DefaultState]; !ok {
			return nil, NewValidationError(ErrStateHandlerNotFound, config.DefaultState)
		}
	}

	botAPI, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, NewValidationError(ErrTelegramInit, err)
	}

	globalStates := make([]*State, 0)
	for name := range config.States {
		state := config.States[name]
		if state.Global {
			globalStates = append(globalStates, &state)
		}
	}

	return &Bot{
		BotAPI:         botAPI,
		limiter:        NewLimiter(),
		cache:          gocache.New(config.Expiration, config.CleanupInterval),
		states:         config.States,
		globalStates:   globalStates,
		defaultState:   config.DefaultState,
		expiration:     config.Expiration,
		logger:         logger,
		onHandlerError: config.OnHandlerError,
		IgnoreList:     ignoreList,
	}, nil
}

// Start запускает обработку обновлений в горутине и возвращает канал для ошибок
func (b *Bot) Start(offset, timeout int) chan error {
	errChan := make(chan error, 1)

	if !b.mu.TryLock() {
		b.logger.Warn("Бот уже запущен")
		errChan <- fmt.Errorf("bot is already running")
		return errChan
	}

	b.logger.Info("Запуск бота")
	go func() {
		b.handleUpdates(offset, timeout)
		close(errChan)
	}()

	return errChan
}

// Stop останавливает обработку обновлений
func (b *Bot) Stop() {
	b.BotAPI.StopReceivingUpdates()
	b.mu.Unlock()
	b.logger.Info("Остановка обработки обновлений")
}

// handleUpdates обрабатывает все обновления, поступающие боту из телеграма.
// Обновления обрабатываются строго по одному: отмена и завершение анкеты
// одного пользователя не могут выполняться одновременно.
func (b *Bot) handleUpdates(offset, timeout int) {
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = timeout
	updates := b.BotAPI.GetUpdatesChan(u)
	b.logger.Info("Запуск обработки обновлений")

	for update := range updates {
		if update.Message == nil || update.SentFrom() == nil {
			continue
		}
		if slices.Contains(b.IgnoreList, update.SentFrom().ID) {
			continue
		}

		b.processMessage(update)
	}
}

func (b *Bot) processMessage(update tgbotapi.Update) {
	// Сначала глобальные состояния
	for _, state := range b.globalStates {
		handled, err := b.dispatch(update, state, false)
		if err != nil {
			b.handlerFailed(update, err)
			return
		}
		if handled {
			return
		}
	}

	// Затем локальное состояние пользователя
	stateName, err := b.GetUserState(update.SentFrom().ID)
	if err != nil {
		b.logger.Debug("состояние пользователя не найдено",
			zap.Int64("user_id", update.SentFrom().ID))
		return
	}
	state, ok := b.states[stateName]
	if !ok {
		b.logger.Error("состояние отсутствует в карте состояний", zap.String("state", stateName))
		return
	}
	if _, err := b.dispatch(update, &state, true); err != nil {
		b.handlerFailed(update, err)
	}
}

// handlerFailed логирует ошибку обработчика и дает прикладному коду
// сбросить сессию пользователя
func (b *Bot) handlerFailed(update tgbotapi.Update, err error) {
	b.logger.Error("ошибка обработчика",
		zap.Int64("user_id", update.SentFrom().ID),
		zap.String("text", update.Message.Text),
		zap.Error(err))
	if b.onHandlerError != nil {
		if hookErr := b.onHandlerError(b, update); hookErr != nil {
			b.logger.Error("ошибка при сбросе сессии", zap.Error(hookErr))
		}
	}
}

// dispatch ищет обработчик сообщения в состоянии и выполняет его.
// catchAll управляет тем, вызывать ли CatchAllFunc при отсутствии совпадения:
// для глобальных состояний он не вызывается, чтобы свободный текст
// доставался локальному состоянию пользователя.
func (b *Bot) dispatch(update tgbotapi.Update, state *State, catchAll bool) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(update.Message.Text))
	if handler, ok := state.MessageHandlers[key]; ok {
		return true, handler.Handle(b, update)
	}
	if catchAll && state.CatchAllFunc != nil {
		return true, state.CatchAllFunc.Handle(b, update)
	}
	return false, nil
}

// GetUserState возвращает название состояния, в котором находится пользователь
func (b *Bot) GetUserState(userID int64) (string, error) {
	raw, ok := b.cache.Get(strconv.FormatInt(userID, 10))
	if !ok {
		if b.defaultState != "" {
			return b.defaultState, nil
		}
		return "", ErrStateNotFound
	}
	state, ok := raw.(string)
	if !ok {
		return "", ErrInvalidStateType
	}
	return state, nil
}

// SetUserState меняет состояние пользователя
func (b *Bot) SetUserState(userID int64, state string) error {
	if _, ok := b.states[state]; !ok {
		return NewValidationError(ErrStateHandlerNotFound, state)
	}
	b.cache.Set(strconv.FormatInt(userID, 10), state, b.expiration)
	return nil
}

// Transition переводит пользователя в новое состояние и выполняет
// его входной обработчик, если он задан
func (b *Bot) Transition(userID int64, state string, update tgbotapi.Update) error {
	if err := b.SetUserState(userID, state); err != nil {
		return err
	}
	if next, ok := b.states[state]; ok && next.AtEntranceFunc != nil {
		return next.AtEntranceFunc.Handle(b, update)
	}
	return nil
}

// SendMessage отправляет сообщение с учетом лимита Telegram API
func (b *Bot) SendMessage(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.limiter.Wait()
	return b.BotAPI.Send(msg)
}
