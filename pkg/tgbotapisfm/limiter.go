package tgbotapisfm

import (
	"sync"
	"time"
)

// Telegram разрешает порядка 30 сообщений в секунду на бота
const defaultMinInterval = 35 * time.Millisecond

// Limiter выдерживает минимальный интервал между отправками
type Limiter struct {
	mu          sync.Mutex
	lastSend    time.Time
	minInterval time.Duration
}

func NewLimiter() *Limiter {
	return &Limiter{minInterval: defaultMinInterval}
}

// Wait блокирует до истечения минимального интервала с прошлой отправки
func (l *Limiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	elapsed := time.Since(l.lastSend)
	if elapsed < l.minInterval {
		time.Sleep(l.minInterval - elapsed)
	}
	l.lastSend = time.Now()
}
