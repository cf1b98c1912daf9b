package tg

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"anketa_bot/internal/domain"
)

// Ошибки валидации формы. Каждая дает пользователю свое сообщение,
// сессия при этом остается в текущем состоянии.
var (
	ErrNameTooFewWords = fmt.Errorf("%w: имя должно содержать минимум два слова", domain.ErrValidation)
	ErrDateBadFormat   = fmt.Errorf("%w: дата не в формате ДД.ММ.ГГГГ", domain.ErrValidation)
	ErrDateImpossible  = fmt.Errorf("%w: такой календарной даты не существует", domain.ErrValidation)
	ErrDateInFuture    = fmt.Errorf("%w: дата рождения в будущем", domain.ErrValidation)
)

// Строго две цифры дня, две месяца, четыре года, разделитель — точка.
// time.Parse сам по себе прощает однозначные числа, поэтому формат
// проверяется до разбора.
var birthdayRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

const birthdayLayout = "02.01.2006"

// ValidateFullName проверяет, что после обрезки пробелов имя состоит
// минимум из двух слов, и возвращает его со схлопнутыми пробелами.
func ValidateFullName(raw string) (string, error) {
	parts := strings.Fields(raw)
	if len(parts) < 2 {
		return "", ErrNameTooFewWords
	}
	return strings.Join(parts, " "), nil
}

// ParseBirthday разбирает дату в формате ДД.ММ.ГГГГ и возвращает ее
// в формате хранения YYYY-MM-DD. Различает три случая: не тот формат,
// несуществующая календарная дата, дата в будущем. Сегодняшний день валиден.
func ParseBirthday(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if !birthdayRe.MatchString(raw) {
		return "", ErrDateBadFormat
	}
	date, err := time.Parse(birthdayLayout, raw)
	if err != nil {
		return "", ErrDateImpossible
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		return "", ErrDateInFuture
	}
	return date.Format("2006-01-02"), nil
}
