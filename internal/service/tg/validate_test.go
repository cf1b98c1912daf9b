package tg

import (
	"errors"
	"testing"
	"time"
)

func TestValidateFullName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Иван Петров", "Иван Петров", false},
		{"  Иван   Петров  ", "Иван Петров", false},
		{"Иван Петрович Сидоров", "Иван Петрович Сидоров", false},
		{"Иван", "", true},
		{"   ", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ValidateFullName(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrNameTooFewWords) {
				t.Errorf("ValidateFullName(%q): ожидали ErrNameTooFewWords, получили %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateFullName(%q) вернул ошибку: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateFullName(%q) = %q, ожидали %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBirthday(t *testing.T) {
	// Фиксированное "сегодня" для граничных случаев
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"15.05.1990", "1990-05-15", nil},
		{"31.12.2000", "2000-12-31", nil},
		{"29.02.2000", "2000-02-29", nil}, // високосный год
		{"15.06.2024", "2024-06-15", nil}, // сегодня — валидно
		{"16.06.2024", "", ErrDateInFuture},
		{"29.02.2001", "", ErrDateImpossible}, // не високосный
		{"31.04.1990", "", ErrDateImpossible},
		{"00.01.1990", "", ErrDateImpossible},
		{"2000.12.31", "", ErrDateBadFormat},
		{"15-05-1990", "", ErrDateBadFormat},
		{"5.05.1990", "", ErrDateBadFormat},
		{"15.05.90", "", ErrDateBadFormat},
		{"привет", "", ErrDateBadFormat},
		{"", "", ErrDateBadFormat},
	}
	for _, tt := range tests {
		got, err := ParseBirthday(tt.in, now)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseBirthday(%q): ожидали %v, получили %v", tt.in, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBirthday(%q) вернул ошибку: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBirthday(%q) = %q, ожидали %q", tt.in, got, tt.want)
		}
	}
}
