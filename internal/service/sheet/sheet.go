package sheet

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"anketa_bot/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Порядок колонок журнала, первая строка — заголовок
var headers = []interface{}{"ID", "Full Name", "Summ", "Card Number", "Birthday"}

// SheetBackup — резервная копия анкет в Google-таблице.
// Альтернативный драйвер резервного хранилища (BACKUP_DRIVER=sheets).
type SheetBackup struct {
	Base64Creds   string
	SpreadsheetID string
	SheetID       string
	SheetName     string
	PauseMs       int // пауза между запросами в миллисекундах
	srv           *sheets.Service
	limiterMu     sync.Mutex
	lastCall      time.Time
}

// Конструктор SheetBackup
func NewSheetBackup(base64Creds, spreadsheetID, sheetID string, pauseMs int) (*SheetBackup, error) {
	ctx := context.Background()
	credBytes, err := base64.StdEncoding.DecodeString(base64Creds)
	if err != nil {
		return nil, fmt.Errorf("не удается декодировать credentials из base64: %v", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credBytes, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("не удается создать credentials из JSON: %v", err)
	}
	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("не удается инициализировать сервис Google Sheets: %v", err)
	}

	s := &SheetBackup{
		Base64Creds:   base64Creds,
		SpreadsheetID: spreadsheetID,
		SheetID:       sheetID,
		PauseMs:       pauseMs,
		srv:           srv,
		lastCall:      time.Now(),
	}

	// Получаем имя листа
	if err := s.fetchSheetName(); err != nil {
		return nil, fmt.Errorf("не удается получить имя листа: %v", err)
	}
	return s, nil
}

func (s *SheetBackup) fetchSheetName() error {
	s.wait()

	resp, err := s.srv.Spreadsheets.Get(s.SpreadsheetID).Do()
	if err != nil {
		return fmt.Errorf("ошибка получения информации о таблице: %v", err)
	}
	for _, sh := range resp.Sheets {
		if fmt.Sprint(sh.Properties.SheetId) == s.SheetID {
			s.SheetName = sh.Properties.Title
			return nil
		}
	}
	return fmt.Errorf("лист с ID %s не найден", s.SheetID)
}

// Лимитер: выдерживает паузу между запросами к API
func (s *SheetBackup) wait() {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	elapsed := time.Since(s.lastCall)
	pause := time.Duration(s.PauseMs) * time.Millisecond
	if elapsed < pause {
		time.Sleep(pause - elapsed)
	}
	s.lastCall = time.Now()
}

// Записывает строку заголовка, если первая строка листа пустая
func (s *SheetBackup) EnsureReady() error {
	s.wait()

	rangeStr := fmt.Sprintf("%s!A1:E1", s.SheetName)
	resp, err := s.srv.Spreadsheets.Values.Get(s.SpreadsheetID, rangeStr).Do()
	if err != nil {
		return fmt.Errorf("ошибка чтения заголовка: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	s.wait()
	vr := &sheets.ValueRange{Values: [][]interface{}{headers}}
	_, err = s.srv.Spreadsheets.Values.Update(s.SpreadsheetID, rangeStr, vr).
		ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	return nil
}

// Множество id анкет, уже присутствующих в таблице.
// Читается колонка A ниже заголовка, некорректные значения пропускаются.
func (s *SheetBackup) ExistingIDs() (map[uint]bool, error) {
	s.wait()

	rangeStr := fmt.Sprintf("%s!A2:A", s.SheetName)
	resp, err := s.srv.Spreadsheets.Values.Get(s.SpreadsheetID, rangeStr).Do()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения id из таблицы: %w", err)
	}

	ids := make(map[uint]bool)
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		raw := strings.TrimSpace(fmt.Sprintf("%v", row[0]))
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		ids[uint(id)] = true
	}
	return ids, nil
}

// Дописывает анкету в конец листа
func (s *SheetBackup) AppendUser(user model.User) error {
	s.wait()

	vr := &sheets.ValueRange{
		Values: [][]interface{}{{user.ID, user.FullName, user.Summ, user.CardNumber, user.Birthday}},
	}
	rangeStr := fmt.Sprintf("%s!A1:E", s.SheetName)
	_, err := s.srv.Spreadsheets.Values.Append(s.SpreadsheetID, rangeStr, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Do()
	if err != nil {
		return fmt.Errorf("ошибка вставки в таблицу: %w", err)
	}
	return nil
}

// Очищает все строки данных, заголовок остается
func (s *SheetBackup) Clear() error {
	s.wait()

	rangeStr := fmt.Sprintf("%s!A2:E", s.SheetName)
	_, err := s.srv.Spreadsheets.Values.Clear(s.SpreadsheetID, rangeStr, &sheets.ClearValuesRequest{}).Do()
	if err != nil {
		return fmt.Errorf("ошибка очистки таблицы: %w", err)
	}
	return nil
}

// Количество строк данных в таблице
func (s *SheetBackup) RowCount() (int, error) {
	s.wait()

	rangeStr := fmt.Sprintf("%s!A2:A", s.SheetName)
	resp, err := s.srv.Spreadsheets.Values.Get(s.SpreadsheetID, rangeStr).Do()
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	count := 0
	for _, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprintf("%v", row[0])) != "" {
			count++
		}
	}
	return count, nil
}
