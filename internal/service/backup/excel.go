package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"anketa_bot/internal/model"

	"github.com/xuri/excelize/v2"
)

const sheetName = "users"

// Колонки журнала. Порядок фиксированный, первая строка — заголовок.
var headers = []string{"ID", "Full Name", "Summ", "Card Number", "Birthday"}

// ExcelBackup — резервная копия анкет в xlsx-файле.
// Файл открывается и сохраняется на каждую операцию, mu сериализует доступ.
type ExcelBackup struct {
	FilePath string
	mu       sync.Mutex
}

func NewExcelBackup(filePath string) *ExcelBackup {
	return &ExcelBackup{FilePath: filePath}
}

// Создает файл с листом users и строкой заголовка, если файла еще нет
func (b *ExcelBackup) EnsureReady() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := os.Stat(b.FilePath); err == nil {
		return nil
	}
	if dir := filepath.Dir(b.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("не удалось создать директорию для копии: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := writeHeaders(f); err != nil {
		return err
	}
	return f.SaveAs(b.FilePath)
}

func writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, 15); err != nil {
			return err
		}
	}
	return nil
}

func (b *ExcelBackup) open() (*excelize.File, error) {
	return excelize.OpenFile(b.FilePath)
}

// Множество id анкет, уже записанных в копию.
// Некорректные значения в колонке ID пропускаются.
func (b *ExcelBackup) ExistingIDs() (map[uint]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]bool)
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // заголовок
		}
		id, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			continue
		}
		ids[uint(id)] = true
	}
	return ids, nil
}

// Дописывает анкету в первую свободную строку
func (b *ExcelBackup) AppendUser(user model.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return err
	}
	next := len(rows) + 1

	values := []interface{}{user.ID, user.FullName, user.Summ, user.CardNumber, user.Birthday}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, next)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	return f.Save()
}

// Удаляет все строки данных, заголовок остается
func (b *ExcelBackup) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return err
	}
	for i := len(rows); i >= 2; i-- {
		if err := f.RemoveRow(sheetName, i); err != nil {
			return err
		}
	}
	return f.Save()
}

// Количество строк данных в копии
func (b *ExcelBackup) RowCount() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, err
	}
	count := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 0 {
			count++
		}
	}
	return count, nil
}
