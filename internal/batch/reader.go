package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row — строка данных с номером строки в исходном файле (с единицы).
type Row struct {
	Line   int
	Fields []string
}

// ReadFile читает CSV-файл и отбрасывает заголовок.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// Read читает CSV и отбрасывает заголовок. Строки могут иметь разное
// число колонок, проверка длины — забота конкретного действия.
// Синтаксическая ошибка CSV отклоняет всю таблицу до выполнения строк.
func Read(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []Row
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
		}
		if header {
			header = false
			continue
		}

		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}
		rows = append(rows, Row{Line: line, Fields: record})
	}

	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// field возвращает колонку i без пробелов по краям или "" если её нет.
func (r Row) field(i int) string {
	if i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}

// require проверяет, что в строке есть минимум n колонок.
func (r Row) require(n int) error {
	if len(r.Fields) < n {
		return fmt.Errorf("%w: line %d has %d, want %d", ErrShortRow, r.Line, len(r.Fields), n)
	}
	return nil
}
