package cli

import (
	"encoding/json"
	"strings"
)

// rawTable строит таблицу из JSON-массива объектов по заданным полям.
// Массив может быть обёрнут в {"results": [...]}, как у /sensors.
// Если данные не массив объектов, возвращает nil, и Print выводит JSON.
func rawTable(raw json.RawMessage, columns ...string) ([]string, [][]string) {
	items, ok := tableItems(raw)
	if !ok || len(columns) == 0 {
		return nil, nil
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
	}

	rows := make([][]string, len(items))
	for i, item := range items {
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = cell(item[c])
		}
		rows[i] = row
	}
	return headers, rows
}

func tableItems(raw json.RawMessage) ([]map[string]json.RawMessage, bool) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, true
	}

	var envelope struct {
		Results []map[string]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Results == nil {
		return nil, false
	}
	return envelope.Results, true
}

// cell — строковое представление значения: строки без кавычек,
// остальное компактным JSON.
func cell(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}
