package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// fieldHeader — колонка экспорта и её заголовок
type fieldHeader struct {
	Field  string
	Header string
	Width  float64
}

// exportHeaders задаёт фиксированный порядок колонок экспорта.
var exportHeaders = []fieldHeader{
	{Field: "model", Header: "Модель оборудования", Width: 20},
	{Field: "frame", Header: "Каркас", Width: 16},
	{Field: "frame_color", Header: "Цвет каркаса", Width: 14},
	{Field: "frame_design_color", Header: "Цвет дизайна каркаса", Width: 14},
	{Field: "refrigerator", Header: "Холодильник", Width: 14},
	{Field: "terminal", Header: "Терминал", Width: 14},
	{Field: "price", Header: "Цена", Width: 10},
	{Field: "ozon_link", Header: "Ссылка на Озон", Width: 40},
	{Field: "graphic_link", Header: "Ссылка на графику", Width: 40},
	{Field: "main_image", Header: "Main image", Width: 40},
	{Field: "gallery_folder", Header: "Gallery folder", Width: 24},
	{Field: "description", Header: "Описание", Width: 40},
}

var headerAliases = map[string]string{
	"модель":               "model",
	"модель оборудования":  "model",
	"каркас":               "frame",
	"цвет каркаса":         "frame_color",
	"цвет дизайна каркаса": "frame_design_color",
	"цвет дизайна":         "frame_design_color",
	"цвет вставки":         "frame_design_color",
	"холодильник":          "refrigerator",
	"терминал":             "terminal",
	"цена":                 "price",
	"ссылка на озон":       "ozon_link",
	"ссылка на графику":    "graphic_link",
	"main image":           "main_image",
	"gallery folder":       "gallery_folder",
	"описание":             "description",
	"название":             "name",
	"name":                 "name",
}

// importableFields — колонки таблицы, которые можно заполнить из файла
var importableFields = map[string]bool{
	"name":               true,
	"model":              true,
	"frame":              true,
	"frame_color":        true,
	"frame_design_color": true,
	"refrigerator":       true,
	"terminal":           true,
	"price":              true,
	"ozon_link":          true,
	"graphic_link":       true,
	"main_image":         true,
	"main_image_path":    true,
	"gallery_folder":     true,
	"description":        true,
}

const defaultMachineName = "Coffee Machine"

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("-", " ", "_", " ").Replace(h)

	return strings.Join(strings.Fields(h), " ")
}

// MapHeader переводит заголовок файла в имя поля машины.
func MapHeader(h string) string {
	n := normalizeHeader(h)
	if field, ok := headerAliases[n]; ok {
		return field
	}

	return strings.ReplaceAll(n, " ", "_")
}

// ParsePrice понимает "1 234,50" и "1234.5"; некорректное значение — не задано.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, raw)

	if s == "" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}

	return d, true
}

// preparedRow — строка импорта после нормализации
type preparedRow struct {
	fields map[string]string
	price  decimal.NullDecimal
}

// prepareRow сопоставляет заголовки, отбрасывает пустые и неизвестные значения.
// Возвращает false, если в строке нет ни одного значения.
func prepareRow(raw map[string]string) (preparedRow, bool) {
	row := preparedRow{fields: map[string]string{}}

	var hasValues bool
	for key, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		hasValues = true

		field := MapHeader(key)
		if !importableFields[field] {
			continue
		}

		if field == "price" {
			if p, ok := ParsePrice(value); ok {
				row.price = decimal.NewNullDecimal(p)
			}
			continue
		}

		row.fields[field] = value
	}

	if !hasValues {
		return row, false
	}

	if row.fields["name"] == "" {
		if model := row.fields["model"]; model != "" {
			row.fields["name"] = model
		} else {
			row.fields["name"] = defaultMachineName
		}
	}

	// цвет дизайна каркаса имеет смысл только для вариантов со ссылкой на Озон
	if row.fields["ozon_link"] == "" {
		delete(row.fields, "frame_design_color")
	}

	return row, true
}
