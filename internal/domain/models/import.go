package models

// ImportResult — итог импорта файла с машинами
type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError описывает строку, которую не удалось импортировать.
// Row — номер строки в файле, считая заголовок первой строкой.
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}
