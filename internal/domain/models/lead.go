package models

import (
	"fmt"
	"time"
)

// Selection — снимок выбора пользователя в конфигураторе
type Selection map[string]any

// String возвращает значение поля выбора или пустую строку.
func (s Selection) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

// Lead — заявка с конфигуратора, только добавление
type Lead struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Phone         string    `json:"phone" db:"phone"`
	Telegram      string    `json:"telegram,omitempty" db:"telegram"`
	Email         string    `json:"email,omitempty" db:"email"`
	SelectionData Selection `json:"selection_data,omitempty" db:"selection_data"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
