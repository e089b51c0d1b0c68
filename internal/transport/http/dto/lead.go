package dto

import (
	"strings"

	"coffee_configurator/internal/domain/models"
)

// LeadRequest — заявка с конфигуратора
type LeadRequest struct {
	Name      string           `json:"name" validate:"required,max=200"`
	Phone     string           `json:"phone" validate:"required,max=50"`
	Telegram  string           `json:"telegram,omitempty" validate:"max=100"`
	Email     string           `json:"email,omitempty" validate:"omitempty,email"`
	Selection models.Selection `json:"selection,omitempty"`
}

// Normalize обрезает пробелы до валидации: email из одних пробелов считается пустым.
func (r *LeadRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Telegram = strings.TrimSpace(r.Telegram)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *LeadRequest) ToDomain() models.Lead {
	return models.Lead{
		Name:          r.Name,
		Phone:         r.Phone,
		Telegram:      r.Telegram,
		Email:         r.Email,
		SelectionData: r.Selection,
	}
}

type LeadResponse struct {
	Detail   string `json:"detail"`
	ID       int64  `json:"id"`
	Notified bool   `json:"notified"`
}
