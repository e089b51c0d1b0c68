package dto

import (
	"net/url"

	"coffee_configurator/internal/domain/models"
)

// SpecForm — поля формы характеристики. nil означает, что поле не передано.
type SpecForm struct {
	Category  *string
	Name      *string
	SpecsText *string
}

func NewSpecForm(values url.Values) SpecForm {
	return SpecForm{
		Category:  formValue(values, "category"),
		Name:      formValue(values, "name"),
		SpecsText: formValue(values, "specs_text"),
	}
}

type SpecResponse struct {
	ID          int64    `json:"id"`
	Category    string   `json:"category"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	SpecsText   string   `json:"specs_text"`
	Specs       []string `json:"specs"`
	Description string   `json:"description"`
}

func NewSpecResponse(s *models.DeviceSpec) SpecResponse {
	return SpecResponse{
		ID:          s.ID,
		Category:    s.Category,
		Name:        s.Name,
		Title:       s.Title,
		SpecsText:   s.SpecsText,
		Specs:       s.Lines(),
		Description: s.Description,
	}
}

func NewSpecListResponse(specs []models.DeviceSpec) []SpecResponse {
	resp := make([]SpecResponse, 0, len(specs))
	for i := range specs {
		resp = append(resp, NewSpecResponse(&specs[i]))
	}

	return resp
}
