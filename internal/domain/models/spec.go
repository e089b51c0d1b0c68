package models

import "strings"

const (
	SpecCategoryCoffeeMachine = "coffee_machine"
	SpecCategoryFrame         = "frame"
	SpecCategoryRefrigerator  = "refrigerator"
	SpecCategoryTerminal      = "terminal"
)

// DeviceSpec — характеристики компонента (кофемашины, холодильника, терминала...)
type DeviceSpec struct {
	ID          int64  `json:"id" db:"id"`
	Category    string `json:"category" db:"category"`
	Name        string `json:"name" db:"name"`
	Title       string `json:"title" db:"title"`
	SpecsText   string `json:"specs_text" db:"specs_text"`
	Description string `json:"description" db:"description"`
}

// Lines возвращает непустые строки характеристик.
func (s *DeviceSpec) Lines() []string {
	lines := []string{}
	for _, line := range strings.Split(s.SpecsText, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
