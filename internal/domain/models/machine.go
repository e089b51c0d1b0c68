package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// цены уходят в JSON числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true
}

// CoffeeMachine представляет вариант кофемашины в каталоге
type CoffeeMachine struct {
	ID               int64               `json:"id" db:"id"`
	Name             string              `json:"name" db:"name"`
	Model            string              `json:"model" db:"model"`
	Frame            string              `json:"frame" db:"frame"`
	FrameColor       string              `json:"frame_color" db:"frame_color"`
	FrameDesignColor string              `json:"frame_design_color" db:"frame_design_color"`
	Refrigerator     string              `json:"refrigerator" db:"refrigerator"`
	Terminal         string              `json:"terminal" db:"terminal"`
	Price            decimal.NullDecimal `json:"price" db:"price"`
	OzonLink         string              `json:"ozon_link" db:"ozon_link"`
	GraphicLink      string              `json:"graphic_link" db:"graphic_link"`
	MainImage        string              `json:"main_image" db:"main_image"`
	MainImagePath    string              `json:"main_image_path" db:"main_image_path"`
	GalleryFolder    string              `json:"gallery_folder" db:"gallery_folder"`
	Description      string              `json:"description" db:"description"`
	DesignImages     DesignImages        `json:"design_images,omitempty" db:"design_images"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// DesignImage описывает фото для одной комбинации цветов каркаса и вставки
type DesignImage struct {
	MainImagePath string `json:"main_image_path,omitempty"`
	MainImage     string `json:"main_image,omitempty"`
	GalleryFolder string `json:"gallery_folder,omitempty"`
}

// Source возвращает путь в Seafile, если он задан, иначе прямую ссылку.
func (d DesignImage) Source() string {
	if d.MainImagePath != "" {
		return d.MainImagePath
	}

	return d.MainImage
}

// DesignImages: цвет каркаса -> цвет вставки -> фото
type DesignImages map[string]map[string]DesignImage

// Lookup ищет фото для пары цветов.
func (d DesignImages) Lookup(frameColor, insertColor string) (DesignImage, bool) {
	inserts, ok := d[frameColor]
	if !ok {
		return DesignImage{}, false
	}

	img, ok := inserts[insertColor]

	return img, ok
}

// Value реализует интерфейс driver.Valuer для сериализации DesignImages в JSONB
func (d DesignImages) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}

	return json.Marshal(d)
}

// Scan реализует интерфейс sql.Scanner для десериализации JSONB в DesignImages
func (d *DesignImages) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*d = nil
			return nil
		}
		return json.Unmarshal(v, d)
	case string:
		if v == "" {
			*d = nil
			return nil
		}
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported design_images type %T", value)
	}
}

// Signature — мягкий ключ уникальности варианта при импорте.
type Signature struct {
	Model        string
	Frame        string
	FrameColor   string
	Refrigerator string
	Terminal     string
}

func (m *CoffeeMachine) Signature() Signature {
	return Signature{
		Model:        m.Model,
		Frame:        m.Frame,
		FrameColor:   m.FrameColor,
		Refrigerator: m.Refrigerator,
		Terminal:     m.Terminal,
	}
}

// DisplayName возвращает модель, а если её нет — имя.
func (m *CoffeeMachine) DisplayName() string {
	if strings.TrimSpace(m.Model) != "" {
		return m.Model
	}

	return m.Name
}
