package dto

import (
	"encoding/json"
	"errors"
	"net/url"

	"coffee_configurator/internal/domain/models"

	"github.com/shopspring/decimal"
)

// MachineForm — поля формы машины. nil означает, что поле не передано.
type MachineForm struct {
	Name             *string
	Model            *string
	Frame            *string
	FrameColor       *string
	FrameDesignColor *string
	Refrigerator     *string
	Terminal         *string
	Price            *string
	OzonLink         *string
	GraphicLink      *string
	MainImage        *string
	MainImagePath    *string
	GalleryFolder    *string
	Description      *string
	DesignImages     *string

	ClearMainImage     bool
	ClearMainImagePath bool
	ClearGalleryFolder bool
}

// NewMachineForm собирает форму из url-encoded/multipart значений.
func NewMachineForm(values url.Values) MachineForm {
	return MachineForm{
		Name:               formValue(values, "name"),
		Model:              formValue(values, "model"),
		Frame:              formValue(values, "frame"),
		FrameColor:         formValue(values, "frame_color"),
		FrameDesignColor:   formValue(values, "frame_design_color"),
		Refrigerator:       formValue(values, "refrigerator"),
		Terminal:           formValue(values, "terminal"),
		Price:              formValue(values, "price"),
		OzonLink:           formValue(values, "ozon_link"),
		GraphicLink:        formValue(values, "graphic_link"),
		MainImage:          formValue(values, "main_image"),
		MainImagePath:      formValue(values, "main_image_path"),
		GalleryFolder:      formValue(values, "gallery_folder"),
		Description:        formValue(values, "description"),
		DesignImages:       formValue(values, "design_images"),
		ClearMainImage:     formFlag(values, "clear_main_image"),
		ClearMainImagePath: formFlag(values, "clear_main_image_path"),
		ClearGalleryFolder: formFlag(values, "clear_gallery_folder"),
	}
}

// TextFields возвращает строковые поля формы по именам колонок.
func (f *MachineForm) TextFields() map[string]*string {
	return map[string]*string{
		"name":               f.Name,
		"model":              f.Model,
		"frame":              f.Frame,
		"frame_color":        f.FrameColor,
		"frame_design_color": f.FrameDesignColor,
		"refrigerator":       f.Refrigerator,
		"terminal":           f.Terminal,
		"ozon_link":          f.OzonLink,
		"graphic_link":       f.GraphicLink,
		"main_image":         f.MainImage,
		"main_image_path":    f.MainImagePath,
		"gallery_folder":     f.GalleryFolder,
		"description":        f.Description,
	}
}

// ImagesUpdateForm — форма /admin/update-image/:id
type ImagesUpdateForm struct {
	MainImage     *string
	MainImagePath *string
	GalleryFolder *string
}

func NewImagesUpdateForm(values url.Values) ImagesUpdateForm {
	return ImagesUpdateForm{
		MainImage:     formValue(values, "main_image"),
		MainImagePath: formValue(values, "main_image_path"),
		GalleryFolder: formValue(values, "gallery_folder"),
	}
}

var ErrIDsNotList = errors.New("ids must be a list")

// BulkDeleteRequest — тело bulk-delete для машин и характеристик
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// ParseBulkDelete разбирает тело bulk-delete; ids обязателен и должен быть списком.
func ParseBulkDelete(body []byte) ([]int64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, ErrIDsNotList
	}

	data, ok := raw["ids"]
	if !ok {
		return nil, ErrIDsNotList
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil || ids == nil {
		return nil, ErrIDsNotList
	}

	return ids, nil
}

type MachineResponse struct {
	ID               int64                                 `json:"id"`
	Name             string                                `json:"name"`
	Model            string                                `json:"model"`
	Frame            string                                `json:"frame"`
	FrameColor       string                                `json:"frame_color"`
	FrameDesignColor string                                `json:"frame_design_color"`
	Refrigerator     string                                `json:"refrigerator"`
	Terminal         string                                `json:"terminal"`
	Price            decimal.NullDecimal                   `json:"price" swaggertype:"number"`
	OzonLink         string                                `json:"ozon_link"`
	GraphicLink      string                                `json:"graphic_link"`
	MainImage        string                                `json:"main_image"`
	MainImagePath    string                                `json:"main_image_path,omitempty"`
	GalleryFolder    string                                `json:"gallery_folder"`
	Description      string                                `json:"description"`
	DesignImages     map[string]map[string]DesignImageView `json:"design_images,omitempty"`
	GalleryFiles     []string                              `json:"gallery_files,omitempty"`
}

// DesignImageView — фото комбинации цветов с уже разрешённой ссылкой
type DesignImageView struct {
	MainImage     string `json:"main_image,omitempty"`
	MainImagePath string `json:"main_image_path,omitempty"`
	GalleryFolder string `json:"gallery_folder,omitempty"`
}

// NewMachineResponse копирует поля машины; ссылки на медиа заполняет вызывающий.
func NewMachineResponse(m *models.CoffeeMachine) MachineResponse {
	resp := MachineResponse{
		ID:               m.ID,
		Name:             m.Name,
		Model:            m.Model,
		Frame:            m.Frame,
		FrameColor:       m.FrameColor,
		FrameDesignColor: m.FrameDesignColor,
		Refrigerator:     m.Refrigerator,
		Terminal:         m.Terminal,
		Price:            m.Price,
		OzonLink:         m.OzonLink,
		GraphicLink:      m.GraphicLink,
		MainImage:        m.MainImage,
		MainImagePath:    m.MainImagePath,
		GalleryFolder:    m.GalleryFolder,
		Description:      m.Description,
	}

	if len(m.DesignImages) > 0 {
		resp.DesignImages = make(map[string]map[string]DesignImageView, len(m.DesignImages))
		for frame, inserts := range m.DesignImages {
			views := make(map[string]DesignImageView, len(inserts))
			for insert, img := range inserts {
				views[insert] = DesignImageView{
					MainImage:     img.MainImage,
					MainImagePath: img.MainImagePath,
					GalleryFolder: img.GalleryFolder,
				}
			}
			resp.DesignImages[frame] = views
		}
	}

	return resp
}

type MachineImagesResponse struct {
	ID            int64  `json:"id"`
	MainImage     string `json:"main_image"`
	GalleryFolder string `json:"gallery_folder"`
}

type OzonPriceResponse struct {
	ID       int64               `json:"id"`
	OfferID  string              `json:"offer_id"`
	Price    decimal.NullDecimal `json:"price" swaggertype:"number"`
	Currency string              `json:"currency"`
}

type RefreshMediaResponse struct {
	ID      int64    `json:"id"`
	Main    string   `json:"main_image"`
	Designs int      `json:"designs"`
	Gallery []string `json:"gallery"`
}

func formValue(values url.Values, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}

	s := v[0]

	return &s
}

func formFlag(values url.Values, key string) bool {
	v := formValue(values, key)
	if v == nil {
		return false
	}

	switch *v {
	case "", "0", "false", "off", "no":
		return false
	default:
		return true
	}
}
