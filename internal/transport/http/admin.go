package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/metrics"
	importservice "coffee_configurator/internal/services/import_service"
	"coffee_configurator/internal/transport/http/dto"
	"coffee_configurator/internal/transport/http/dto/request"
	"coffee_configurator/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

const dashboardSize = 5

// Dashboard godoc
// @Summary Сводка админки
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/ [get]
func (r *Routers) Dashboard(c echo.Context) error {
	const op = "http.routers.Dashboard"

	log := r.log.With(slog.String("op", op))

	machines, err := r.MachineService.List(c.Request().Context(), 0, dashboardSize)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":     c.Get(adminUserKey),
		"machines": machines,
	})
}

// MachinesTable godoc
// @Summary Все машины каталога
// @Tags admin
// @Produce json
// @Success 200 {array} models.CoffeeMachine
// @Security BasicAuth
// @Router /admin/table [get]
func (r *Routers) MachinesTable(c echo.Context) error {
	const op = "http.routers.MachinesTable"

	log := r.log.With(slog.String("op", op))

	machines, err := r.MachineService.ListAll(c.Request().Context())
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, machines)
}

// SpecsTable godoc
// @Summary Все характеристики
// @Tags admin
// @Produce json
// @Success 200 {array} dto.SpecResponse
// @Security BasicAuth
// @Router /admin/specs [get]
func (r *Routers) SpecsTable(c echo.Context) error {
	const op = "http.routers.SpecsTable"

	log := r.log.With(slog.String("op", op))

	specs, err := r.SpecService.List(c.Request().Context(), "")
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, dto.NewSpecListResponse(specs))
}

// LeadsTable godoc
// @Summary Заявки, новые сверху
// @Tags admin
// @Produce json
// @Param offset query int false "Смещение"
// @Param limit query int false "Размер страницы"
// @Success 200 {array} models.Lead
// @Security BasicAuth
// @Router /admin/leads [get]
func (r *Routers) LeadsTable(c echo.Context) error {
	const op = "http.routers.LeadsTable"

	log := r.log.With(slog.String("op", op))

	var req request.ListRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	}

	leads, err := r.LeadService.List(c.Request().Context(), req.Offset, req.Limit)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, leads)
}

// ImportMachines godoc
// @Summary Импорт машин из CSV/XLSX
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV или XLSX"
// @Param update_existing query bool false "Обновлять найденные по сигнатуре (по умолчанию true)"
// @Success 200 {object} response.ImportResponse
// @Failure 400 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/import [post]
func (r *Routers) ImportMachines(c echo.Context) error {
	const op = "http.routers.ImportMachines"

	log := r.log.With(slog.String("op", op))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrFileRequired)
	}

	updateExisting := true
	if raw := c.QueryParam("update_existing"); raw != "" {
		updateExisting, err = strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, response.Error("update_existing must be a boolean"))
		}
	} else if raw := c.FormValue("update_existing"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			updateExisting = v
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("failed to open upload", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrFileRequired)
	}
	defer file.Close()

	result, err := r.ImportService.Import(c.Request().Context(), fileHeader.Filename, file, updateExisting)
	if err != nil {
		if errors.Is(err, importservice.ErrUnsupportedFormat) {
			return c.JSON(http.StatusBadRequest, response.ErrUnsupportedImport)
		}

		log.Warn("import failed", slog.String("filename", fileHeader.Filename), sl.Err(err))

		return c.JSON(http.StatusBadRequest, response.Error(fmt.Sprintf("Не удалось прочитать файл: %s", rootMessage(err))))
	}

	resp := response.ImportResponse{
		Detail: "Импорт завершен",
		ImportResultView: response.ImportResultView{
			Created: result.Created,
			Updated: result.Updated,
			Skipped: result.Skipped,
		},
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, response.ImportRowError{Row: e.Row, Error: e.Error})
	}

	return c.JSON(http.StatusOK, resp)
}

// ExportMachines godoc
// @Summary Выгрузка каталога
// @Tags admin
// @Produce octet-stream
// @Param format query string false "csv или xlsx (по умолчанию xlsx)"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/export [get]
func (r *Routers) ExportMachines(c echo.Context) error {
	const op = "http.routers.ExportMachines"

	log := r.log.With(slog.String("op", op))

	format := strings.ToLower(c.QueryParam("format"))
	switch format {
	case "", "xlsx", "xlsm":
		format = importservice.FormatXLSX
	case "csv":
		format = importservice.FormatCSV
	default:
		return c.JSON(http.StatusBadRequest, response.ErrUnsupportedExport)
	}

	var buf bytes.Buffer
	contentType, filename, err := r.ImportService.Export(c.Request().Context(), format, &buf)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))

	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// SeafileBrowser godoc
// @Summary Содержимое каталога Seafile
// @Tags admin
// @Produce json
// @Param path query string false "Путь, по умолчанию /"
// @Success 200 {object} response.SeafileDirResponse
// @Failure 502 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/seafile-browser [get]
func (r *Routers) SeafileBrowser(c echo.Context) error {
	const op = "http.routers.SeafileBrowser"

	log := r.log.With(slog.String("op", op))

	if r.Seafile == nil {
		return c.JSON(http.StatusServiceUnavailable, response.ErrSeafileNotConfigured)
	}

	path := c.QueryParam("path")
	if path == "" {
		path = "/"
	}

	items, err := r.Seafile.ListDirectory(c.Request().Context(), path)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("seafile").Inc()
		log.Warn("seafile request failed", slog.String("path", path), sl.Err(err))

		return c.JSON(http.StatusBadGateway, response.Error("Seafile request failed: "+err.Error()))
	}

	return c.JSON(http.StatusOK, response.SeafileDirResponse{Path: path, Items: items})
}

// SeafileFile godoc
// @Summary Ссылка на скачивание файла Seafile
// @Tags admin
// @Produce json
// @Param path query string true "Путь к файлу"
// @Success 200 {object} response.SeafileFileResponse
// @Failure 502 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/seafile-file [get]
func (r *Routers) SeafileFile(c echo.Context) error {
	const op = "http.routers.SeafileFile"

	log := r.log.With(slog.String("op", op))

	if r.Seafile == nil {
		return c.JSON(http.StatusServiceUnavailable, response.ErrSeafileNotConfigured)
	}

	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, response.Error("path is required"))
	}

	link, err := r.Seafile.FileDownloadLink(c.Request().Context(), path)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("seafile").Inc()
		log.Warn("seafile request failed", slog.String("path", path), sl.Err(err))

		return c.JSON(http.StatusBadGateway, response.Error("Seafile request failed: "+err.Error()))
	}

	return c.JSON(http.StatusOK, response.SeafileFileResponse{Path: path, Link: link})
}

// CreateMachine godoc
// @Summary Создание машины
// @Tags admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param name formData string true "Название"
// @Param model formData string false "Модель"
// @Param price formData string false "Цена"
// @Param design_images formData string false "JSON фото по цветам"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/machine [post]
func (r *Routers) CreateMachine(c echo.Context) error {
	const op = "http.routers.CreateMachine"

	log := r.log.With(slog.String("op", op))

	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	machine, err := r.MachineService.Create(c.Request().Context(), dto.NewMachineForm(values))
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Detail: "Создано", ID: machine.ID})
}

// UpdateMachine godoc
// @Summary Обновление машины
// @Description Пустые поля не меняются; clear_main_image, clear_main_image_path, clear_gallery_folder очищают значения.
// @Tags admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "ID машины"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/machine/{id} [post]
func (r *Routers) UpdateMachine(c echo.Context) error {
	const op = "http.routers.UpdateMachine"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	machine, err := r.MachineService.Update(c.Request().Context(), id, dto.NewMachineForm(values))
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Detail: "Обновлено", ID: machine.ID})
}

// DeleteMachine godoc
// @Summary Удаление машины
// @Tags admin
// @Produce json
// @Param id path int true "ID машины"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/machine/{id}/delete [post]
func (r *Routers) DeleteMachine(c echo.Context) error {
	const op = "http.routers.DeleteMachine"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	if err := r.MachineService.Delete(c.Request().Context(), id); err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Detail: "Удалено", ID: id})
}

// BulkDeleteMachines godoc
// @Summary Массовое удаление машин
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.BulkDeleteRequest true "Список id"
// @Success 200 {object} response.BulkDeleteResponse
// @Failure 400 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/machines/bulk-delete [post]
func (r *Routers) BulkDeleteMachines(c echo.Context) error {
	const op = "http.routers.BulkDeleteMachines"

	log := r.log.With(slog.String("op", op))

	ids, err := readIDs(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrIDsNotList)
	}

	deleted, err := r.MachineService.BulkDelete(c.Request().Context(), ids)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.BulkDeleteResponse{Detail: "Удалено", Deleted: deleted, Requested: len(ids)})
}

// UpdateImages godoc
// @Summary Смена изображений машины
// @Description Меняются только переданные поля main_image, main_image_path, gallery_folder.
// @Tags admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "ID машины"
// @Success 200 {object} response.Response{item=dto.MachineImagesResponse}
// @Failure 404 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/update-image/{id} [post]
func (r *Routers) UpdateImages(c echo.Context) error {
	const op = "http.routers.UpdateImages"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	machine, err := r.MachineService.UpdateImages(c.Request().Context(), id, dto.NewImagesUpdateForm(values))
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{
		Detail: "Images updated",
		Item: dto.MachineImagesResponse{
			ID:            machine.ID,
			MainImage:     machine.MainImage,
			GalleryFolder: machine.GalleryFolder,
		},
	})
}

// RefreshMachineMedia godoc
// @Summary Перекачать медиа машины
// @Tags admin
// @Produce json
// @Param id path int true "ID машины"
// @Success 200 {object} response.Response{item=dto.RefreshMediaResponse}
// @Failure 404 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/machine/{id}/refresh-media [post]
func (r *Routers) RefreshMachineMedia(c echo.Context) error {
	const op = "http.routers.RefreshMachineMedia"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	result, err := r.MachineService.RefreshMedia(c.Request().Context(), id)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{
		Detail: "Медиа обновлены",
		ID:     id,
		Item: dto.RefreshMediaResponse{
			ID:      id,
			Main:    result.Main,
			Designs: result.Designs,
			Gallery: result.Gallery,
		},
	})
}

// SyncOzonPrice godoc
// @Summary Цена из Ozon
// @Description Находит товар по ozon_link и сохраняет его цену.
// @Tags admin
// @Produce json
// @Param id path int true "ID машины"
// @Success 200 {object} response.Response{item=dto.OzonPriceResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/machine/{id}/ozon-price [post]
func (r *Routers) SyncOzonPrice(c echo.Context) error {
	const op = "http.routers.SyncOzonPrice"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	product, err := r.MachineService.SyncOzonPrice(c.Request().Context(), id)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{
		Detail: "Цена обновлена",
		ID:     id,
		Item: dto.OzonPriceResponse{
			ID:       id,
			OfferID:  product.OfferID,
			Price:    product.Price,
			Currency: product.Currency,
		},
	})
}

// CreateSpec godoc
// @Summary Создание характеристики
// @Tags admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param category formData string true "Категория"
// @Param name formData string true "Название"
// @Param specs_text formData string false "Характеристики, по строке"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/spec [post]
func (r *Routers) CreateSpec(c echo.Context) error {
	const op = "http.routers.CreateSpec"

	log := r.log.With(slog.String("op", op))

	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	spec, err := r.SpecService.Create(c.Request().Context(), dto.NewSpecForm(values))
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Detail: "Создано", ID: spec.ID})
}

// UpdateSpec godoc
// @Summary Обновление характеристики
// @Tags admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "ID характеристики"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/spec/{id} [post]
func (r *Routers) UpdateSpec(c echo.Context) error {
	const op = "http.routers.UpdateSpec"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	spec, err := r.SpecService.Update(c.Request().Context(), id, dto.NewSpecForm(values))
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Detail: "Обновлено", ID: spec.ID})
}

// DeleteSpec godoc
// @Summary Удаление характеристики
// @Tags admin
// @Produce json
// @Param id path int true "ID характеристики"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/spec/{id}/delete [post]
func (r *Routers) DeleteSpec(c echo.Context) error {
	const op = "http.routers.DeleteSpec"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	if err := r.SpecService.Delete(c.Request().Context(), id); err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.Response{Detail: "Удалено", ID: id})
}

// BulkDeleteSpecs godoc
// @Summary Массовое удаление характеристик
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.BulkDeleteRequest true "Список id"
// @Success 200 {object} response.BulkDeleteResponse
// @Failure 400 {object} response.ErrorResponse
// @Security BasicAuth
// @Router /admin/specs/bulk-delete [post]
func (r *Routers) BulkDeleteSpecs(c echo.Context) error {
	const op = "http.routers.BulkDeleteSpecs"

	log := r.log.With(slog.String("op", op))

	ids, err := readIDs(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrIDsNotList)
	}

	deleted, err := r.SpecService.BulkDelete(c.Request().Context(), ids)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.BulkDeleteResponse{Detail: "Удалено", Deleted: deleted, Requested: len(ids)})
}

// AutoPopulateSpecs godoc
// @Summary Генерация характеристик из атрибутов машин
// @Tags admin
// @Produce json
// @Success 200 {object} response.AutoPopulateResponse
// @Security BasicAuth
// @Router /admin/specs/auto-populate [post]
func (r *Routers) AutoPopulateSpecs(c echo.Context) error {
	const op = "http.routers.AutoPopulateSpecs"

	log := r.log.With(slog.String("op", op))

	created, err := r.SpecService.AutoPopulate(c.Request().Context())
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, response.AutoPopulateResponse{Detail: "Генерация завершена", Created: created})
}

func readIDs(c echo.Context) ([]int64, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return nil, err
	}

	return dto.ParseBulkDelete(body)
}
