package http

import (
	"context"
	"log/slog"
	"net/http"

	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/transport/http/dto"
	"coffee_configurator/internal/transport/http/dto/request"
	"coffee_configurator/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// ListMachines godoc
// @Summary Каталог машин
// @Description Главное фото и фото по цветам отдаются ссылками на локальный кеш, если он есть.
// @Tags api
// @Produce json
// @Param include_gallery query bool false "Добавить gallery_files"
// @Param offset query int false "Смещение"
// @Param limit query int false "Размер страницы (по умолчанию 100)"
// @Success 200 {array} dto.MachineResponse
// @Router /api/coffee-machines [get]
func (r *Routers) ListMachines(c echo.Context) error {
	const op = "http.routers.ListMachines"

	log := r.log.With(slog.String("op", op))

	var req request.ListRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	}

	ctx := c.Request().Context()

	machines, err := r.MachineService.List(ctx, req.Offset, req.Limit)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	resp := make([]dto.MachineResponse, 0, len(machines))
	for i := range machines {
		resp = append(resp, r.machineResponse(ctx, &machines[i], req.IncludeGallery))
	}

	return c.JSON(http.StatusOK, resp)
}

// GetMachine godoc
// @Summary Машина по id
// @Tags api
// @Produce json
// @Param id path int true "ID машины"
// @Param include_gallery query bool false "Добавить gallery_files"
// @Success 200 {object} dto.MachineResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/coffee-machines/{id} [get]
func (r *Routers) GetMachine(c echo.Context) error {
	const op = "http.routers.GetMachine"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	var req request.ListRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	ctx := c.Request().Context()

	machine, err := r.MachineService.Get(ctx, id)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, r.machineResponse(ctx, machine, req.IncludeGallery))
}

// GetDesignImage godoc
// @Summary Фото машины для пары цветов
// @Tags api
// @Produce json
// @Param id path int true "ID машины"
// @Param frame_color query string true "Цвет каркаса"
// @Param insert_color query string true "Цвет вставки"
// @Success 200 {object} response.DesignImageResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/coffee-machines/{id}/design-image [get]
func (r *Routers) GetDesignImage(c echo.Context) error {
	const op = "http.routers.GetDesignImage"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	frameColor := c.QueryParam("frame_color")
	insertColor := c.QueryParam("insert_color")
	if frameColor == "" || insertColor == "" {
		return c.JSON(http.StatusBadRequest, response.Error("frame_color and insert_color are required"))
	}

	ctx := c.Request().Context()

	machine, err := r.MachineService.Get(ctx, id)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	url, ok := r.Media.ResolveDesignImage(ctx, machine, frameColor, insertColor)
	if !ok {
		return c.JSON(http.StatusNotFound, response.ErrDesignImageNotFound)
	}

	return c.JSON(http.StatusOK, response.DesignImageResponse{
		FrameColor:  frameColor,
		InsertColor: insertColor,
		URL:         url,
	})
}

// ListModels godoc
// @Summary Уникальные модели
// @Tags api
// @Produce json
// @Success 200 {array} string
// @Router /api/models [get]
func (r *Routers) ListModels(c echo.Context) error {
	const op = "http.routers.ListModels"

	log := r.log.With(slog.String("op", op))

	list, err := r.MachineService.Models(c.Request().Context())
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, list)
}

// ListSpecs godoc
// @Summary Характеристики
// @Tags api
// @Produce json
// @Param category query string false "Категория"
// @Success 200 {array} dto.SpecResponse
// @Router /api/specs [get]
func (r *Routers) ListSpecs(c echo.Context) error {
	const op = "http.routers.ListSpecs"

	log := r.log.With(slog.String("op", op))

	specs, err := r.SpecService.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, dto.NewSpecListResponse(specs))
}

// GetSpecByName godoc
// @Summary Характеристика по категории и имени
// @Tags api
// @Produce json
// @Param category query string true "Категория"
// @Param name query string true "Имя"
// @Success 200 {object} dto.SpecResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/specs/by-name [get]
func (r *Routers) GetSpecByName(c echo.Context) error {
	const op = "http.routers.GetSpecByName"

	log := r.log.With(slog.String("op", op))

	category := c.QueryParam("category")
	name := c.QueryParam("name")
	if category == "" || name == "" {
		return c.JSON(http.StatusBadRequest, response.Error("category and name are required"))
	}

	spec, err := r.SpecService.GetByName(c.Request().Context(), category, name)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, dto.NewSpecResponse(spec))
}

// GetSpec godoc
// @Summary Характеристика по id
// @Tags api
// @Produce json
// @Param id path int true "ID характеристики"
// @Success 200 {object} dto.SpecResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/specs/{id} [get]
func (r *Routers) GetSpec(c echo.Context) error {
	const op = "http.routers.GetSpec"

	log := r.log.With(slog.String("op", op))

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	spec, err := r.SpecService.Get(c.Request().Context(), id)
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, dto.NewSpecResponse(spec))
}

// SubmitLead godoc
// @Summary Заявка с конфигуратора
// @Description Сохраняет заявку и уведомляет Telegram. Сбой Telegram не отменяет заявку.
// @Tags api
// @Accept json
// @Produce json
// @Param request body dto.LeadRequest true "Заявка"
// @Success 200 {object} dto.LeadResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 429 {object} response.ErrorResponse
// @Router /api/lead [post]
func (r *Routers) SubmitLead(c echo.Context) error {
	const op = "http.routers.SubmitLead"

	log := r.log.With(slog.String("op", op))

	var req dto.LeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	req.Normalize()

	if err := c.Validate(req); err != nil {
		log.Debug("invalid lead", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	}

	lead, notified, err := r.LeadService.Submit(c.Request().Context(), req.ToDomain())
	if err != nil {
		return r.serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, dto.LeadResponse{
		Detail:   "ok",
		ID:       lead.ID,
		Notified: notified,
	})
}

// machineResponse подставляет ссылки из кеша медиа вместо исходных.
func (r *Routers) machineResponse(ctx context.Context, m *models.CoffeeMachine, includeGallery bool) dto.MachineResponse {
	resp := dto.NewMachineResponse(m)

	if r.Media == nil {
		return resp
	}

	if url, ok := r.Media.ResolveMain(ctx, m); ok {
		resp.MainImage = url
	}

	for frame, inserts := range resp.DesignImages {
		for insert, view := range inserts {
			if url, ok := r.Media.ResolveDesignImage(ctx, m, frame, insert); ok {
				view.MainImage = url
				inserts[insert] = view
			}
		}
	}

	if includeGallery && m.GalleryFolder != "" {
		resp.GalleryFiles = r.Media.ResolveGallery(ctx, m)
		if resp.GalleryFiles == nil {
			resp.GalleryFiles = []string{}
		}
	}

	return resp
}
