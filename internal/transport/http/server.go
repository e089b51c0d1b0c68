package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"coffee_configurator/internal/clients/ozon"
	"coffee_configurator/internal/clients/seafile"
	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	importservice "coffee_configurator/internal/services/import_service"
	leadservice "coffee_configurator/internal/services/lead_service"
	machineservice "coffee_configurator/internal/services/machine_service"
	mediaservice "coffee_configurator/internal/services/media_service"
	specservice "coffee_configurator/internal/services/spec_service"
	"coffee_configurator/internal/storage"
	"coffee_configurator/internal/transport/http/dto"
	"coffee_configurator/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"

	_ "coffee_configurator/docs"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(token string) (string, error)
	AuthenticateBasic(username, password string) (string, error)
	SessionMaxAge() time.Duration
}

type MachineService interface {
	List(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error)
	ListAll(ctx context.Context) ([]models.CoffeeMachine, error)
	Get(ctx context.Context, id int64) (*models.CoffeeMachine, error)
	Models(ctx context.Context) ([]string, error)
	Create(ctx context.Context, form dto.MachineForm) (*models.CoffeeMachine, error)
	Update(ctx context.Context, id int64, form dto.MachineForm) (*models.CoffeeMachine, error)
	UpdateImages(ctx context.Context, id int64, form dto.ImagesUpdateForm) (*models.CoffeeMachine, error)
	Delete(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) (int, error)
	RefreshMedia(ctx context.Context, id int64) (mediaservice.CacheResult, error)
	SyncOzonPrice(ctx context.Context, id int64) (*ozon.Product, error)
}

type SpecService interface {
	List(ctx context.Context, category string) ([]models.DeviceSpec, error)
	Get(ctx context.Context, id int64) (*models.DeviceSpec, error)
	GetByName(ctx context.Context, category, name string) (*models.DeviceSpec, error)
	Create(ctx context.Context, form dto.SpecForm) (*models.DeviceSpec, error)
	Update(ctx context.Context, id int64, form dto.SpecForm) (*models.DeviceSpec, error)
	Delete(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) (int, error)
	AutoPopulate(ctx context.Context) (int, error)
}

type LeadService interface {
	Submit(ctx context.Context, lead models.Lead) (*models.Lead, bool, error)
	List(ctx context.Context, offset, limit int) ([]models.Lead, error)
}

type ImportService interface {
	Import(ctx context.Context, filename string, r io.Reader, updateExisting bool) (*models.ImportResult, error)
	Export(ctx context.Context, format string, w io.Writer) (string, string, error)
}

type MediaResolver interface {
	ResolveMain(ctx context.Context, m *models.CoffeeMachine) (string, bool)
	ResolveDesignImage(ctx context.Context, m *models.CoffeeMachine, frameColor, insertColor string) (string, bool)
	ResolveGallery(ctx context.Context, m *models.CoffeeMachine) []string
}

type SeafileBrowser interface {
	ListDirectory(ctx context.Context, path string) ([]seafile.Entry, error)
	FileDownloadLink(ctx context.Context, path string) (string, error)
}

type Routers struct {
	log            *slog.Logger
	cookieName     string
	AuthService    AuthService
	MachineService MachineService
	SpecService    SpecService
	LeadService    LeadService
	ImportService  ImportService
	Media          MediaResolver
	Seafile        SeafileBrowser
}

// NewRouter собирает обработчики. seafileBrowser может быть nil.
func NewRouter(
	log *slog.Logger,
	cookieName string,
	authService AuthService,
	machineService MachineService,
	specService SpecService,
	leadService LeadService,
	importService ImportService,
	media MediaResolver,
	seafileBrowser SeafileBrowser,
) *Routers {
	return &Routers{
		log:            log,
		cookieName:     cookieName,
		AuthService:    authService,
		MachineService: machineService,
		SpecService:    specService,
		LeadService:    leadService,
		ImportService:  importService,
		Media:          media,
		Seafile:        seafileBrowser,
	}
}

var ErrInvalidID = errors.New("not valid id")

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// errorStatus сопоставляет ошибки сервисов с HTTP-кодом и текстом ответа.
func errorStatus(err error) (int, response.ErrorResponse) {
	var businessErr *ozon.BusinessError

	switch {
	case errors.Is(err, storage.ErrMachineNotFound):
		return http.StatusNotFound, response.ErrMachineNotFound
	case errors.Is(err, storage.ErrSpecNotFound):
		return http.StatusNotFound, response.ErrSpecNotFound
	case errors.Is(err, storage.ErrSpecExists):
		return http.StatusConflict, response.ErrSpecExists
	case errors.Is(err, machineservice.ErrInvalidPrice):
		return http.StatusBadRequest, response.ErrInvalidPrice
	case errors.Is(err, importservice.ErrUnsupportedFormat):
		return http.StatusBadRequest, response.ErrUnsupportedImport
	case errors.Is(err, machineservice.ErrNameRequired),
		errors.Is(err, machineservice.ErrInvalidDesignImages),
		errors.Is(err, machineservice.ErrNoOzonLink),
		errors.Is(err, specservice.ErrCategoryRequired),
		errors.Is(err, specservice.ErrNameRequired),
		errors.Is(err, leadservice.ErrNameRequired),
		errors.Is(err, leadservice.ErrPhoneRequired),
		errors.Is(err, ozon.ErrNoOfferID):
		return http.StatusBadRequest, response.Error(rootMessage(err))
	case errors.Is(err, machineservice.ErrOzonNotConfigured):
		return http.StatusServiceUnavailable, response.ErrOzonNotConfigured
	case errors.Is(err, machineservice.ErrOzonProductNotFound),
		errors.Is(err, machineservice.ErrOzonPriceUnavailable):
		return http.StatusNotFound, response.Error(rootMessage(err))
	case errors.As(err, &businessErr):
		return http.StatusBadGateway, response.Error(businessErr.Error())
	case errors.Is(err, ozon.ErrUpstream):
		return http.StatusBadGateway, response.ErrOzonUnavailable
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// serviceError пишет ответ об ошибке; 5xx логируются.
func (r *Routers) serviceError(c echo.Context, log *slog.Logger, err error) error {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Debug("request rejected", slog.Int("status", status), sl.Err(err))
	}

	return c.JSON(status, body)
}

// rootMessage возвращает текст самой внутренней ошибки цепочки.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
