package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coffee_configurator/internal/clients/ozon"
	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/metrics"
	"coffee_configurator/internal/repository"
	mediaservice "coffee_configurator/internal/services/media_service"
	"coffee_configurator/internal/storage"
	"coffee_configurator/internal/transport/http/dto"

	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 100
	DefaultPriceTTL  = time.Hour

	priceKey = "ozon:price:"
)

var (
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidPrice         = errors.New("invalid price value")
	ErrInvalidDesignImages  = errors.New("design_images must be a JSON object")
	ErrOzonNotConfigured    = errors.New("ozon is not configured")
	ErrNoOzonLink           = errors.New("machine has no ozon link")
	ErrOzonProductNotFound  = errors.New("ozon product not found")
	ErrOzonPriceUnavailable = errors.New("ozon product has no price")
)

type MediaCache interface {
	CacheMachineMedia(ctx context.Context, m *models.CoffeeMachine) mediaservice.CacheResult
	ClearMachineCache(id int64) error
}

type PriceClient interface {
	PriceByURL(ctx context.Context, url string) (*ozon.Product, error)
}

type MachineService struct {
	log      *slog.Logger
	repo     repository.MachineRepository
	media    MediaCache
	prices   PriceClient
	cache    repository.CacheRepository
	priceTTL time.Duration
}

// NewMachineService создаёт сервис машин. prices и cache могут быть nil.
func NewMachineService(
	log *slog.Logger,
	repo repository.MachineRepository,
	media MediaCache,
	prices PriceClient,
	cache repository.CacheRepository,
	priceTTL time.Duration,
) *MachineService {
	if priceTTL <= 0 {
		priceTTL = DefaultPriceTTL
	}

	return &MachineService{
		log:      log,
		repo:     repo,
		media:    media,
		prices:   prices,
		cache:    cache,
		priceTTL: priceTTL,
	}
}

// List возвращает машины; limit <= 0 означает значение по умолчанию.
func (s *MachineService) List(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error) {
	const op = "machine_service.List"

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	machines, err := s.repo.ListMachines(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return machines, nil
}

// ListAll возвращает весь каталог (админка, экспорт, CLI).
func (s *MachineService) ListAll(ctx context.Context) ([]models.CoffeeMachine, error) {
	const op = "machine_service.ListAll"

	machines, err := s.repo.ListMachines(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return machines, nil
}

func (s *MachineService) Get(ctx context.Context, id int64) (*models.CoffeeMachine, error) {
	const op = "machine_service.Get"

	m, err := s.repo.GetMachineByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (s *MachineService) Models(ctx context.Context) ([]string, error) {
	const op = "machine_service.Models"

	list, err := s.repo.DistinctModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Create создаёт машину из формы и сразу наполняет кеш медиа.
func (s *MachineService) Create(ctx context.Context, form dto.MachineForm) (*models.CoffeeMachine, error) {
	const op = "machine_service.Create"

	log := s.log.With(slog.String("op", op))

	if form.Name == nil || strings.TrimSpace(*form.Name) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNameRequired)
	}

	price, err := parsePrice(form.Price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	designImages, err := parseDesignImages(form.DesignImages)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := models.CoffeeMachine{
		Name:             strings.TrimSpace(*form.Name),
		Model:            deref(form.Model),
		Frame:            deref(form.Frame),
		FrameColor:       deref(form.FrameColor),
		FrameDesignColor: deref(form.FrameDesignColor),
		Refrigerator:     deref(form.Refrigerator),
		Terminal:         deref(form.Terminal),
		Price:            price,
		OzonLink:         deref(form.OzonLink),
		GraphicLink:      deref(form.GraphicLink),
		MainImage:        deref(form.MainImage),
		MainImagePath:    deref(form.MainImagePath),
		GalleryFolder:    deref(form.GalleryFolder),
		Description:      deref(form.Description),
		DesignImages:     designImages,
	}

	if form.ClearMainImage {
		m.MainImage = ""
		m.MainImagePath = ""
	}
	if form.ClearMainImagePath {
		m.MainImagePath = ""
	}
	if form.ClearGalleryFolder {
		m.GalleryFolder = ""
	}

	id, err := s.repo.CreateMachine(ctx, m)
	if err != nil {
		log.Error("failed to create machine", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.GetMachineByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.recache(ctx, created)

	log.Info("machine created", slog.Int64("id", id))

	return created, nil
}

// Update применяет форму: пустые строки не меняют поле, флаги clear_* очищают.
func (s *MachineService) Update(ctx context.Context, id int64, form dto.MachineForm) (*models.CoffeeMachine, error) {
	const op = "machine_service.Update"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	updates := make(map[string]interface{})

	for field, value := range form.TextFields() {
		if value == nil || *value == "" {
			continue
		}
		updates[field] = *value
	}

	if form.ClearMainImage {
		updates["main_image"] = ""
	}
	if form.ClearMainImage || form.ClearMainImagePath {
		updates["main_image_path"] = ""
	}
	if form.ClearGalleryFolder {
		updates["gallery_folder"] = ""
	}

	if form.Price != nil && strings.TrimSpace(*form.Price) != "" {
		price, err := parsePrice(form.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["price"] = price
	}

	if form.DesignImages != nil && strings.TrimSpace(*form.DesignImages) != "" {
		designImages, err := parseDesignImages(form.DesignImages)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updates["design_images"] = designImages
	}

	return s.applyUpdates(ctx, log, op, id, updates)
}

// UpdateImages меняет только переданные поля изображений.
func (s *MachineService) UpdateImages(ctx context.Context, id int64, form dto.ImagesUpdateForm) (*models.CoffeeMachine, error) {
	const op = "machine_service.UpdateImages"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	updates := make(map[string]interface{}, 3)
	if form.MainImage != nil {
		updates["main_image"] = *form.MainImage
	}
	if form.MainImagePath != nil {
		updates["main_image_path"] = *form.MainImagePath
	}
	if form.GalleryFolder != nil {
		updates["gallery_folder"] = *form.GalleryFolder
	}

	return s.applyUpdates(ctx, log, op, id, updates)
}

func (s *MachineService) applyUpdates(ctx context.Context, log *slog.Logger, op string, id int64, updates map[string]interface{}) (*models.CoffeeMachine, error) {
	if len(updates) > 0 {
		if err := s.repo.UpdateMachineFields(ctx, id, updates); err != nil {
			if !errors.Is(err, storage.ErrMachineNotFound) {
				log.Error("failed to update machine", sl.Err(err))
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated, err := s.repo.GetMachineByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.recache(ctx, updated)

	log.Info("machine updated", slog.Int("fields", len(updates)))

	return updated, nil
}

// Delete удаляет машину и её каталог в кеше медиа.
func (s *MachineService) Delete(ctx context.Context, id int64) error {
	const op = "machine_service.Delete"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	if err := s.repo.DeleteMachine(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.purge(log, id)

	log.Info("machine deleted")

	return nil
}

// BulkDelete удаляет найденные машины и возвращает число удалённых.
func (s *MachineService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	const op = "machine_service.BulkDelete"

	log := s.log.With(slog.String("op", op))

	if len(ids) == 0 {
		return 0, nil
	}

	deleted, err := s.repo.DeleteMachines(ctx, ids)
	if err != nil {
		log.Error("failed to delete machines", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, id := range deleted {
		s.purge(log, id)
	}

	log.Info("machines deleted",
		slog.Int("requested", len(ids)),
		slog.Int("deleted", len(deleted)),
	)

	return len(deleted), nil
}

// RefreshMedia перекачивает медиа машины. Если главное фото получить не
// удалось, первым файлом галереи становится main_image.
func (s *MachineService) RefreshMedia(ctx context.Context, id int64) (mediaservice.CacheResult, error) {
	const op = "machine_service.RefreshMedia"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	m, err := s.repo.GetMachineByID(ctx, id)
	if err != nil {
		return mediaservice.CacheResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result := s.media.CacheMachineMedia(ctx, m)

	if result.Main == "" && len(result.Gallery) > 0 {
		result.Main = result.Gallery[0]

		if err := s.repo.UpdateMachineFields(ctx, id, map[string]interface{}{"main_image": result.Main}); err != nil {
			log.Error("failed to set main image from gallery", sl.Err(err))

			return result, fmt.Errorf("%s: %w", op, err)
		}

		log.Info("main image taken from gallery", slog.String("main_image", result.Main))
	}

	return result, nil
}

// RefreshAllMedia обновляет кеш всех машин; ошибки отдельных машин логируются.
func (s *MachineService) RefreshAllMedia(ctx context.Context) (int, error) {
	const op = "machine_service.RefreshAllMedia"

	log := s.log.With(slog.String("op", op))

	machines, err := s.repo.ListMachines(ctx, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	refreshed := 0
	for i := range machines {
		if err := ctx.Err(); err != nil {
			return refreshed, fmt.Errorf("%s: %w", op, err)
		}

		if _, err := s.RefreshMedia(ctx, machines[i].ID); err != nil {
			log.Warn("refresh failed", slog.Int64("id", machines[i].ID), sl.Err(err))
			continue
		}
		refreshed++
	}

	log.Info("media refreshed", slog.Int("machines", len(machines)), slog.Int("refreshed", refreshed))

	return refreshed, nil
}

// SyncOzonPrice подтягивает цену из Ozon по ozon_link и сохраняет её.
func (s *MachineService) SyncOzonPrice(ctx context.Context, id int64) (*ozon.Product, error) {
	const op = "machine_service.SyncOzonPrice"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	if s.prices == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrOzonNotConfigured)
	}

	m, err := s.repo.GetMachineByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if m.OzonLink == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoOzonLink)
	}

	product, err := s.ozonProduct(ctx, m.OzonLink)
	if err != nil {
		metrics.ExternalCallFailures.WithLabelValues("ozon").Inc()
		log.Warn("ozon lookup failed", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !product.Price.Valid {
		return product, fmt.Errorf("%s: %w", op, ErrOzonPriceUnavailable)
	}

	if err := s.repo.UpdateMachineFields(ctx, id, map[string]interface{}{"price": product.Price}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("price synced", slog.String("price", product.Price.Decimal.String()))

	return product, nil
}

// SyncAllPrices обновляет цены всех машин со ссылкой на Ozon.
func (s *MachineService) SyncAllPrices(ctx context.Context) (int, error) {
	const op = "machine_service.SyncAllPrices"

	log := s.log.With(slog.String("op", op))

	if s.prices == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrOzonNotConfigured)
	}

	machines, err := s.repo.ListMachines(ctx, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	synced := 0
	for i := range machines {
		if machines[i].OzonLink == "" {
			continue
		}

		if _, err := s.SyncOzonPrice(ctx, machines[i].ID); err != nil {
			log.Warn("price not synced", slog.Int64("id", machines[i].ID), sl.Err(err))
			continue
		}
		synced++
	}

	return synced, nil
}

// ozonProduct ищет товар, цена кешируется в KV на priceTTL.
func (s *MachineService) ozonProduct(ctx context.Context, link string) (*ozon.Product, error) {
	offerID, ok := ozon.ExtractOfferID(link)
	if !ok {
		return nil, ozon.ErrNoOfferID
	}

	key := priceKey + offerID

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached ozon.Product
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	product, err := s.prices.PriceByURL(ctx, link)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrOzonProductNotFound
	}

	if s.cache != nil {
		if raw, err := json.Marshal(product); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.priceTTL); err != nil {
				s.log.Warn("failed to cache ozon price", slog.String("offer_id", offerID), sl.Err(err))
			}
		}
	}

	return product, nil
}

func (s *MachineService) recache(ctx context.Context, m *models.CoffeeMachine) {
	if s.media == nil {
		return
	}

	s.media.CacheMachineMedia(ctx, m)
}

func (s *MachineService) purge(log *slog.Logger, id int64) {
	if s.media == nil {
		return
	}

	if err := s.media.ClearMachineCache(id); err != nil {
		log.Warn("failed to clear media cache", slog.Int64("id", id), sl.Err(err))
	}
}

func parsePrice(raw *string) (decimal.NullDecimal, error) {
	if raw == nil {
		return decimal.NullDecimal{}, nil
	}

	value := strings.Join(strings.Fields(*raw), "")
	value = strings.ReplaceAll(value, ",", ".")
	if value == "" {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, ErrInvalidPrice
	}

	return decimal.NewNullDecimal(d), nil
}

func parseDesignImages(raw *string) (models.DesignImages, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	var d models.DesignImages
	if err := json.Unmarshal([]byte(*raw), &d); err != nil {
		return nil, ErrInvalidDesignImages
	}

	return d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return strings.TrimSpace(*s)
}
