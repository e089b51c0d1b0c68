package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/repository"
	"coffee_configurator/internal/storage"
	"coffee_configurator/internal/transport/http/dto"
)

var (
	ErrCategoryRequired = errors.New("category is required")
	ErrNameRequired     = errors.New("name is required")
)

// autoPopulateCategories — категории, которые заполняются из атрибутов машин
var autoPopulateCategories = []string{
	models.SpecCategoryCoffeeMachine,
	models.SpecCategoryFrame,
	models.SpecCategoryRefrigerator,
	models.SpecCategoryTerminal,
}

// skipValues — значения атрибутов, которые не становятся характеристиками
var skipValues = map[string]bool{
	"да":   true,
	"нет":  true,
	"-":    true,
	"none": true,
	"":     true,
}

// ValueSource отдаёт уникальные значения атрибута машин по категории.
type ValueSource interface {
	DistinctValues(ctx context.Context, category string) ([]string, error)
}

type SpecService struct {
	log    *slog.Logger
	repo   repository.SpecRepository
	values ValueSource
}

func NewSpecService(log *slog.Logger, repo repository.SpecRepository, values ValueSource) *SpecService {
	return &SpecService{
		log:    log,
		repo:   repo,
		values: values,
	}
}

func (s *SpecService) List(ctx context.Context, category string) ([]models.DeviceSpec, error) {
	const op = "spec_service.List"

	specs, err := s.repo.ListSpecs(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return specs, nil
}

func (s *SpecService) Get(ctx context.Context, id int64) (*models.DeviceSpec, error) {
	const op = "spec_service.Get"

	spec, err := s.repo.GetSpecByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return spec, nil
}

func (s *SpecService) GetByName(ctx context.Context, category, name string) (*models.DeviceSpec, error) {
	const op = "spec_service.GetByName"

	spec, err := s.repo.GetSpecByName(ctx, category, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return spec, nil
}

// Create создаёт характеристику; title совпадает с name.
func (s *SpecService) Create(ctx context.Context, form dto.SpecForm) (*models.DeviceSpec, error) {
	const op = "spec_service.Create"

	log := s.log.With(slog.String("op", op))

	category := deref(form.Category)
	if category == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrCategoryRequired)
	}

	name := deref(form.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNameRequired)
	}

	spec := models.DeviceSpec{
		Category:  category,
		Name:      name,
		Title:     name,
		SpecsText: deref(form.SpecsText),
	}

	id, err := s.repo.CreateSpec(ctx, spec)
	if err != nil {
		if !errors.Is(err, storage.ErrSpecExists) {
			log.Error("failed to create spec", sl.Err(err))
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}
	spec.ID = id

	log.Info("spec created", slog.Int64("id", id), slog.String("category", category))

	return &spec, nil
}

// Update меняет только переданные поля; новое имя становится и заголовком.
// Пустые имя или категория отклоняются.
func (s *SpecService) Update(ctx context.Context, id int64, form dto.SpecForm) (*models.DeviceSpec, error) {
	const op = "spec_service.Update"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("id", id),
	)

	updates := make(map[string]interface{}, 4)
	if form.Category != nil {
		category := strings.TrimSpace(*form.Category)
		if category == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrCategoryRequired)
		}
		updates["category"] = category
	}
	if form.Name != nil {
		name := strings.TrimSpace(*form.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrNameRequired)
		}
		updates["name"] = name
		updates["title"] = name
	}
	if form.SpecsText != nil {
		updates["specs_text"] = *form.SpecsText
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateSpecFields(ctx, id, updates); err != nil {
			if !errors.Is(err, storage.ErrSpecNotFound) && !errors.Is(err, storage.ErrSpecExists) {
				log.Error("failed to update spec", sl.Err(err))
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	spec, err := s.repo.GetSpecByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return spec, nil
}

func (s *SpecService) Delete(ctx context.Context, id int64) error {
	const op = "spec_service.Delete"

	if err := s.repo.DeleteSpec(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("spec deleted", slog.String("op", op), slog.Int64("id", id))

	return nil
}

func (s *SpecService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	const op = "spec_service.BulkDelete"

	if len(ids) == 0 {
		return 0, nil
	}

	deleted, err := s.repo.DeleteSpecs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("specs deleted",
		slog.String("op", op),
		slog.Int("requested", len(ids)),
		slog.Int64("deleted", deleted),
	)

	return int(deleted), nil
}

// AutoPopulate создаёт недостающие характеристики из уникальных значений
// атрибутов машин и возвращает число созданных.
func (s *SpecService) AutoPopulate(ctx context.Context) (int, error) {
	const op = "spec_service.AutoPopulate"

	log := s.log.With(slog.String("op", op))

	created := 0

	for _, category := range autoPopulateCategories {
		values, err := s.values.DistinctValues(ctx, category)
		if err != nil {
			log.Error("failed to load values", slog.String("category", category), sl.Err(err))

			return created, fmt.Errorf("%s: %w", op, err)
		}

		seen := make(map[string]bool, len(values))

		for _, raw := range values {
			value := strings.TrimSpace(raw)
			if skipValues[strings.ToLower(value)] || seen[value] {
				continue
			}
			seen[value] = true

			_, err := s.repo.GetSpecByName(ctx, category, value)
			if err == nil {
				continue
			}
			if !errors.Is(err, storage.ErrSpecNotFound) {
				return created, fmt.Errorf("%s: %w", op, err)
			}

			_, err = s.repo.CreateSpec(ctx, models.DeviceSpec{
				Category: category,
				Name:     value,
				Title:    value,
			})
			if err != nil {
				if errors.Is(err, storage.ErrSpecExists) {
					continue
				}

				return created, fmt.Errorf("%s: %w", op, err)
			}

			created++
		}
	}

	log.Info("specs generated", slog.Int("created", created))

	return created, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return strings.TrimSpace(*s)
}
