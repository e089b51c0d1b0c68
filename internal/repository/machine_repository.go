package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const machineTable = "coffee_machines"

var machineColumns = []string{
	"id",
	"name",
	"COALESCE(model, '')",
	"COALESCE(frame, '')",
	"COALESCE(frame_color, '')",
	"COALESCE(frame_design_color, '')",
	"COALESCE(refrigerator, '')",
	"COALESCE(terminal, '')",
	"price",
	"COALESCE(ozon_link, '')",
	"COALESCE(graphic_link, '')",
	"COALESCE(main_image, '')",
	"COALESCE(main_image_path, '')",
	"COALESCE(gallery_folder, '')",
	"COALESCE(description, '')",
	"design_images",
	"created_at",
	"updated_at",
}

// machineUpdatableFields — колонки, которые разрешено менять через UpdateMachineFields
var machineUpdatableFields = map[string]bool{
	"name":               true,
	"model":              true,
	"frame":              true,
	"frame_color":        true,
	"frame_design_color": true,
	"refrigerator":       true,
	"terminal":           true,
	"price":              true,
	"ozon_link":          true,
	"graphic_link":       true,
	"main_image":         true,
	"main_image_path":    true,
	"gallery_folder":     true,
	"description":        true,
	"design_images":      true,
}

// distinctExpressions — выражения для выборки уникальных значений атрибутов
var distinctExpressions = map[string]string{
	models.SpecCategoryCoffeeMachine: "COALESCE(NULLIF(model, ''), name)",
	models.SpecCategoryFrame:         "frame",
	models.SpecCategoryRefrigerator:  "refrigerator",
	models.SpecCategoryTerminal:      "terminal",
}

type MachineRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewMachineRepository(db *pgxpool.Pool) *MachineRepo {
	return &MachineRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListMachines возвращает машины по возрастанию id; limit <= 0 означает "все".
func (r *MachineRepo) ListMachines(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error) {
	const op = "repository.machine_repository.ListMachines"

	builder := r.sb.Select(machineColumns...).
		From(machineTable).
		OrderBy("id ASC")

	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	machines := []models.CoffeeMachine{}
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		machines = append(machines, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return machines, nil
}

func (r *MachineRepo) GetMachineByID(ctx context.Context, id int64) (*models.CoffeeMachine, error) {
	const op = "repository.machine_repository.GetMachineByID"

	query, args, err := r.sb.Select(machineColumns...).
		From(machineTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	m, err := scanMachine(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMachineNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

// FindMachineBySignature ищет первую машину с совпадающей сигнатурой; NULL и "" считаются равными.
func (r *MachineRepo) FindMachineBySignature(ctx context.Context, sig models.Signature) (*models.CoffeeMachine, error) {
	const op = "repository.machine_repository.FindMachineBySignature"

	query, args, err := r.sb.Select(machineColumns...).
		From(machineTable).
		Where(sq.And{
			sq.Expr("COALESCE(model, '') = ?", sig.Model),
			sq.Expr("COALESCE(frame, '') = ?", sig.Frame),
			sq.Expr("COALESCE(frame_color, '') = ?", sig.FrameColor),
			sq.Expr("COALESCE(refrigerator, '') = ?", sig.Refrigerator),
			sq.Expr("COALESCE(terminal, '') = ?", sig.Terminal),
		}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	m, err := scanMachine(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrMachineNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (r *MachineRepo) CreateMachine(ctx context.Context, m models.CoffeeMachine) (int64, error) {
	const op = "repository.machine_repository.CreateMachine"

	designImages, err := designImagesArg(m.DesignImages)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Insert(machineTable).
		Columns(
			"name",
			"model",
			"frame",
			"frame_color",
			"frame_design_color",
			"refrigerator",
			"terminal",
			"price",
			"ozon_link",
			"graphic_link",
			"main_image",
			"main_image_path",
			"gallery_folder",
			"description",
			"design_images",
		).
		Values(
			m.Name,
			nullString(m.Model),
			nullString(m.Frame),
			nullString(m.FrameColor),
			nullString(m.FrameDesignColor),
			nullString(m.Refrigerator),
			nullString(m.Terminal),
			m.Price,
			nullString(m.OzonLink),
			nullString(m.GraphicLink),
			nullString(m.MainImage),
			nullString(m.MainImagePath),
			nullString(m.GalleryFolder),
			nullString(m.Description),
			designImages,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdateMachineFields обновляет только переданные колонки. Пустые строки пишутся как NULL.
func (r *MachineRepo) UpdateMachineFields(ctx context.Context, id int64, updates map[string]interface{}) error {
	const op = "repository.machine_repository.UpdateMachineFields"

	if len(updates) == 0 {
		return fmt.Errorf("%s: no fields to update", op)
	}

	builder := r.sb.Update(machineTable).
		Set("updated_at", sq.Expr("NOW()"))

	for field, value := range updates {
		if !machineUpdatableFields[field] {
			return fmt.Errorf("%s: field '%s' is not allowed for update", op, field)
		}

		switch v := value.(type) {
		case string:
			if field == "name" {
				builder = builder.Set(field, v)
			} else {
				builder = builder.Set(field, nullString(v))
			}
		case models.DesignImages:
			arg, err := designImagesArg(v)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			builder = builder.Set(field, arg)
		default:
			builder = builder.Set(field, value)
		}
	}

	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrMachineNotFound)
	}

	return nil
}

func (r *MachineRepo) DeleteMachine(ctx context.Context, id int64) error {
	const op = "repository.machine_repository.DeleteMachine"

	query, args, err := r.sb.Delete(machineTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrMachineNotFound)
	}

	return nil
}

// DeleteMachines удаляет машины по списку id и возвращает id реально удалённых.
func (r *MachineRepo) DeleteMachines(ctx context.Context, ids []int64) ([]int64, error) {
	const op = "repository.machine_repository.DeleteMachines"

	if len(ids) == 0 {
		return []int64{}, nil
	}

	query, args, err := r.sb.Delete(machineTable).
		Where(sq.Expr("id = ANY(?)", pq.Array(ids))).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	deleted := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deleted = append(deleted, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return deleted, nil
}

// DistinctModels возвращает отсортированный список непустых моделей.
func (r *MachineRepo) DistinctModels(ctx context.Context) ([]string, error) {
	const op = "repository.machine_repository.DistinctModels"

	values, err := r.distinct(ctx, "model")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return values, nil
}

// DistinctValues возвращает уникальные значения атрибута, соответствующего категории характеристик.
func (r *MachineRepo) DistinctValues(ctx context.Context, category string) ([]string, error) {
	const op = "repository.machine_repository.DistinctValues"

	expr, ok := distinctExpressions[category]
	if !ok {
		return nil, fmt.Errorf("%s: unknown category '%s'", op, category)
	}

	values, err := r.distinct(ctx, expr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return values, nil
}

func (r *MachineRepo) distinct(ctx context.Context, expr string) ([]string, error) {
	query, args, err := r.sb.Select("DISTINCT " + expr + " AS v").
		From(machineTable).
		Where(sq.Expr(expr + " IS NOT NULL")).
		Where(sq.Expr("TRIM(" + expr + ") <> ''")).
		OrderBy("v").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build sql:%w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

func scanMachine(row pgx.Row) (*models.CoffeeMachine, error) {
	var (
		m            models.CoffeeMachine
		price        decimal.NullDecimal
		designImages []byte
	)

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Model,
		&m.Frame,
		&m.FrameColor,
		&m.FrameDesignColor,
		&m.Refrigerator,
		&m.Terminal,
		&price,
		&m.OzonLink,
		&m.GraphicLink,
		&m.MainImage,
		&m.MainImagePath,
		&m.GalleryFolder,
		&m.Description,
		&designImages,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Price = price

	if err := m.DesignImages.Scan(designImages); err != nil {
		return nil, fmt.Errorf("decode design_images: %w", err)
	}

	return &m, nil
}

func designImagesArg(d models.DesignImages) (interface{}, error) {
	if len(d) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

func nullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return s
}
