package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

const (
	specTable = "device_specs"

	uniqueViolation = "23505"
)

var specColumns = []string{
	"id",
	"category",
	"name",
	"COALESCE(title, '')",
	"COALESCE(specs_text, '')",
	"COALESCE(description, '')",
}

var specUpdatableFields = map[string]bool{
	"category":    true,
	"name":        true,
	"title":       true,
	"specs_text":  true,
	"description": true,
}

type SpecRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewSpecRepository(db *pgxpool.Pool) *SpecRepo {
	return &SpecRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListSpecs возвращает характеристики, при непустом category только этой категории.
func (r *SpecRepo) ListSpecs(ctx context.Context, category string) ([]models.DeviceSpec, error) {
	const op = "repository.spec_repository.ListSpecs"

	builder := r.sb.Select(specColumns...).
		From(specTable).
		OrderBy("category ASC", "name ASC")

	if category != "" {
		builder = builder.Where(sq.Eq{"category": category})
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

	specs := []models.DeviceSpec{}
	for rows.Next() {
		s, err := scanSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		specs = append(specs, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return specs, nil
}

func (r *SpecRepo) GetSpecByID(ctx context.Context, id int64) (*models.DeviceSpec, error) {
	const op = "repository.spec_repository.GetSpecByID"

	return r.getOne(ctx, op, sq.Eq{"id": id})
}

func (r *SpecRepo) GetSpecByName(ctx context.Context, category, name string) (*models.DeviceSpec, error) {
	const op = "repository.spec_repository.GetSpecByName"

	return r.getOne(ctx, op, sq.Eq{"category": category, "name": name})
}

func (r *SpecRepo) getOne(ctx context.Context, op string, where sq.Eq) (*models.DeviceSpec, error) {
	query, args, err := r.sb.Select(specColumns...).
		From(specTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	s, err := scanSpec(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSpecNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (r *SpecRepo) CreateSpec(ctx context.Context, spec models.DeviceSpec) (int64, error) {
	const op = "repository.spec_repository.CreateSpec"

	query, args, err := r.sb.Insert(specTable).
		Columns("category", "name", "title", "specs_text", "description").
		Values(
			spec.Category,
			spec.Name,
			nullString(spec.Title),
			nullString(spec.SpecsText),
			nullString(spec.Description),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrSpecExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *SpecRepo) UpdateSpecFields(ctx context.Context, id int64, updates map[string]interface{}) error {
	const op = "repository.spec_repository.UpdateSpecFields"

	if len(updates) == 0 {
		return fmt.Errorf("%s: no fields to update", op)
	}

	builder := r.sb.Update(specTable)

	for field, value := range updates {
		if !specUpdatableFields[field] {
			return fmt.Errorf("%s: field '%s' is not allowed for update", op, field)
		}

		if s, ok := value.(string); ok && field != "category" && field != "name" {
			builder = builder.Set(field, nullString(s))
			continue
		}
		builder = builder.Set(field, value)
	}

	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrSpecExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrSpecNotFound)
	}

	return nil
}

func (r *SpecRepo) DeleteSpec(ctx context.Context, id int64) error {
	const op = "repository.spec_repository.DeleteSpec"

	query, args, err := r.sb.Delete(specTable).
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
		return fmt.Errorf("%s: %w", op, storage.ErrSpecNotFound)
	}

	return nil
}

// DeleteSpecs удаляет характеристики по списку id и возвращает число удалённых строк.
func (r *SpecRepo) DeleteSpecs(ctx context.Context, ids []int64) (int64, error) {
	const op = "repository.spec_repository.DeleteSpecs"

	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := r.sb.Delete(specTable).
		Where(sq.Expr("id = ANY(?)", pq.Array(ids))).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return result.RowsAffected(), nil
}

func scanSpec(row pgx.Row) (*models.DeviceSpec, error) {
	var s models.DeviceSpec

	err := row.Scan(
		&s.ID,
		&s.Category,
		&s.Name,
		&s.Title,
		&s.SpecsText,
		&s.Description,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
