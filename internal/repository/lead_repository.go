package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"coffee_configurator/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4/pgxpool"
)

const leadTable = "leads"

type LeadRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewLeadRepository(db *pgxpool.Pool) *LeadRepo {
	return &LeadRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateLead сохраняет заявку и возвращает её id и время создания.
func (r *LeadRepo) CreateLead(ctx context.Context, lead models.Lead) (*models.Lead, error) {
	const op = "repository.lead_repository.CreateLead"

	var selection interface{}
	if len(lead.SelectionData) > 0 {
		data, err := json.Marshal(lead.SelectionData)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		selection = string(data)
	}

	query, args, err := r.sb.Insert(leadTable).
		Columns("name", "phone", "telegram", "email", "selection_data").
		Values(
			lead.Name,
			lead.Phone,
			nullString(lead.Telegram),
			nullString(lead.Email),
			selection,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	saved := lead
	if err := r.db.QueryRow(ctx, query, args...).Scan(&saved.ID, &saved.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &saved, nil
}

// ListLeads возвращает заявки, новые первыми; limit <= 0 означает "все".
func (r *LeadRepo) ListLeads(ctx context.Context, offset, limit int) ([]models.Lead, error) {
	const op = "repository.lead_repository.ListLeads"

	builder := r.sb.Select(
		"id",
		"name",
		"phone",
		"COALESCE(telegram, '')",
		"COALESCE(email, '')",
		"selection_data",
		"created_at",
	).
		From(leadTable).
		OrderBy("created_at DESC", "id DESC")

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

	leads := []models.Lead{}
	for rows.Next() {
		var (
			l         models.Lead
			selection []byte
		)

		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Telegram, &l.Email, &selection, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if len(selection) > 0 {
			if err := json.Unmarshal(selection, &l.SelectionData); err != nil {
				return nil, fmt.Errorf("%s: decode selection_data: %w", op, err)
			}
		}

		leads = append(leads, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return leads, nil
}
