package postgresql

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
)

type Storage struct {
	db *pgxpool.Pool
}

const (
	// tables
	machineTable = "coffee_machines"
	specTable    = "device_specs"
	leadTable    = "leads"
)

// schema применяется идемпотентно при каждом старте.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS coffee_machines (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		model VARCHAR(100),
		frame VARCHAR(100),
		frame_color VARCHAR(100),
		refrigerator VARCHAR(100),
		terminal VARCHAR(100),
		price NUMERIC(12, 2),
		ozon_link VARCHAR(500),
		graphic_link VARCHAR(500),
		main_image VARCHAR(500),
		gallery_folder VARCHAR(500),
		description TEXT
	)`,
	`ALTER TABLE coffee_machines ADD COLUMN IF NOT EXISTS main_image_path VARCHAR(500)`,
	`ALTER TABLE coffee_machines ADD COLUMN IF NOT EXISTS frame_design_color VARCHAR(100)`,
	`ALTER TABLE coffee_machines ADD COLUMN IF NOT EXISTS design_images JSONB`,
	`ALTER TABLE coffee_machines ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
	`ALTER TABLE coffee_machines ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
	`CREATE INDEX IF NOT EXISTS idx_coffee_machines_model ON coffee_machines (model)`,
	`CREATE TABLE IF NOT EXISTS device_specs (
		id SERIAL PRIMARY KEY,
		category VARCHAR(100) NOT NULL,
		name VARCHAR(255) NOT NULL,
		title VARCHAR(255),
		specs_text TEXT,
		description TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_device_specs_category_name ON device_specs (category, name)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(50) NOT NULL,
		telegram VARCHAR(255),
		email VARCHAR(255),
		selection_data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func New(ctx context.Context, storagePath string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := pgxpool.Connect(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		db: db,
	}, nil
}

// NewFromPool оборачивает уже открытый пул.
func NewFromPool(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

func (s *Storage) DB() *pgxpool.Pool {
	return s.db
}

func (s *Storage) Stop() {
	s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Migrate создаёт таблицы и добавляет недостающие колонки.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgresql.Migrate"

	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

type seedMachine struct {
	name, model, frame, frameColor, refrigerator, terminal string
	price                                                  int64
	ozonLink, graphicLink, mainImage, galleryFolder, descr string
}

var seedMachines = []seedMachine{
	{
		name: "CM-100", model: "CM-100", frame: "Metal", frameColor: "Black", refrigerator: "Yes", terminal: "PAX",
		price:    120000,
		ozonLink: "https://example.com/ozon/cm-100", graphicLink: "https://example.com/graphics/cm-100.png",
		mainImage: "https://example.com/images/cm-100-main.jpg", galleryFolder: "/gallery/cm-100",
		descr: "Entry-level coffee machine.",
	},
	{
		name: "CM-200", model: "CM-200", frame: "Metal", frameColor: "Silver", refrigerator: "Yes", terminal: "Ingenico",
		price:    150000,
		ozonLink: "https://example.com/ozon/cm-200", graphicLink: "https://example.com/graphics/cm-200.png",
		mainImage: "https://example.com/images/cm-200-main.jpg", galleryFolder: "/gallery/cm-200",
		descr: "Mid-tier machine with larger hopper.",
	},
}

// Seed добавляет демо-записи, только если таблица пуста. Возвращает число вставленных строк.
func (s *Storage) Seed(ctx context.Context) (int, error) {
	const op = "storage.postgresql.Seed"

	var count int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+machineTable).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if count > 0 {
		return 0, nil
	}

	builder := sq.Insert(machineTable).Columns(
		"name",
		"model",
		"frame",
		"frame_color",
		"refrigerator",
		"terminal",
		"price",
		"ozon_link",
		"graphic_link",
		"main_image",
		"gallery_folder",
		"description",
	)

	for _, m := range seedMachines {
		builder = builder.Values(
			m.name, m.model, m.frame, m.frameColor, m.refrigerator, m.terminal,
			decimal.NewFromInt(m.price),
			m.ozonLink, m.graphicLink, m.mainImage, m.galleryFolder, m.descr,
		)
	}

	query, args, err := builder.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql:%w", op, err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return len(seedMachines), nil
}
