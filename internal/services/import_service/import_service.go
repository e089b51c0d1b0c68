package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/metrics"
	"coffee_configurator/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportSheet = "coffee_machines"
	headerFill  = "FFD3E0"
)

var (
	ErrUnsupportedFormat = errors.New("only CSV or XLSX files are supported")
)

type MachineStore interface {
	ListMachines(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error)
	FindMachineBySignature(ctx context.Context, sig models.Signature) (*models.CoffeeMachine, error)
	CreateMachine(ctx context.Context, m models.CoffeeMachine) (int64, error)
	UpdateMachineFields(ctx context.Context, id int64, updates map[string]interface{}) error
}

type ImportService struct {
	log  *slog.Logger
	repo MachineStore
}

func NewImportService(log *slog.Logger, repo MachineStore) *ImportService {
	return &ImportService{
		log:  log,
		repo: repo,
	}
}

// FormatFromFilename определяет формат по расширению файла.
func FormatFromFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Import читает CSV/XLSX и создаёт или обновляет машины построчно.
// Ошибка отдельной строки не прерывает импорт.
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader, updateExisting bool) (*models.ImportResult, error) {
	const op = "import_service.Import"

	log := s.log.With(
		slog.String("op", op),
		slog.String("filename", filename),
		slog.Bool("update_existing", updateExisting),
	)

	format, err := FormatFromFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []map[string]string
	switch format {
	case FormatCSV:
		rows, err = ReadCSV(r)
	case FormatXLSX:
		rows, err = ReadXLSX(r)
	}
	if err != nil {
		log.Error("failed to read import file", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.ImportResult{}

	for i, raw := range rows {
		rowNum := i + 2

		row, ok := prepareRow(raw)
		if !ok {
			continue
		}

		updated, err := s.importRow(ctx, row, updateExisting)
		if err != nil {
			log.Warn("row skipped", slog.Int("row", rowNum), sl.Err(err))
			result.Skipped++
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNum, Error: err.Error()})
			metrics.ImportedRows.WithLabelValues("skipped").Inc()
			continue
		}

		if updated {
			result.Updated++
			metrics.ImportedRows.WithLabelValues("updated").Inc()
		} else {
			result.Created++
			metrics.ImportedRows.WithLabelValues("created").Inc()
		}
	}

	log.Info("import finished",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
	)

	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, row preparedRow, updateExisting bool) (bool, error) {
	if updateExisting && row.fields["model"] != "" {
		sig := models.Signature{
			Model:        row.fields["model"],
			Frame:        row.fields["frame"],
			FrameColor:   row.fields["frame_color"],
			Refrigerator: row.fields["refrigerator"],
			Terminal:     row.fields["terminal"],
		}

		existing, err := s.repo.FindMachineBySignature(ctx, sig)
		switch {
		case err == nil:
			updates := make(map[string]interface{}, len(row.fields)+1)
			for k, v := range row.fields {
				updates[k] = v
			}
			if row.price.Valid {
				updates["price"] = row.price
			}

			if err := s.repo.UpdateMachineFields(ctx, existing.ID, updates); err != nil {
				return false, err
			}
			return true, nil
		case !errors.Is(err, storage.ErrMachineNotFound):
			return false, err
		}
	}

	m := models.CoffeeMachine{
		Name:             row.fields["name"],
		Model:            row.fields["model"],
		Frame:            row.fields["frame"],
		FrameColor:       row.fields["frame_color"],
		FrameDesignColor: row.fields["frame_design_color"],
		Refrigerator:     row.fields["refrigerator"],
		Terminal:         row.fields["terminal"],
		Price:            row.price,
		OzonLink:         row.fields["ozon_link"],
		GraphicLink:      row.fields["graphic_link"],
		MainImage:        row.fields["main_image"],
		MainImagePath:    row.fields["main_image_path"],
		GalleryFolder:    row.fields["gallery_folder"],
		Description:      row.fields["description"],
	}

	if _, err := s.repo.CreateMachine(ctx, m); err != nil {
		return false, err
	}

	return false, nil
}

// ReadCSV читает CSV (UTF-8, BOM допускается) в строки "заголовок -> значение".
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return recordsToRows(records), nil
}

// ReadXLSX читает первый лист книги; первая строка — заголовок.
func ReadXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []map[string]string{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}

	return recordsToRows(records), nil
}

func recordsToRows(records [][]string) []map[string]string {
	rows := []map[string]string{}
	if len(records) == 0 {
		return rows
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(record) {
				continue
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}

	return rows
}

// Export пишет все машины в w и возвращает content-type и имя файла.
func (s *ImportService) Export(ctx context.Context, format string, w io.Writer) (string, string, error) {
	const op = "import_service.Export"

	log := s.log.With(
		slog.String("op", op),
		slog.String("format", format),
	)

	machines, err := s.repo.ListMachines(ctx, 0, 0)
	if err != nil {
		log.Error("failed to list machines", sl.Err(err))

		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	switch format {
	case FormatCSV, "":
		if err := WriteCSV(w, machines); err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		return ContentTypeCSV, "coffee_machines.csv", nil
	case FormatXLSX:
		if err := WriteXLSX(w, machines); err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
		return ContentTypeXLSX, "coffee_machines.xlsx", nil
	default:
		return "", "", fmt.Errorf("%s: %w", op, ErrUnsupportedFormat)
	}
}

func WriteCSV(w io.Writer, machines []models.CoffeeMachine) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(exportHeaders))
	for _, h := range exportHeaders {
		header = append(header, h.Header)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range machines {
		if err := writer.Write(exportRow(&machines[i])); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

func WriteXLSX(w io.Writer, machines []models.CoffeeMachine) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(exportHeaders))
	for _, h := range exportHeaders {
		header = append(header, h.Header)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	lastCell, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCell, style); err != nil {
		return err
	}

	for i, h := range exportHeaders {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, col, col, h.Width); err != nil {
			return err
		}
	}

	for i := range machines {
		values := exportRow(&machines[i])

		row := make([]interface{}, 0, len(values))
		for j, v := range values {
			if exportHeaders[j].Field == "price" && machines[i].Price.Valid {
				row = append(row, machines[i].Price.Decimal.InexactFloat64())
				continue
			}
			row = append(row, v)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

func exportRow(m *models.CoffeeMachine) []string {
	row := make([]string, 0, len(exportHeaders))

	for _, h := range exportHeaders {
		row = append(row, fieldValue(m, h.Field))
	}

	return row
}

func fieldValue(m *models.CoffeeMachine, field string) string {
	switch field {
	case "model":
		return m.Model
	case "frame":
		return m.Frame
	case "frame_color":
		return m.FrameColor
	case "frame_design_color":
		return m.FrameDesignColor
	case "refrigerator":
		return m.Refrigerator
	case "terminal":
		return m.Terminal
	case "price":
		return formatPrice(m.Price)
	case "ozon_link":
		return m.OzonLink
	case "graphic_link":
		return m.GraphicLink
	case "main_image":
		return m.MainImage
	case "gallery_folder":
		return m.GalleryFolder
	case "description":
		return m.Description
	default:
		return ""
	}
}

func formatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}

	return p.Decimal.String()
}
