package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"
)

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // default "configs/mapping/equipment.yaml"
	DryRun      bool
	MaxErrors   int // default 50
	ActorID     int64
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// MappingConfig represents the YAML mapping configuration. Each sheet maps
// to one category; rows become products plus either serialized units or a
// bulk quantity, depending on the sheet mode.
type MappingConfig struct {
	Version int                    `yaml:"version"`
	Sheets  map[string]SheetConfig `yaml:"sheets"`
}

type SheetConfig struct {
	Category   string              `yaml:"category"`
	Serialized bool                `yaml:"serialized"`
	Aliases    map[string][]string `yaml:"aliases"`
	Columns    map[string]string   `yaml:"columns"` // header -> field
}

// recognized mapping fields
const (
	fieldBrand        = "brand"
	fieldModel        = "model"
	fieldSerial       = "serial"
	fieldQuantity     = "quantity"
	fieldMinimumStock = "minimum_stock"
	fieldNotes        = "notes"
)

// ImportExcel processes an Excel workbook and loads its rows into the
// catalog and inventory. Unknown sheets are skipped, known sheets are
// processed row by row; a failing row never aborts the sheet.
func ImportExcel(ctx context.Context, db *pgxpool.Pool, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MappingPath == "" {
		opts.MappingPath = "configs/mapping/equipment.yaml"
	}
	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	mapping, err := loadMappingConfig(opts.MappingPath)
	if err != nil {
		return summary, fmt.Errorf("failed to load mapping config: %w", err)
	}

	// xlsx needs an io.ReaderAt, so buffer the upload first
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}

	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	conn, err := db.Acquire(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	defer conn.Release()

	for _, sheet := range xlFile.Sheets {
		sheetConfig, exists := mapping.Sheets[sheet.Name]
		if !exists {
			continue
		}

		sheetSummary := processSheet(ctx, conn, sheet, sheetConfig, opts)
		summary.Sheets = append(summary.Sheets, sheetSummary)

		summary.Inserted += sheetSummary.Inserted
		summary.Updated += sheetSummary.Updated
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	return summary, nil
}

func loadMappingConfig(path string) (*MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg MappingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Sheets) == 0 {
		return nil, errors.New("mapping config defines no sheets")
	}
	return &cfg, nil
}

func processSheet(ctx context.Context, conn *pgxpool.Conn, sheet *xlsx.Sheet, config SheetConfig, opts ImportOptions) SheetSummary {
	summary := SheetSummary{Name: sheet.Name}

	recordError := func(row int, msg string) {
		summary.Errors++
		if len(summary.Samples) < 10 {
			summary.Samples = append(summary.Samples, RowError{
				Sheet:   sheet.Name,
				Row:     row,
				Message: msg,
			})
		}
	}

	categoryID, err := findCategory(ctx, conn, config.Category)
	if err != nil {
		recordError(0, "category lookup failed: "+err.Error())
		return summary
	}

	headerRow, err := sheet.Row(0)
	if err != nil {
		recordError(1, "failed to read header row: "+err.Error())
		return summary
	}

	// column index -> mapped field, alias-aware
	fieldByCol := resolveHeader(headerRow, config)
	if len(fieldByCol) == 0 {
		recordError(1, "no mapped columns found in header row")
		return summary
	}

	for rowIdx := 1; ; rowIdx++ {
		row, err := sheet.Row(rowIdx)
		if err != nil {
			break
		}

		fields := make(map[string]string)
		empty := true
		for colIdx, field := range fieldByCol {
			cell := row.GetCell(colIdx)
			if cell == nil {
				continue
			}
			value := strings.TrimSpace(cell.String())
			if value == "" {
				continue
			}
			fields[field] = value
			empty = false
		}
		if empty {
			summary.Skipped++
			continue
		}

		if fields[fieldBrand] == "" || fields[fieldModel] == "" {
			recordError(rowIdx+1, "brand and model are required")
			continue
		}

		if err := importRow(ctx, conn, categoryID, config, fields, opts, &summary); err != nil {
			recordError(rowIdx+1, err.Error())
		}
	}

	return summary
}

// resolveHeader maps sheet column indexes to mapping fields. Header cells
// match a configured column name directly or through one of its aliases,
// case-insensitively.
func resolveHeader(headerRow *xlsx.Row, config SheetConfig) map[int]string {
	nameToField := make(map[string]string, len(config.Columns))
	for header, field := range config.Columns {
		nameToField[strings.ToUpper(header)] = field
		for _, alias := range config.Aliases[header] {
			nameToField[strings.ToUpper(alias)] = field
		}
	}

	fieldByCol := make(map[int]string)
	for colIdx := 0; ; colIdx++ {
		cell := headerRow.GetCell(colIdx)
		if cell == nil {
			break
		}
		headerName := strings.ToUpper(strings.TrimSpace(cell.String()))
		if headerName == "" {
			continue
		}
		if field, ok := nameToField[headerName]; ok {
			fieldByCol[colIdx] = field
		}
	}
	return fieldByCol
}

func importRow(ctx context.Context, conn *pgxpool.Conn, categoryID int64, config SheetConfig, fields map[string]string, opts ImportOptions, summary *SheetSummary) error {
	minimumStock := 0
	if raw := fields[fieldMinimumStock]; raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid minimum_stock: %s", raw)
		}
		minimumStock = v
	}

	productID, created, err := upsertProduct(ctx, conn, categoryID, fields[fieldBrand], fields[fieldModel], config.Serialized, minimumStock, opts.DryRun)
	if err != nil {
		return err
	}

	if config.Serialized {
		serial := fields[fieldSerial]
		if serial == "" {
			return errors.New("serial is required for serialized sheets")
		}
		inserted, err := insertUnit(ctx, conn, productID, serial, fields[fieldNotes], opts)
		if err != nil {
			return err
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Skipped++
		}
		return nil
	}

	raw := fields[fieldQuantity]
	if raw == "" {
		// product-only row; count the upsert itself
		if created {
			summary.Inserted++
		} else {
			summary.Updated++
		}
		return nil
	}
	quantity, err := strconv.Atoi(raw)
	if err != nil || quantity < 0 {
		return fmt.Errorf("invalid quantity: %s", raw)
	}
	changed, err := setStockLevel(ctx, conn, productID, quantity, opts)
	if err != nil {
		return err
	}
	if changed {
		summary.Updated++
	} else {
		summary.Skipped++
	}
	return nil
}

func findCategory(ctx context.Context, conn *pgxpool.Conn, name string) (int64, error) {
	var id int64
	err := conn.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("category %q does not exist", name)
	}
	return id, err
}

func upsertProduct(ctx context.Context, conn *pgxpool.Conn, categoryID int64, brand, model string, serialized bool, minimumStock int, dryRun bool) (int64, bool, error) {
	var id int64
	err := conn.QueryRow(ctx,
		`SELECT id FROM products WHERE category_id = $1 AND brand = $2 AND model = $3`,
		categoryID, brand, model).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != pgx.ErrNoRows {
		return 0, false, err
	}
	if dryRun {
		return 0, true, nil
	}

	err = conn.QueryRow(ctx, `
		INSERT INTO products (category_id, brand, model, uses_serial_number, minimum_stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		categoryID, brand, model, serialized, minimumStock).Scan(&id)
	return id, true, err
}

// insertUnit ingests one serialized unit. A unit whose serial is already
// on record is left untouched; imports never resurrect or mutate existing
// units.
func insertUnit(ctx context.Context, conn *pgxpool.Conn, productID int64, serial string, notes string, opts ImportOptions) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM inventory_items WHERE serial = $1)`, serial).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if opts.DryRun {
		return true, nil
	}

	var notesArg interface{}
	if notes != "" {
		notesArg = notes
	}
	var itemID int64
	err := conn.QueryRow(ctx, `
		INSERT INTO inventory_items (product_id, serial, state, notes)
		VALUES ($1, $2, 'available', $3)
		RETURNING id`,
		productID, serial, notesArg).Scan(&itemID)
	if err != nil {
		return false, err
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO item_state_log (item_id, from_state, to_state, cause, actor_id)
		VALUES ($1, 'available', 'available', 'ingested', $2)`,
		itemID, opts.ActorID)
	return true, err
}

// setStockLevel reconciles the on-hand quantity of a bulk product to the
// imported figure, recording the difference as a single movement.
func setStockLevel(ctx context.Context, conn *pgxpool.Conn, productID int64, quantity int, opts ImportOptions) (bool, error) {
	var current int
	err := conn.QueryRow(ctx,
		`SELECT quantity FROM stock_levels WHERE product_id = $1`, productID).Scan(&current)
	if err != nil && err != pgx.ErrNoRows {
		return false, err
	}
	delta := quantity - current
	if delta == 0 {
		return false, nil
	}
	if opts.DryRun {
		return true, nil
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO stock_levels (product_id, quantity, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_id) DO UPDATE SET quantity = $2, updated_at = now()`,
		productID, quantity)
	if err != nil {
		return false, err
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO stock_movements (product_id, delta, reason, actor_id)
		VALUES ($1, $2, 'excel import', $3)`,
		productID, delta, opts.ActorID)
	return true, err
}
