package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"bajadash/internal/config"
)

// ParseWorkbook reads the leave-episode export from an Excel workbook and
// returns its configured sheet as a raw table. The export carries a fixed
// number of banner rows above the header, skipped via cfg.SkipRows.
func ParseWorkbook(r io.Reader, cfg config.DashboardConfig, logger *slog.Logger) (*RawTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(cfg.SheetName)
	if err != nil {
		// Fall back to the first sheet when the configured name is
		// absent; exports renamed by hand are common.
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		logger.Warn("configured sheet not found, using first sheet",
			slog.String("configured", cfg.SheetName),
			slog.String("fallback", sheets[0]))
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
		}
	}

	if len(rows) <= cfg.SkipRows {
		return nil, fmt.Errorf("sheet has %d rows, need more than %d banner rows", len(rows), cfg.SkipRows)
	}

	rows = rows[cfg.SkipRows:]
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}

	table := &RawTable{
		Columns: header,
		Rows:    rows[1:],
	}

	logger.Info("workbook parsed",
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))

	return table, nil
}
