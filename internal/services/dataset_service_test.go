package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bajadash/internal/config"
	"bajadash/internal/dataprocessing"
	"bajadash/internal/infrastructure"
	"bajadash/pkg/contracts/domain"
)

func testDashboardConfig() config.DashboardConfig {
	return config.DashboardConfig{
		SheetName:        "Visualización 1",
		SkipRows:         2,
		AgeBandOrder:     []string{"16-25", "26-35", "36-45", "46-55", "56-65"},
		MinEpisodes:      1,
		MaxEpisodes:      1000,
		NegativePolicy:   config.NegativeExclude,
		MaxUploadBytes:   50 << 20,
		GradientStops:    []string{"#1A9850", "#FFFFBF", "#D73027"},
		NoVariationColor: "#D3D3D3",
		StandardColor:    "#000000",
		OptimalColor:     "#0000FF",
		ShadingColor:     "#D3D3D3",
		MinBarHeight:     0.2,
		MaxBarHeight:     0.6,
		LeftMargin:       40,
		RightMargin:      40,
	}
}

func newTestService(t *testing.T) *DatasetService {
	t.Helper()
	svc, err := NewDatasetService(testDashboardConfig(), slog.Default(), infrastructure.NewMetrics())
	require.NoError(t, err)
	return svc
}

// testWorkbook writes an export-shaped workbook: two banner rows, the
// header, then the given data rows.
func testWorkbook(t *testing.T, header []string, rows [][]string) *bytes.Buffer {
	t.Helper()

	cfg := testDashboardConfig()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), cfg.SheetName))

	line := 1
	writeRow := func(values []string) {
		cell, err := excelize.CoordinatesToCellName(1, line)
		require.NoError(t, err)
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		require.NoError(t, f.SetSheetRow(cfg.SheetName, cell, &row))
		line++
	}

	writeRow([]string{"Informe de bajas"})
	writeRow([]string{""})
	writeRow(header)
	for _, r := range rows {
		writeRow(r)
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func sampleRows() [][]string {
	return [][]string{
		{"Lumbalgia", "Administrativo", "M", "36-45", "C001", "15", "30", "25", "10", "15", "20", "25", "30", "35"},
		{"Cervicalgia", "Operario", "F", "26-35", "C002", "8", "20", "18", "8", "12", "16", "20", "24", "28"},
		{"Tendinitis", "Técnico", "M", "46-55", "C003", "12", "25", "22", "12", "16", "20", "24", "28", "32"},
	}
}

func uploadFixture(t *testing.T, svc *DatasetService) UploadResult {
	t.Helper()
	buf := testWorkbook(t, dataprocessing.RequiredColumns, sampleRows())
	result, err := svc.Upload(context.Background(), buf)
	require.NoError(t, err)
	return result
}

func TestDatasetService_Upload(t *testing.T) {
	svc := newTestService(t)

	result := uploadFixture(t, svc)

	_, err := uuid.Parse(result.SessionID)
	assert.NoError(t, err)
	assert.False(t, result.CreatedAt.IsZero())

	assert.Equal(t, 3, result.Report.RowsIn)
	assert.Equal(t, 3, result.Report.RowsOut)

	assert.Equal(t, []string{"Cervicalgia", "Lumbalgia", "Tendinitis"}, result.Options.Diagnoses)
	assert.Equal(t, []string{domain.GenderFemale, domain.GenderMale}, result.Options.Genders)
	assert.Equal(t, []string{"26-35", "36-45", "46-55"}, result.Options.AgeBands)
	assert.Equal(t, 8, result.Options.MinEpisodes)
	assert.Equal(t, 15, result.Options.MaxEpisodes)
}

func TestDatasetService_UploadSchemaError(t *testing.T) {
	svc := newTestService(t)

	header := dataprocessing.RequiredColumns[:len(dataprocessing.RequiredColumns)-1]
	buf := testWorkbook(t, header, sampleRows())

	_, err := svc.Upload(context.Background(), buf)

	var schemaErr *dataprocessing.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"P99min"}, schemaErr.Missing)
}

func TestDatasetService_UploadEmptyWorkbook(t *testing.T) {
	svc := newTestService(t)

	// Every data row is non-coercible, so cleaning drops them all.
	rows := [][]string{
		{"Lumbalgia", "A", "M", "36-45", "C001", "n/a", "30", "25", "10", "15", "20", "25", "30", "35"},
	}
	buf := testWorkbook(t, dataprocessing.RequiredColumns, rows)

	_, err := svc.Upload(context.Background(), buf)

	assert.ErrorIs(t, err, ErrEmptyWorkbook)
}

func TestDatasetService_UploadParseError(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), bytes.NewBufferString("not an xlsx"))

	assert.Error(t, err)
}

func TestDatasetService_Rows(t *testing.T) {
	svc := newTestService(t)
	result := uploadFixture(t, svc)

	ds, err := svc.Rows(context.Background(), result.SessionID)

	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	// Rows come back in display order.
	assert.Equal(t, "Cervicalgia", ds.Records[0].Diagnosis)
	assert.Equal(t, "Tendinitis", ds.Records[2].Diagnosis)
}

func TestDatasetService_RowsUnknownSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Rows(context.Background(), uuid.New().String())

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDatasetService_View(t *testing.T) {
	svc := newTestService(t)
	result := uploadFixture(t, svc)

	view, err := svc.View(context.Background(), result.SessionID, domain.FilterCriteria{
		Gender:      domain.GenderMale,
		MinEpisodes: 10,
	})

	require.NoError(t, err)
	require.Len(t, view.Records, 2)
	assert.Equal(t, 2, view.Summary.RecordCount)
	assert.Equal(t, 27, view.Summary.TotalEpisodes)
	assert.Equal(t, 2, view.Chart.Rows)
	assert.NotEmpty(t, view.Chart.Primitives)
	assert.Len(t, view.SummaryCharts.Correlation.Points, 2)
}

func TestDatasetService_ViewEmptyResult(t *testing.T) {
	svc := newTestService(t)
	result := uploadFixture(t, svc)

	view, err := svc.View(context.Background(), result.SessionID, domain.FilterCriteria{
		Diagnoses: []string{"Fractura"},
	})

	require.NoError(t, err)
	assert.Empty(t, view.Records)
	assert.Equal(t, domain.SummaryStats{}, view.Summary)
	assert.Zero(t, view.Chart.Rows)
	assert.Empty(t, view.Chart.Primitives)
}

func TestDatasetService_ViewUnknownSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.View(context.Background(), uuid.New().String(), domain.FilterCriteria{})

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDatasetService_Quality(t *testing.T) {
	svc := newTestService(t)
	result := uploadFixture(t, svc)

	report, err := svc.Quality(context.Background(), result.SessionID)

	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRows)
	assert.Zero(t, report.DuplicateRows)
}

func TestDatasetService_Delete(t *testing.T) {
	svc := newTestService(t)
	result := uploadFixture(t, svc)

	require.NoError(t, svc.Delete(context.Background(), result.SessionID))

	_, err := svc.Rows(context.Background(), result.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), result.SessionID), ErrSessionNotFound)
}

func TestDatasetService_SessionsAreIsolated(t *testing.T) {
	svc := newTestService(t)

	first := uploadFixture(t, svc)
	second := uploadFixture(t, svc)
	require.NotEqual(t, first.SessionID, second.SessionID)

	require.NoError(t, svc.Delete(context.Background(), first.SessionID))

	_, err := svc.Rows(context.Background(), second.SessionID)
	assert.NoError(t, err)
}
