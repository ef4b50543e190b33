package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"bajadash/internal/config"
	"bajadash/pkg/contracts/domain"
)

// Source column names, exact match, as the export writes them.
const (
	ColDiagnosis    = "Des Cie9 3dig"
	ColOccupation   = "Gr Ocupac"
	ColGender       = "Cod Genero"
	ColAgeBand      = "Gr Edad 10"
	ColCase         = "CASO"
	ColEpisodeCount = "Count (Id Episodio)"
	ColStandard     = "Durestd Inss min"
	ColOptimal      = "Duropt Inss min"
	ColMin          = "Minmin"
	ColP20          = "P20min"
	ColP40          = "P40min"
	ColP60          = "P60min"
	ColP80          = "P80min"
	ColP99          = "P99min"
)

// RequiredColumns lists every column the processor needs, in export order.
var RequiredColumns = []string{
	ColDiagnosis, ColOccupation, ColGender, ColAgeBand, ColCase,
	ColEpisodeCount, ColStandard, ColOptimal,
	ColMin, ColP20, ColP40, ColP60, ColP80, ColP99,
}

// percentileColumns in percentile order, aligned with domain.Percentiles.
var percentileColumns = []string{ColMin, ColP20, ColP40, ColP60, ColP80, ColP99}

// SchemaError reports required columns missing from an uploaded table.
// It is fatal to the whole load; nothing downstream runs.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Processor turns raw tables into clean, ordered datasets. It holds only
// configuration and a logger; every method is a pure pass over its input.
type Processor struct {
	cfg    config.DashboardConfig
	logger *slog.Logger
}

// NewProcessor creates a processor with the given dashboard configuration.
func NewProcessor(cfg config.DashboardConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "processor")),
	}
}

// Validate checks that every required column is present by exact name.
// It returns a SchemaError listing all missing names, and never mutates
// the input.
func (p *Processor) Validate(raw *RawTable) error {
	var missing []string
	for _, col := range RequiredColumns {
		if raw.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Clean coerces numeric columns and applies the range rules. Rows with a
// non-coercible required numeric are dropped and counted. Negative
// durations, percentiles or episode counts follow the configured policy:
// exclude drops the row, clamp raises the value to zero. Episode counts
// outside the configured bounds drop the row. Gender is normalized to
// {M, F, unknown}; unknown is preserved. Issues are reported, never fatal.
func (p *Processor) Clean(raw *RawTable) (domain.Dataset, domain.CleanReport) {
	report := domain.CleanReport{RowsIn: len(raw.Rows)}

	idx := struct {
		diagnosis, occupation, gender, ageBand, caseID, episodes, standard, optimal int
		percentiles                                                                [domain.PercentileCount]int
	}{
		diagnosis:  raw.ColumnIndex(ColDiagnosis),
		occupation: raw.ColumnIndex(ColOccupation),
		gender:     raw.ColumnIndex(ColGender),
		ageBand:    raw.ColumnIndex(ColAgeBand),
		caseID:     raw.ColumnIndex(ColCase),
		episodes:   raw.ColumnIndex(ColEpisodeCount),
		standard:   raw.ColumnIndex(ColStandard),
		optimal:    raw.ColumnIndex(ColOptimal),
	}
	for i, col := range percentileColumns {
		idx.percentiles[i] = raw.ColumnIndex(col)
	}

	records := make([]domain.EpisodeRecord, 0, len(raw.Rows))

rows:
	for _, row := range raw.Rows {
		if isBlankRow(row) {
			report.SkippedRows++
			continue
		}

		numeric := make([]float64, 0, domain.PercentileCount+3)
		for _, i := range append([]int{idx.episodes, idx.standard, idx.optimal}, idx.percentiles[:]...) {
			v, ok := parseNumeric(Cell(row, i))
			if !ok {
				report.SkippedRows++
				continue rows
			}
			numeric = append(numeric, v)
		}

		episodes, standard, optimal := numeric[0], numeric[1], numeric[2]
		var percentiles [domain.PercentileCount]float64
		copy(percentiles[:], numeric[3:])

		// Negative value policy over every duration-like field.
		negative := episodes < 0 || standard < 0 || optimal < 0
		for _, v := range percentiles {
			negative = negative || v < 0
		}
		if negative {
			if p.cfg.NegativePolicy == config.NegativeExclude {
				report.ExcludedNegative++
				continue
			}
			clamped := 0
			episodes, clamped = clampNonNegative(episodes, clamped)
			standard, clamped = clampNonNegative(standard, clamped)
			optimal, clamped = clampNonNegative(optimal, clamped)
			for i := range percentiles {
				percentiles[i], clamped = clampNonNegative(percentiles[i], clamped)
			}
			report.ClampedValues += clamped
		}

		episodeCount := int(episodes)
		if episodeCount < p.cfg.MinEpisodes || episodeCount > p.cfg.MaxEpisodes {
			report.ExcludedEpisodes++
			continue
		}

		records = append(records, domain.EpisodeRecord{
			Diagnosis:         strings.TrimSpace(Cell(row, idx.diagnosis)),
			OccupationalGroup: strings.TrimSpace(Cell(row, idx.occupation)),
			Gender:            normalizeGender(Cell(row, idx.gender)),
			AgeBand:           strings.TrimSpace(Cell(row, idx.ageBand)),
			CaseID:            strings.TrimSpace(Cell(row, idx.caseID)),
			EpisodeCount:      episodeCount,
			StandardDuration:  standard,
			OptimalDuration:   optimal,
			Percentiles:       percentiles,
		})
	}

	report.RowsOut = len(records)

	p.logger.Info("table cleaned",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("skipped", report.SkippedRows),
		slog.Int("excluded_negative", report.ExcludedNegative),
		slog.Int("excluded_episodes", report.ExcludedEpisodes),
		slog.Int("clamped_values", report.ClampedValues))

	return domain.Dataset{Records: records}, report
}

// DeriveFields computes the downstream columns: the flat-distribution flag
// for records whose percentiles never vary, and the standard/optimal
// differences against the Mutua P60. Pure; returns a new dataset.
func (p *Processor) DeriveFields(ds domain.Dataset) domain.Dataset {
	out := make([]domain.EpisodeRecord, len(ds.Records))
	for i, rec := range ds.Records {
		flat := true
		for _, v := range rec.Percentiles[1:] {
			if v != rec.Percentiles[0] {
				flat = false
				break
			}
		}
		rec.FlatDistribution = flat
		rec.StandardDiff = rec.StandardDuration - rec.Percentiles[domain.PercentileP60]
		rec.OptimalDiff = rec.OptimalDuration - rec.Percentiles[domain.PercentileP60]
		out[i] = rec
	}
	return domain.Dataset{Records: out}
}

// Sort orders the dataset by (diagnosis, gender, age band) ascending with
// the configured categorical age ordering; unknown bands sort last. Ties
// keep the original row order for stable chart layout.
func (p *Processor) Sort(ds domain.Dataset) domain.Dataset {
	out := make([]domain.EpisodeRecord, len(ds.Records))
	copy(out, ds.Records)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Diagnosis != b.Diagnosis {
			return a.Diagnosis < b.Diagnosis
		}
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		ra, rb := p.cfg.AgeBandRank(a.AgeBand), p.cfg.AgeBandRank(b.AgeBand)
		if ra != rb {
			return ra < rb
		}
		// Bands outside the fixed set keep a deterministic order.
		return a.AgeBand < b.AgeBand
	})

	return domain.Dataset{Records: out}
}

// Process runs the full pipeline over a raw table: validate, clean,
// derive, sort.
func (p *Processor) Process(raw *RawTable) (domain.Dataset, domain.CleanReport, error) {
	if err := p.Validate(raw); err != nil {
		return domain.Dataset{}, domain.CleanReport{}, err
	}
	ds, report := p.Clean(raw)
	ds = p.DeriveFields(ds)
	ds = p.Sort(ds)
	return ds, report, nil
}

// parseNumeric converts a cell to a float, tolerating thousands separators
// the way exports write them.
func parseNumeric(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clampNonNegative(v float64, clamped int) (float64, int) {
	if v < 0 {
		return 0, clamped + 1
	}
	return v, clamped
}

func normalizeGender(cell string) string {
	switch strings.ToUpper(strings.TrimSpace(cell)) {
	case domain.GenderMale:
		return domain.GenderMale
	case domain.GenderFemale:
		return domain.GenderFemale
	default:
		return domain.GenderUnknown
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
