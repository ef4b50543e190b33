package chart

import (
	"fmt"
	"log/slog"
	"sort"

	"bajadash/internal/config"
	"bajadash/pkg/contracts/domain"
)

// Chart texts, kept as the original dashboard labels them.
const (
	chartTitle       = "Comparativa INSS vs Historial Mutua"
	chartXLabel      = "Duración (días)"
	noVariationText  = "sin variación"
	legendConstant   = "Distribución constante"
	legendStandard   = "Duración estándar INSS"
	legendOptimal    = "Duración óptima INSS"
	shadingAlternate = "#FFFFFF"
)

// Builder turns a filtered dataset into renderable chart primitives. It is
// stateless between calls; every Build is a full recompute.
type Builder struct {
	cfg      config.DashboardConfig
	gradient Gradient
	logger   *slog.Logger
}

// NewBuilder creates a chart builder, parsing the configured gradient.
func NewBuilder(cfg config.DashboardConfig, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gradient, err := ParseGradient(cfg.GradientStops)
	if err != nil {
		return nil, fmt.Errorf("invalid gradient config: %w", err)
	}
	return &Builder{
		cfg:      cfg,
		gradient: gradient,
		logger:   logger.With(slog.String("component", "chart_builder")),
	}, nil
}

// Build produces the complete chart model: percentile bars, INSS markers,
// labels, diagnosis group shading and legend. An empty dataset yields a
// model with no primitives, never an error.
func (b *Builder) Build(ds domain.Dataset) domain.ChartModel {
	model := domain.ChartModel{
		Title:      chartTitle,
		XLabel:     chartXLabel,
		Rows:       ds.Len(),
		Primitives: []domain.ChartPrimitive{},
		Legend:     b.Legend(),
	}
	if ds.Empty() {
		return model
	}

	xMin, xMax := percentileExtent(ds)
	model.XMin = xMin - b.cfg.LeftMargin
	model.XMax = xMax + b.cfg.RightMargin

	model.Primitives = append(model.Primitives, b.GroupShading(ds)...)
	model.Primitives = append(model.Primitives, b.Layout(ds)...)

	b.logger.Debug("chart built",
		slog.Int("rows", model.Rows),
		slog.Int("primitives", len(model.Primitives)))

	return model
}

// Layout emits the per-row primitives: one bar per adjacent percentile
// pair colored by the dataset-normalized gradient, a line marker at the
// standard INSS duration, a point marker at the optimal INSS duration and
// the row labels. Rows with a flat distribution get a single neutral bar.
func (b *Builder) Layout(ds domain.Dataset) []domain.ChartPrimitive {
	if ds.Empty() {
		return []domain.ChartPrimitive{}
	}

	xMin, xMax := percentileExtent(ds)
	heights := b.barHeights(ds)
	primitives := make([]domain.ChartPrimitive, 0, ds.Len()*(domain.PercentileCount+3))

	for row, rec := range ds.Records {
		height := heights[row]

		if rec.FlatDistribution {
			primitives = append(primitives,
				domain.ChartPrimitive{
					Kind:   domain.PrimitiveBar,
					Row:    row,
					X:      rec.Percentiles[0] - 0.5,
					Width:  1,
					Height: height,
					Color:  b.cfg.NoVariationColor,
				},
				domain.ChartPrimitive{
					Kind:   domain.PrimitiveText,
					Row:    row,
					X:      rec.Percentiles[0] + 1,
					Label:  noVariationText,
					Anchor: domain.AnchorLeft,
				})
		} else {
			for i := 0; i < domain.PercentileCount-1; i++ {
				lo, hi := rec.Percentiles[i], rec.Percentiles[i+1]
				width := hi - lo
				if width <= 0 {
					continue
				}
				primitives = append(primitives, domain.ChartPrimitive{
					Kind:   domain.PrimitiveBar,
					Row:    row,
					X:      lo,
					Width:  width,
					Height: height,
					Color:  b.gradient.At(normalize((lo+hi)/2, xMin, xMax)),
				})
			}
		}

		primitives = append(primitives,
			domain.ChartPrimitive{
				Kind:   domain.PrimitiveLine,
				Row:    row,
				X:      rec.StandardDuration,
				Height: height,
				Color:  b.cfg.StandardColor,
			},
			domain.ChartPrimitive{
				Kind:  domain.PrimitivePoint,
				Row:   row,
				X:     rec.OptimalDuration,
				Color: b.cfg.OptimalColor,
			},
			domain.ChartPrimitive{
				Kind:   domain.PrimitiveText,
				Row:    row,
				X:      xMin - b.cfg.LeftMargin + 2,
				Label:  rec.Diagnosis,
				Anchor: domain.AnchorRight,
			},
			domain.ChartPrimitive{
				Kind:   domain.PrimitiveText,
				Row:    row,
				X:      xMax + 5,
				Label:  fmt.Sprintf("%s (%d)", rec.CaseID, rec.EpisodeCount),
				Anchor: domain.AnchorLeft,
			})
	}

	return primitives
}

// GroupShading emits alternating background bands keyed by diagnosis
// changes between consecutive rows, plus a dashed separator at every group
// boundary. Bar geometry is untouched.
func (b *Builder) GroupShading(ds domain.Dataset) []domain.ChartPrimitive {
	if ds.Empty() {
		return []domain.ChartPrimitive{}
	}

	primitives := make([]domain.ChartPrimitive, 0, 8)
	start := 0
	group := 0

	emit := func(start, end int) {
		color := b.cfg.ShadingColor
		if group%2 != 0 {
			color = shadingAlternate
		}
		primitives = append(primitives, domain.ChartPrimitive{
			Kind:    domain.PrimitiveBand,
			Row:     start,
			RowSpan: end - start,
			Color:   color,
		})
		if start != 0 {
			primitives = append(primitives, domain.ChartPrimitive{
				Kind:   domain.PrimitiveSeparator,
				Row:    start,
				Dashed: true,
			})
		}
		group++
	}

	for i := 1; i < ds.Len(); i++ {
		if ds.Records[i].Diagnosis != ds.Records[i-1].Diagnosis {
			emit(start, i)
			start = i
		}
	}
	emit(start, ds.Len())

	return primitives
}

// Legend returns the legend entries: one patch per percentile cut point
// sampled along the gradient, the flat-distribution patch and the two
// INSS markers.
func (b *Builder) Legend() []domain.LegendEntry {
	entries := make([]domain.LegendEntry, 0, domain.PercentileCount+3)
	for i, label := range domain.PercentileLabels {
		t := float64(i) / float64(domain.PercentileCount-1)
		entries = append(entries, domain.LegendEntry{
			Kind:  domain.PrimitiveBar,
			Label: label,
			Color: b.gradient.At(t),
		})
	}
	entries = append(entries,
		domain.LegendEntry{Kind: domain.PrimitiveBar, Label: legendConstant, Color: b.cfg.NoVariationColor},
		domain.LegendEntry{Kind: domain.PrimitiveLine, Label: legendStandard, Color: b.cfg.StandardColor},
		domain.LegendEntry{Kind: domain.PrimitivePoint, Label: legendOptimal, Color: b.cfg.OptimalColor},
	)
	return entries
}

// SummaryCharts produces the secondary dashboard charts for the filtered
// dataset: top diagnoses, gender and age distributions, and the standard
// vs Mutua P60 correlation scatter.
func (b *Builder) SummaryCharts(ds domain.Dataset) domain.SummaryCharts {
	charts := domain.SummaryCharts{
		Diagnoses: domain.DistributionChart{Title: "Top 10 Diagnósticos", Bars: topCounts(ds, 10, func(r domain.EpisodeRecord) string { return r.Diagnosis })},
		Gender:    domain.DistributionChart{Title: "Distribución por Género", Bars: topCounts(ds, 0, func(r domain.EpisodeRecord) string { return r.Gender })},
		AgeBands:  domain.DistributionChart{Title: "Distribución por Grupo de Edad", Bars: topCounts(ds, 0, func(r domain.EpisodeRecord) string { return r.AgeBand })},
		Correlation: domain.ScatterChart{
			Title:  "Correlación entre Duraciones",
			XLabel: "Duración estándar INSS",
			YLabel: "P60 Mutua",
			Points: make([]domain.ScatterPoint, 0, ds.Len()),
		},
	}

	for _, rec := range ds.Records {
		charts.Correlation.Points = append(charts.Correlation.Points, domain.ScatterPoint{
			X: rec.StandardDuration,
			Y: rec.Percentiles[domain.PercentileP60],
		})
	}

	return charts
}

// barHeights maps each row's episode count linearly into the configured
// height range relative to the dataset's count extent. A collapsed extent
// yields the midpoint height for every row.
func (b *Builder) barHeights(ds domain.Dataset) []float64 {
	heights := make([]float64, ds.Len())

	minCount, maxCount := ds.Records[0].EpisodeCount, ds.Records[0].EpisodeCount
	for _, rec := range ds.Records[1:] {
		if rec.EpisodeCount < minCount {
			minCount = rec.EpisodeCount
		}
		if rec.EpisodeCount > maxCount {
			maxCount = rec.EpisodeCount
		}
	}

	if maxCount == minCount {
		mid := (b.cfg.MinBarHeight + b.cfg.MaxBarHeight) / 2
		for i := range heights {
			heights[i] = mid
		}
		return heights
	}

	span := float64(maxCount - minCount)
	for i, rec := range ds.Records {
		frac := float64(rec.EpisodeCount-minCount) / span
		heights[i] = b.cfg.MinBarHeight + frac*(b.cfg.MaxBarHeight-b.cfg.MinBarHeight)
	}
	return heights
}

// percentileExtent returns the global min and max percentile values across
// the dataset. Colors normalize against this extent so they compare across
// rows.
func percentileExtent(ds domain.Dataset) (float64, float64) {
	xMin := ds.Records[0].Percentiles[0]
	xMax := xMin
	for _, rec := range ds.Records {
		for _, v := range rec.Percentiles {
			if v < xMin {
				xMin = v
			}
			if v > xMax {
				xMax = v
			}
		}
	}
	return xMin, xMax
}

// normalize maps v into [0, 1] over [lo, hi]; a degenerate range maps to 0
// so the gradient collapses to a single color instead of dividing by zero.
func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// topCounts tallies record counts per key, ordered by descending count
// then name, truncated to limit when limit > 0.
func topCounts(ds domain.Dataset, limit int, key func(domain.EpisodeRecord) string) []domain.NamedValue {
	counts := make(map[string]int)
	for _, rec := range ds.Records {
		counts[key(rec)]++
	}

	bars := make([]domain.NamedValue, 0, len(counts))
	for name, count := range counts {
		bars = append(bars, domain.NamedValue{Name: name, Value: float64(count)})
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Name < bars[j].Name
	})

	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}
	return bars
}
