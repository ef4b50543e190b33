package domain

// PrimitiveKind identifies a drawable chart element.
type PrimitiveKind string

const (
	PrimitiveBar       PrimitiveKind = "bar"
	PrimitiveLine      PrimitiveKind = "line"
	PrimitivePoint     PrimitiveKind = "point"
	PrimitiveText      PrimitiveKind = "text"
	PrimitiveBand      PrimitiveKind = "band"
	PrimitiveSeparator PrimitiveKind = "separator"
)

// Anchor values for text primitives.
const (
	AnchorLeft  = "left"
	AnchorRight = "right"
)

// ChartPrimitive is one self-contained drawable shape. Coordinates are in
// data space: X in duration days, Row in chart-row units (one unit per
// dataset row, top to bottom). The set carries no reference back to the
// dataset it was derived from.
type ChartPrimitive struct {
	Kind   PrimitiveKind `json:"kind"`
	Row    int           `json:"row"`
	X      float64       `json:"x"`
	Width  float64       `json:"width,omitempty"`
	Height float64       `json:"height,omitempty"`
	// RowSpan is the number of chart rows a band covers.
	RowSpan int    `json:"row_span,omitempty"`
	Color   string `json:"color,omitempty"`
	Label   string `json:"label,omitempty"`
	Anchor  string `json:"anchor,omitempty"`
	Dashed  bool   `json:"dashed,omitempty"`
}

// LegendEntry describes one legend item for the comparative chart.
type LegendEntry struct {
	Kind  PrimitiveKind `json:"kind"`
	Label string        `json:"label"`
	Color string        `json:"color"`
}

// ChartModel is the full renderable description of the comparative chart:
// axis extent, ordered primitives and legend. It is consumed once by the
// renderer and discarded.
type ChartModel struct {
	XMin       float64          `json:"x_min"`
	XMax       float64          `json:"x_max"`
	Rows       int              `json:"rows"`
	XLabel     string           `json:"x_label"`
	Title      string           `json:"title"`
	Primitives []ChartPrimitive `json:"primitives"`
	Legend     []LegendEntry    `json:"legend"`
}

// NamedValue is one labelled bar of a distribution chart.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DistributionChart is a simple categorical distribution (top diagnoses,
// gender split, age split).
type DistributionChart struct {
	Title string       `json:"title"`
	Bars  []NamedValue `json:"bars"`
}

// ScatterPoint is one point of a correlation chart.
type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScatterChart relates two duration measures across the filtered dataset.
type ScatterChart struct {
	Title  string         `json:"title"`
	XLabel string         `json:"x_label"`
	YLabel string         `json:"y_label"`
	Points []ScatterPoint `json:"points"`
}

// SummaryCharts bundles the secondary dashboard charts.
type SummaryCharts struct {
	Diagnoses   DistributionChart `json:"diagnoses"`
	Gender      DistributionChart `json:"gender"`
	AgeBands    DistributionChart `json:"age_bands"`
	Correlation ScatterChart      `json:"correlation"`
}
