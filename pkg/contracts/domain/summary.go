package domain

// PercentileRange holds the observed min and max of one percentile column
// across a dataset.
type PercentileRange struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// SummaryStats are the aggregate scalars shown as dashboard KPIs. They are
// recomputed on every filter change and never persisted. An empty dataset
// yields the zero value rather than an error; the renderer shows the zero
// state.
type SummaryStats struct {
	RecordCount        int               `json:"record_count"`
	DistinctDiagnoses  int               `json:"distinct_diagnoses"`
	TotalEpisodes      int               `json:"total_episodes"`
	MeanStandard       float64           `json:"mean_standard_days"`
	MedianStandard     float64           `json:"median_standard_days"`
	MeanOptimal        float64           `json:"mean_optimal_days"`
	MedianOptimal      float64           `json:"median_optimal_days"`
	MeanMutuaP60       float64           `json:"mean_mutua_p60_days"`
	PercentileRanges   []PercentileRange `json:"percentile_ranges,omitempty"`
}

// DataQualityReport describes the health of a cleaned dataset: residual
// missing values, duplicate rows and per-column outlier counts using the
// 1.5*IQR rule.
type DataQualityReport struct {
	TotalRows     int            `json:"total_rows"`
	MissingValues map[string]int `json:"missing_values"`
	DuplicateRows int            `json:"duplicate_rows"`
	Outliers      map[string]int `json:"outliers"`
}
