package domain

// Gender codes after normalization. Source files carry free-form codes;
// anything that is not M or F is preserved as unknown rather than dropped.
const (
	GenderMale    = "M"
	GenderFemale  = "F"
	GenderUnknown = "unknown"
)

// PercentileCount is the number of duration percentile cut points carried
// per episode record: Min, P20, P40, P60, P80, P99.
const PercentileCount = 6

// PercentileLabels are the display names of the percentile cut points,
// index-aligned with EpisodeRecord.Percentiles.
var PercentileLabels = [PercentileCount]string{"Min", "P20", "P40", "P60", "P80", "P99"}

// Index positions within EpisodeRecord.Percentiles.
const (
	PercentileMin = iota
	PercentileP20
	PercentileP40
	PercentileP60
	PercentileP80
	PercentileP99
)

// EpisodeRecord represents one labor-leave episode group: a diagnosis,
// gender and age-band cohort with its Mutua duration percentiles and the
// INSS benchmark durations it is compared against. Records are immutable
// once produced by the cleaning pass.
type EpisodeRecord struct {
	Diagnosis         string  `json:"diagnosis"`
	OccupationalGroup string  `json:"occupational_group"`
	Gender            string  `json:"gender"`
	AgeBand           string  `json:"age_band"`
	CaseID            string  `json:"case_id"`
	EpisodeCount      int     `json:"episode_count"`
	StandardDuration  float64 `json:"standard_duration_days"`
	OptimalDuration   float64 `json:"optimal_duration_days"`

	// Percentiles holds the Min/P20/P40/P60/P80/P99 leave durations in
	// days, non-decreasing by construction of the source export.
	Percentiles [PercentileCount]float64 `json:"percentiles"`

	// Derived fields, computed after cleaning.
	FlatDistribution bool    `json:"flat_distribution"`
	StandardDiff     float64 `json:"standard_diff"`
	OptimalDiff      float64 `json:"optimal_diff"`
}

// Dataset is an ordered collection of cleaned episode records. Ordering is
// (diagnosis, gender, age band) ascending with the configured age-band
// ordering, ties broken by source row order.
type Dataset struct {
	Records []EpisodeRecord `json:"records"`
}

// Len returns the number of records in the dataset.
func (d Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset holds no records.
func (d Dataset) Empty() bool { return len(d.Records) == 0 }

// CleanReport aggregates the non-fatal issues found while cleaning a raw
// table. Dropped rows are reported, never raised as errors.
type CleanReport struct {
	RowsIn           int `json:"rows_in"`
	RowsOut          int `json:"rows_out"`
	SkippedRows      int `json:"skipped_rows"`
	ExcludedNegative int `json:"excluded_negative"`
	ExcludedEpisodes int `json:"excluded_episodes"`
	ClampedValues    int `json:"clamped_values"`
}
