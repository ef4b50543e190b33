package dataprocessing

import (
	"sort"

	"bajadash/pkg/contracts/domain"
)

// Summarize computes the KPI scalars for a dataset. An empty dataset
// yields the zero value; callers render the zero state instead of
// treating it as an error.
func Summarize(ds domain.Dataset) domain.SummaryStats {
	if ds.Empty() {
		return domain.SummaryStats{}
	}

	stats := domain.SummaryStats{RecordCount: ds.Len()}

	diagnoses := make(map[string]struct{})
	standard := make([]float64, 0, ds.Len())
	optimal := make([]float64, 0, ds.Len())
	var p60Sum float64

	ranges := make([]domain.PercentileRange, domain.PercentileCount)
	for i, label := range domain.PercentileLabels {
		ranges[i] = domain.PercentileRange{Label: label}
	}

	for ri, rec := range ds.Records {
		diagnoses[rec.Diagnosis] = struct{}{}
		stats.TotalEpisodes += rec.EpisodeCount
		standard = append(standard, rec.StandardDuration)
		optimal = append(optimal, rec.OptimalDuration)
		p60Sum += rec.Percentiles[domain.PercentileP60]

		for i, v := range rec.Percentiles {
			if ri == 0 || v < ranges[i].Min {
				ranges[i].Min = v
			}
			if ri == 0 || v > ranges[i].Max {
				ranges[i].Max = v
			}
		}
	}

	stats.DistinctDiagnoses = len(diagnoses)
	stats.MeanStandard = mean(standard)
	stats.MedianStandard = median(standard)
	stats.MeanOptimal = mean(optimal)
	stats.MedianOptimal = median(optimal)
	stats.MeanMutuaP60 = p60Sum / float64(ds.Len())
	stats.PercentileRanges = ranges

	return stats
}

// Quality-report column keys, by internal field name.
const (
	qualityDiagnosis  = "diagnosis"
	qualityOccupation = "occupational_group"
	qualityGender     = "gender"
	qualityAgeBand    = "age_band"
	qualityCase       = "case_id"
)

// QualityReport inspects a cleaned dataset for residual issues: missing
// text values, duplicate rows and 1.5*IQR outliers per numeric column.
func QualityReport(ds domain.Dataset) domain.DataQualityReport {
	report := domain.DataQualityReport{
		TotalRows:     ds.Len(),
		MissingValues: make(map[string]int),
		Outliers:      make(map[string]int),
	}

	seen := make(map[domain.EpisodeRecord]int, ds.Len())
	for _, rec := range ds.Records {
		if rec.Diagnosis == "" {
			report.MissingValues[qualityDiagnosis]++
		}
		if rec.OccupationalGroup == "" {
			report.MissingValues[qualityOccupation]++
		}
		if rec.Gender == domain.GenderUnknown {
			report.MissingValues[qualityGender]++
		}
		if rec.AgeBand == "" {
			report.MissingValues[qualityAgeBand]++
		}
		if rec.CaseID == "" {
			report.MissingValues[qualityCase]++
		}

		seen[rec]++
		if seen[rec] > 1 {
			report.DuplicateRows++
		}
	}

	numericColumns := map[string]func(domain.EpisodeRecord) float64{
		"episode_count":     func(r domain.EpisodeRecord) float64 { return float64(r.EpisodeCount) },
		"standard_duration": func(r domain.EpisodeRecord) float64 { return r.StandardDuration },
		"optimal_duration":  func(r domain.EpisodeRecord) float64 { return r.OptimalDuration },
	}
	for i, label := range domain.PercentileLabels {
		i := i
		numericColumns[label] = func(r domain.EpisodeRecord) float64 { return r.Percentiles[i] }
	}

	for name, get := range numericColumns {
		values := make([]float64, ds.Len())
		for i, rec := range ds.Records {
			values[i] = get(rec)
		}
		report.Outliers[name] = countIQROutliers(values)
	}

	return report
}

// countIQROutliers counts values outside [Q1-1.5*IQR, Q3+1.5*IQR].
func countIQROutliers(values []float64) int {
	if len(values) < 4 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// quantile interpolates linearly over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
