package dataprocessing

import (
	"bajadash/pkg/contracts/domain"
)

// ApplyFilters returns the records where every active predicate holds.
// Unset ("all") predicates are no-ops, so match-all criteria return the
// input unchanged. The result keeps the dataset's fixed sort order, which
// makes the operation idempotent and independent of predicate order.
func ApplyFilters(ds domain.Dataset, criteria domain.FilterCriteria) domain.Dataset {
	if criteria.MatchAll() {
		out := make([]domain.EpisodeRecord, len(ds.Records))
		copy(out, ds.Records)
		return domain.Dataset{Records: out}
	}

	diagnoses := toSet(criteria.Diagnoses)
	ageBands := toSet(criteria.AgeBands)

	out := make([]domain.EpisodeRecord, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if len(diagnoses) > 0 && !diagnoses[rec.Diagnosis] {
			continue
		}
		if criteria.Gender != "" && criteria.Gender != domain.GenderAll && rec.Gender != criteria.Gender {
			continue
		}
		if len(ageBands) > 0 && !ageBands[rec.AgeBand] {
			continue
		}
		if rec.EpisodeCount < criteria.MinEpisodes {
			continue
		}
		if criteria.MaxEpisodes > 0 && rec.EpisodeCount > criteria.MaxEpisodes {
			continue
		}
		out = append(out, rec)
	}

	return domain.Dataset{Records: out}
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
