package domain

// GenderAll is the FilterCriteria.Gender value that disables the gender
// predicate.
const GenderAll = "all"

// FilterCriteria is the structured filter input supplied by the
// presentation layer on every interaction. It is passed by value and never
// retained; zero-valued fields disable their predicate.
type FilterCriteria struct {
	// Diagnoses restricts rows to the listed diagnosis values. Empty
	// means all diagnoses.
	Diagnoses []string `json:"diagnoses,omitempty"`

	// Gender restricts rows to one gender code. Empty or "all" disables
	// the predicate.
	Gender string `json:"gender,omitempty" validate:"omitempty,oneof=all M F unknown"`

	// AgeBands restricts rows to the listed age bands. Empty means all.
	AgeBands []string `json:"age_bands,omitempty"`

	// MinEpisodes/MaxEpisodes bound the episode count, inclusive. A zero
	// MaxEpisodes disables the upper bound.
	MinEpisodes int `json:"min_episodes,omitempty" validate:"min=0"`
	MaxEpisodes int `json:"max_episodes,omitempty" validate:"min=0"`
}

// FilterOptions enumerates the values the presentation layer can offer in
// its filter controls, derived from one cleaned dataset.
type FilterOptions struct {
	Diagnoses   []string `json:"diagnoses"`
	Genders     []string `json:"genders"`
	AgeBands    []string `json:"age_bands"`
	MinEpisodes int      `json:"min_episodes"`
	MaxEpisodes int      `json:"max_episodes"`
}

// MatchAll reports whether the criteria contain no active predicate.
func (c FilterCriteria) MatchAll() bool {
	return len(c.Diagnoses) == 0 &&
		(c.Gender == "" || c.Gender == GenderAll) &&
		len(c.AgeBands) == 0 &&
		c.MinEpisodes == 0 && c.MaxEpisodes == 0
}
