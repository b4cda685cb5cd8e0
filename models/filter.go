package models

// AllCities is the sentinel city meaning no city filter.
const AllCities = "All"

// FilterState is the gallery filter. It is derived from user input and never persisted.
type FilterState struct {
	City  string `json:"city"`
	Query string `json:"query"`
}

// NewFilterState returns the unfiltered state.
func NewFilterState() FilterState {
	return FilterState{City: AllCities}
}
