package matching

import (
	"encoding/json"
	"fmt"
	"os"
)

// Weights defines the point value of each scoring bonus. Scores are plain
// integers so runs are reproducible and explainable to operators.
type Weights struct {
	Base            int32 `json:"base"`
	WithinBudget    int32 `json:"within_budget"`
	BudgetComfort   int32 `json:"budget_comfort"`
	CityMatch       int32 `json:"city_match"`
	AreaMatch       int32 `json:"area_match"`
	MeetsBeds       int32 `json:"meets_beds"`
	ExceedsBeds     int32 `json:"exceeds_beds"`
	MeetsBaths      int32 `json:"meets_baths"`
	ExceedsBaths    int32 `json:"exceeds_baths"`
	DealStyleSignal int32 `json:"deal_style_signal"`
}

// DefaultWeights returns the baseline point values.
func DefaultWeights() Weights {
	return Weights{
		Base:            50,
		WithinBudget:    8,
		BudgetComfort:   7,
		CityMatch:       10,
		AreaMatch:       6,
		MeetsBeds:       3,
		ExceedsBeds:     5,
		MeetsBaths:      3,
		ExceedsBaths:    5,
		DealStyleSignal: 4,
	}
}

// LoadWeightsFromFile overlays weights from a JSON file onto the defaults,
// so a partial file only overrides what it names.
func LoadWeightsFromFile(path string) (Weights, error) {
	w := DefaultWeights()
	b, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return w, fmt.Errorf("unmarshal weights: %w", err)
	}
	return w, nil
}
