package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NutrientKey identifies one row of a nutrition facts table.
type NutrientKey string

const (
	Calories          NutrientKey = "calories"
	TotalFat          NutrientKey = "total_fat"
	SaturatedFat      NutrientKey = "saturated_fat"
	TransFat          NutrientKey = "trans_fat"
	Cholesterol       NutrientKey = "cholesterol"
	Sodium            NutrientKey = "sodium"
	TotalCarbohydrate NutrientKey = "total_carbohydrate"
	DietaryFiber      NutrientKey = "dietary_fiber"
	TotalSugars       NutrientKey = "total_sugars"
	AddedSugars       NutrientKey = "added_sugars"
	Protein           NutrientKey = "protein"
	VitaminD          NutrientKey = "vitamin_d"
	Calcium           NutrientKey = "calcium"
	Iron              NutrientKey = "iron"
	Potassium         NutrientKey = "potassium"
)

var allNutrients = []NutrientKey{
	Calories, TotalFat, SaturatedFat, TransFat, Cholesterol, Sodium,
	TotalCarbohydrate, DietaryFiber, TotalSugars, AddedSugars, Protein,
	VitaminD, Calcium, Iron, Potassium,
}

var nutrientTitles = map[NutrientKey]string{
	Calories:          "Calories",
	TotalFat:          "Total Fat",
	SaturatedFat:      "Saturated Fat",
	TransFat:          "Trans Fat",
	Cholesterol:       "Cholesterol",
	Sodium:            "Sodium",
	TotalCarbohydrate: "Total Carbohydrate",
	DietaryFiber:      "Dietary Fiber",
	TotalSugars:       "Total Sugars",
	AddedSugars:       "Added Sugars",
	Protein:           "Protein",
	VitaminD:          "Vitamin D",
	Calcium:           "Calcium",
	Iron:              "Iron",
	Potassium:         "Potassium",
}

// ErrUnknownNutrient is returned when a string does not name a NutrientKey.
var ErrUnknownNutrient = errors.New("unknown nutrient")

// AllNutrients returns every nutrient key in label order.
func AllNutrients() []NutrientKey {
	out := make([]NutrientKey, len(allNutrients))
	copy(out, allNutrients)
	return out
}

// ParseNutrientKey validates s against the closed key set.
func ParseNutrientKey(s string) (NutrientKey, error) {
	k := NutrientKey(s)
	if _, ok := nutrientTitles[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNutrient, s)
	}
	return k, nil
}

// Title returns the label-style name, e.g. "Total Fat".
func (k NutrientKey) Title() string {
	if t, ok := nutrientTitles[k]; ok {
		return t
	}
	return string(k)
}

func (k NutrientKey) String() string {
	return string(k)
}

// NutrientValue is one parsed amount.
type NutrientValue struct {
	// Value is the amount as printed, never negative.
	Value float64 `json:"value"`

	// DailyValuePercent is the %DV following the amount, nil when the label
	// did not show one.
	DailyValuePercent *float64 `json:"daily_value_percent,omitempty"`

	// Unit is the unit token as printed ("g", "mg", "mcg", "µg") or empty.
	Unit string `json:"unit,omitempty"`
}

// Percent returns the %DV, or 0 when absent.
func (v NutrientValue) Percent() float64 {
	if v.DailyValuePercent == nil {
		return 0
	}
	return *v.DailyValuePercent
}

// ServingInfo is the "Serving size 1 cup (228g)" line.
type ServingInfo struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
	Grams  int    `json:"grams"`
}

// Record is everything parsed from one label. It is built once by Parser
// and treated as read-only afterwards.
type Record struct {
	nutrients            map[NutrientKey]NutrientValue
	serving              *ServingInfo
	servingsPerContainer *int
}

// NewRecord builds a Record from already-known values. Unknown keys are
// rejected.
func NewRecord(values map[NutrientKey]NutrientValue, serving *ServingInfo, servings *int) (Record, error) {
	r := Record{nutrients: make(map[NutrientKey]NutrientValue, len(values))}
	for k, v := range values {
		if _, err := ParseNutrientKey(string(k)); err != nil {
			return Record{}, err
		}
		if v.Value < 0 {
			return Record{}, fmt.Errorf("negative value for %s: %v", k, v.Value)
		}
		r.nutrients[k] = v
	}
	if serving != nil {
		s := *serving
		r.serving = &s
	}
	if servings != nil {
		n := *servings
		r.servingsPerContainer = &n
	}
	return r, nil
}

// Get returns the value for k and whether the label showed it.
func (r Record) Get(k NutrientKey) (NutrientValue, bool) {
	v, ok := r.nutrients[k]
	return v, ok
}

// Keys returns the present keys in label order.
func (r Record) Keys() []NutrientKey {
	keys := make([]NutrientKey, 0, len(r.nutrients))
	for _, k := range allNutrients {
		if _, ok := r.nutrients[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r Record) Len() int {
	return len(r.nutrients)
}

// IsEmpty reports whether no nutrient was recognized.
func (r Record) IsEmpty() bool {
	return len(r.nutrients) == 0
}

func (r Record) Serving() (ServingInfo, bool) {
	if r.serving == nil {
		return ServingInfo{}, false
	}
	return *r.serving, true
}

func (r Record) ServingsPerContainer() (int, bool) {
	if r.servingsPerContainer == nil {
		return 0, false
	}
	return *r.servingsPerContainer, true
}

type recordJSON struct {
	Nutrients            map[NutrientKey]NutrientValue `json:"nutrients"`
	ServingSize          *ServingInfo                  `json:"serving_size,omitempty"`
	ServingsPerContainer *int                          `json:"servings_per_container,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	nutrients := r.nutrients
	if nutrients == nil {
		nutrients = map[NutrientKey]NutrientValue{}
	}
	return json.Marshal(recordJSON{
		Nutrients:            nutrients,
		ServingSize:          r.serving,
		ServingsPerContainer: r.servingsPerContainer,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec, err := NewRecord(raw.Nutrients, raw.ServingSize, raw.ServingsPerContainer)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
