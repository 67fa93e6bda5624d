// Package health derives qualitative flags from a parsed nutrition record.
package health

import (
	"github.com/ironsheep/nutriscan-mcp/internal/nutrition"
)

// Severity classifies a flag.
type Severity string

const (
	Positive Severity = "positive"
	Warning  Severity = "warning"
	Info     Severity = "info"
)

// Flag codes. Messages may be reworded; codes are stable.
const (
	CodeHighSugar        = "high_sugar"
	CodeModerateSugar    = "moderate_sugar"
	CodeHighFat          = "high_fat"
	CodeModerateFat      = "moderate_fat"
	CodeHighSaturatedFat = "high_saturated_fat"
	CodeHighSodium       = "high_sodium"
	CodeLowProtein       = "low_protein"
	CodeGoodProtein      = "good_protein"
	CodeGoodCalcium      = "good_calcium"
	CodeGoodIron         = "good_iron"
)

// Flag is one derived health note.
type Flag struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Thresholds are per-serving cutoffs, compared against label values as
// printed. Sodium is compared in grams.
type Thresholds struct {
	SugarHigh        float64 `json:"sugar_high"`
	SugarModerate    float64 `json:"sugar_moderate"`
	FatHigh          float64 `json:"fat_high"`
	FatModerate      float64 `json:"fat_moderate"`
	SaturatedFatHigh float64 `json:"saturated_fat_high"`
	SodiumHighGrams  float64 `json:"sodium_high_grams"`
	ProteinGood      float64 `json:"protein_good"`
	CalciumGoodPct   float64 `json:"calcium_good_pct"`
	IronGoodPct      float64 `json:"iron_good_pct"`
}

// DefaultThresholds returns the reference cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SugarHigh:        22.5,
		SugarModerate:    5.0,
		FatHigh:          17.5,
		FatModerate:      3.0,
		SaturatedFatHigh: 5.0,
		SodiumHighGrams:  1.5,
		ProteinGood:      5.0,
		CalciumGoodPct:   20,
		IronGoodPct:      20,
	}
}

// Engine evaluates a record against fixed thresholds. It is a value type;
// the thresholds cannot change after construction.
type Engine struct {
	t Thresholds
}

func NewEngine(t Thresholds) Engine {
	return Engine{t: t}
}

func (e Engine) Thresholds() Thresholds {
	return e.t
}

// Evaluate returns flags in a fixed order: sugar, fat, saturated fat,
// sodium, protein, calcium, iron. A nutrient missing from the record yields
// no flag. For nutrients with two tiers the high tier suppresses the
// moderate one.
func (e Engine) Evaluate(rec nutrition.Record) []Flag {
	flags := make([]Flag, 0, 7)

	if v, ok := rec.Get(nutrition.TotalSugars); ok {
		switch {
		case v.Value >= e.t.SugarHigh:
			flags = append(flags, Flag{Warning, CodeHighSugar, "High sugar content"})
		case v.Value >= e.t.SugarModerate:
			flags = append(flags, Flag{Warning, CodeModerateSugar, "Moderate sugar content"})
		}
	}

	if v, ok := rec.Get(nutrition.TotalFat); ok {
		switch {
		case v.Value >= e.t.FatHigh:
			flags = append(flags, Flag{Warning, CodeHighFat, "High fat content"})
		case v.Value >= e.t.FatModerate:
			flags = append(flags, Flag{Warning, CodeModerateFat, "Moderate fat content"})
		}
	}

	if v, ok := rec.Get(nutrition.SaturatedFat); ok && v.Value >= e.t.SaturatedFatHigh {
		flags = append(flags, Flag{Warning, CodeHighSaturatedFat, "High in saturated fat"})
	}

	// labels print sodium in mg
	if v, ok := rec.Get(nutrition.Sodium); ok && v.Value/1000 >= e.t.SodiumHighGrams {
		flags = append(flags, Flag{Warning, CodeHighSodium, "High sodium content"})
	}

	if v, ok := rec.Get(nutrition.Protein); ok {
		if v.Value < e.t.ProteinGood {
			flags = append(flags, Flag{Info, CodeLowProtein, "Low in protein"})
		} else {
			flags = append(flags, Flag{Positive, CodeGoodProtein, "Good source of protein"})
		}
	}

	if v, ok := rec.Get(nutrition.Calcium); ok && v.Percent() >= e.t.CalciumGoodPct {
		flags = append(flags, Flag{Positive, CodeGoodCalcium, "Good source of calcium"})
	}

	if v, ok := rec.Get(nutrition.Iron); ok && v.Percent() >= e.t.IronGoodPct {
		flags = append(flags, Flag{Positive, CodeGoodIron, "Good source of iron"})
	}

	return flags
}
