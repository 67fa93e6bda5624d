// Package narrative builds the prompt handed to an external text model and
// wraps the models that can answer it.
//
// The prompt is deterministic: the same record and flags always produce the
// same payload byte for byte. Generated text is returned as-is; nothing here
// interprets it.
package narrative

import (
	"strconv"
	"strings"

	"github.com/ironsheep/nutriscan-mcp/internal/health"
	"github.com/ironsheep/nutriscan-mcp/internal/nutrition"
)

// SystemInstructions is the fixed preamble sent with every payload.
const SystemInstructions = `You are a friendly nutrition assistant. You will be given the nutrition facts read from a single food label, grouped by category, followed by a list of health considerations derived from fixed thresholds.

Write a short summary (3 to 5 sentences) for a general audience:
- Describe what one serving provides, mentioning the most notable nutrients.
- Explain each health consideration in plain language.
- Do not invent nutrients or values that are not listed.
- Do not give medical advice; suggest consulting a professional for specific dietary needs.

Use a warm, neutral tone and plain prose without headings or bullet points.`

// Category is one group of payload lines.
type Category struct {
	Name      string
	Nutrients []nutrition.NutrientKey
}

// Categories returns the payload groups in output order.
func Categories() []Category {
	return []Category{
		{
			Name: "Main Nutrients",
			Nutrients: []nutrition.NutrientKey{
				nutrition.Calories, nutrition.TotalFat, nutrition.SaturatedFat,
				nutrition.TransFat, nutrition.Cholesterol, nutrition.Sodium,
				nutrition.TotalCarbohydrate, nutrition.Protein,
			},
		},
		{
			Name:      "Sugars and Fiber",
			Nutrients: []nutrition.NutrientKey{nutrition.DietaryFiber, nutrition.TotalSugars, nutrition.AddedSugars},
		},
		{
			Name:      "Minerals",
			Nutrients: []nutrition.NutrientKey{nutrition.Calcium, nutrition.Iron, nutrition.Potassium},
		},
		{
			Name:      "Vitamins",
			Nutrients: []nutrition.NutrientKey{nutrition.VitaminD},
		},
	}
}

// Request is the exact input contract for a Generator.
type Request struct {
	SystemInstructions string `json:"system_instructions"`
	UserPayload        string `json:"user_payload"`
}

// NewRequest pairs the fixed preamble with the payload for rec and flags.
func NewRequest(rec nutrition.Record, flags []health.Flag) Request {
	return Request{
		SystemInstructions: SystemInstructions,
		UserPayload:        BuildPayload(rec, flags),
	}
}

// BuildPayload renders the nutrient lines and the health considerations:
//
//	Main Nutrients:
//	Calories: 250
//	Total Fat: 12 (15% Daily Value)
//
//	Health Considerations:
//	- Moderate fat content
//
// Categories with no parsed nutrient are left out.
func BuildPayload(rec nutrition.Record, flags []health.Flag) string {
	var b strings.Builder

	for _, cat := range Categories() {
		var lines []string
		for _, key := range cat.Nutrients {
			v, ok := rec.Get(key)
			if !ok {
				continue
			}
			lines = append(lines, FormatNutrient(key, v))
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString(cat.Name)
		b.WriteString(":\n")
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("Health Considerations:\n")
	if len(flags) == 0 {
		b.WriteString("- None noted\n")
	}
	for _, f := range flags {
		b.WriteString("- ")
		b.WriteString(f.Message)
		b.WriteByte('\n')
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatNutrient renders "<Title>: <value>[ (<percent>% Daily Value)]".
func FormatNutrient(key nutrition.NutrientKey, v nutrition.NutrientValue) string {
	s := key.Title() + ": " + formatNumber(v.Value)
	if v.DailyValuePercent != nil {
		s += " (" + formatNumber(*v.DailyValuePercent) + "% Daily Value)"
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
