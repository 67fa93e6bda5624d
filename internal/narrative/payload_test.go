package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/nutriscan-mcp/internal/health"
	"github.com/ironsheep/nutriscan-mcp/internal/nutrition"
)

func referenceRecord(t *testing.T) nutrition.Record {
	t.Helper()
	return nutrition.NewParser(nutrition.DefaultPatterns()).Parse(
		"Serving size 1 cup (228g)\nCalories 250\nTotal Fat 12g 15%\nSaturated Fat 3g\nSodium 470mg\nTotal Sugars 5g\nProtein 5g")
}

func TestBuildPayload(t *testing.T) {
	t.Run("Should render categories and considerations in fixed order", func(t *testing.T) {
		rec := referenceRecord(t)
		flags := health.NewEngine(health.DefaultThresholds()).Evaluate(rec)

		got := BuildPayload(rec, flags)

		want := "Main Nutrients:\n" +
			"Calories: 250 (15% Daily Value)\n" +
			"Total Fat: 12 (15% Daily Value)\n" +
			"Saturated Fat: 3\n" +
			"Sodium: 470\n" +
			"Protein: 5\n" +
			"\n" +
			"Sugars and Fiber:\n" +
			"Total Sugars: 5\n" +
			"\n" +
			"Health Considerations:\n" +
			"- Moderate sugar content\n" +
			"- Moderate fat content\n" +
			"- Good source of protein"
		assert.Equal(t, want, got)
	})

	t.Run("Should be deterministic", func(t *testing.T) {
		rec := referenceRecord(t)
		flags := health.NewEngine(health.DefaultThresholds()).Evaluate(rec)

		assert.Equal(t, BuildPayload(rec, flags), BuildPayload(rec, flags))
	})

	t.Run("Should note when there are no considerations", func(t *testing.T) {
		rec, err := nutrition.NewRecord(map[nutrition.NutrientKey]nutrition.NutrientValue{
			nutrition.VitaminD: {Value: 2, Unit: "mcg"},
		}, nil, nil)
		require.NoError(t, err)

		got := BuildPayload(rec, nil)

		assert.Equal(t, "Vitamins:\nVitamin D: 2\n\nHealth Considerations:\n- None noted", got)
	})

	t.Run("Should render only considerations for an empty record", func(t *testing.T) {
		got := BuildPayload(nutrition.Record{}, nil)

		assert.Equal(t, "Health Considerations:\n- None noted", got)
	})
}

func TestFormatNutrient(t *testing.T) {
	pct := 10.0
	testCases := []struct {
		name string
		key  nutrition.NutrientKey
		val  nutrition.NutrientValue
		want string
	}{
		{"integer", nutrition.Calories, nutrition.NutrientValue{Value: 250}, "Calories: 250"},
		{"fraction", nutrition.TotalFat, nutrition.NutrientValue{Value: 0.5}, "Total Fat: 0.5"},
		{"with percent", nutrition.Iron, nutrition.NutrientValue{Value: 8, DailyValuePercent: &pct}, "Iron: 8 (10% Daily Value)"},
		{"multiword", nutrition.TotalCarbohydrate, nutrition.NutrientValue{Value: 37}, "Total Carbohydrate: 37"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatNutrient(tc.key, tc.val))
		})
	}
}

func TestNewRequest(t *testing.T) {
	rec := referenceRecord(t)

	req := NewRequest(rec, nil)

	assert.Equal(t, SystemInstructions, req.SystemInstructions)
	assert.Equal(t, BuildPayload(rec, nil), req.UserPayload)
}
