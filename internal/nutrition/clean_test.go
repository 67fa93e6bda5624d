package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Calories 250", "Calories 250"},
		{"strips noise", "Total Fat: 12g* | 15%†", "Total Fat 12g 15%"},
		{"keeps allowed punctuation", "Sodium (470mg), 20% - daily.", "Sodium (470mg), 20% - daily."},
		{"joins hyphen wrap", "Total Carbo-\nhydrate 31g", "Total Carbohydrate 31g"},
		{"joins hyphen wrap with spaces", "Dietary Fi- \n  ber 4g", "Dietary Fiber 4g"},
		{"keeps hyphen without newline", "Fat-free 0g", "Fat-free 0g"},
		{"collapses whitespace", "Protein   \t 5g\n\n\nIron", "Protein 5g Iron"},
		{"trims", "  \n Calcium 20% \n ", "Calcium 20%"},
		{"keeps micro sign", "Vitamin D 2µg", "Vitamin D 2µg"},
		{"drops control characters", "Iron\x00 8mg\x07", "Iron 8mg"},
		{"no-break space", "Total\u00a0Fat 12g", "Total Fat 12g"},
		{"vertical tab", "Total\vFat 12g", "Total Fat 12g"},
		{"thin space before unit", "Sodium 470\u2009mg", "Sodium 470 mg"},
		{"no-break space runs collapse", "Protein\u00a0\u00a0 \u202f5g", "Protein 5g"},
		{"hyphen wrap with no-break space", "Carbo-\u00a0\n\u00a0hydrate 31g", "Carbohydrate 31g"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clean(tc.in))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Nutrition Facts\nServing Size 1 cup (228g)\nCalories 250",
		"Total Carbo-\nhydrate 31g 11%\n\n\n Dietary Fiber 0g",
		"a-\nb-\nc",
		"weird ™ symbols © and — dashes   nbsp \v vtab",
		"100%% daily ,,, value ..",
		"-\n-\n-",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestClean_UnicodeSpacesReachParser(t *testing.T) {
	parser := NewParser(DefaultPatterns())

	t.Run("Should parse a label name split by a no-break space", func(t *testing.T) {
		rec := parser.Parse(Clean("Total\u00a0Fat 12g 15%"))
		v, ok := rec.Get(TotalFat)
		assert.True(t, ok)
		assert.Equal(t, 12.0, v.Value)
		assert.Equal(t, 15.0, v.Percent())
	})

	t.Run("Should parse a label name split by a vertical tab", func(t *testing.T) {
		rec := parser.Parse(Clean("Saturated\vFat 3g"))
		v, ok := rec.Get(SaturatedFat)
		assert.True(t, ok)
		assert.Equal(t, 3.0, v.Value)
	})
}
