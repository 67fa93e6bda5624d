package nutrition

import (
	"fmt"
	"regexp"
	"strings"
)

// NutrientPattern describes how one nutrient row is recognized.
type NutrientPattern struct {
	Key NutrientKey

	// Label is a regular expression for the row name without a trailing
	// plural "s", e.g. `total\s+carbohydrate`.
	Label string

	// Units are the unit tokens accepted after the number. Empty means the
	// row is unitless (calories).
	Units []string
}

// Patterns is the immutable set of expressions a Parser uses. Build one
// with DefaultPatterns or NewPatterns; the zero value matches nothing.
type Patterns struct {
	nutrients        []compiledNutrient
	servingSize      *regexp.Regexp
	servingsLeading  *regexp.Regexp
	servingsTrailing *regexp.Regexp
	dailyValue       *regexp.Regexp
}

type compiledNutrient struct {
	key NutrientKey
	re  *regexp.Regexp
}

var (
	gramUnits      = []string{"g"}
	milligramUnits = []string{"mg"}
	microgramUnits = []string{"mcg", "µg"}
)

// DefaultNutrientPatterns returns the US nutrition facts row names.
func DefaultNutrientPatterns() []NutrientPattern {
	return []NutrientPattern{
		{Key: Calories, Label: `calorie`},
		{Key: TotalFat, Label: `total\s+fat`, Units: gramUnits},
		{Key: SaturatedFat, Label: `saturated\s+fat`, Units: gramUnits},
		{Key: TransFat, Label: `trans\s+fat`, Units: gramUnits},
		{Key: Cholesterol, Label: `cholesterol`, Units: milligramUnits},
		{Key: Sodium, Label: `sodium`, Units: milligramUnits},
		{Key: TotalCarbohydrate, Label: `total\s+carbohydrate`, Units: gramUnits},
		{Key: DietaryFiber, Label: `dietary\s+fiber`, Units: gramUnits},
		{Key: TotalSugars, Label: `total\s+sugar`, Units: gramUnits},
		{Key: AddedSugars, Label: `added\s+sugar`, Units: gramUnits},
		{Key: Protein, Label: `protein`, Units: gramUnits},
		{Key: VitaminD, Label: `vitamin\s+d`, Units: microgramUnits},
		{Key: Calcium, Label: `calcium`, Units: milligramUnits},
		{Key: Iron, Label: `iron`, Units: milligramUnits},
		{Key: Potassium, Label: `potassium`, Units: milligramUnits},
	}
}

// DefaultPatterns compiles DefaultNutrientPatterns. It panics only if the
// built-in expressions are broken.
func DefaultPatterns() Patterns {
	p, err := NewPatterns(DefaultNutrientPatterns())
	if err != nil {
		panic(err)
	}
	return p
}

// NewPatterns compiles nutrient row expressions together with the fixed
// serving and %DV expressions.
func NewPatterns(rows []NutrientPattern) (Patterns, error) {
	p := Patterns{
		servingSize: regexp.MustCompile(
			`(?i)serving\s+size\s*:?\s*(\d+(?:[.,]\d+)?(?:\s*/\s*\d+)?|\d*[¼½¾⅓⅔⅛])\s*([\p{L}]+)\s*\(\s*(\d+)\s*g\s*\)`),
		servingsLeading:  regexp.MustCompile(`(?i)(\d+)\s+servings?\s+per\s+container`),
		servingsTrailing: regexp.MustCompile(`(?i)servings?\s+per\s+container\s*:?\s*(?:about\s+)?(\d+)`),
		dailyValue:       regexp.MustCompile(`(\d+)%`),
	}
	seen := make(map[NutrientKey]bool, len(rows))
	for _, row := range rows {
		if _, err := ParseNutrientKey(string(row.Key)); err != nil {
			return Patterns{}, err
		}
		if seen[row.Key] {
			return Patterns{}, fmt.Errorf("duplicate pattern for %s", row.Key)
		}
		seen[row.Key] = true
		re, err := regexp.Compile(nutrientExpr(row))
		if err != nil {
			return Patterns{}, fmt.Errorf("compile pattern for %s: %w", row.Key, err)
		}
		p.nutrients = append(p.nutrients, compiledNutrient{key: row.Key, re: re})
	}
	return p, nil
}

// nutrientExpr builds `(?i)\b<label>s?\s*:?\s*(<number>)\s*(<units>)?`. The
// unit group only matches at a word boundary so "5g" does not eat the "g" of
// a following word.
func nutrientExpr(row NutrientPattern) string {
	var b strings.Builder
	b.WriteString(`(?i)\b(?:`)
	b.WriteString(row.Label)
	b.WriteString(`)s?\s*:?\s*(\d[\d.,]*|\.\d+)`)
	if len(row.Units) > 0 {
		quoted := make([]string, len(row.Units))
		for i, u := range row.Units {
			quoted[i] = regexp.QuoteMeta(u)
		}
		b.WriteString(`\s*(`)
		b.WriteString(strings.Join(quoted, "|"))
		b.WriteString(`)?`)
		b.WriteString(`(?:\b|$)`)
	}
	return b.String()
}
