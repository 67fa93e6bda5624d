// Package nutrition turns OCR text from a nutrition facts label into a typed
// Record.
//
// The package has two stages:
//
//   - Clean: strips OCR noise, rejoins hyphenated line-wraps and collapses
//     whitespace. Clean is idempotent.
//   - Parser.Parse: matches each known nutrient label followed by a number
//     and an optional unit, attaches the following %DV when present, and
//     reads serving size and servings per container.
//
// # Nutrient Keys
//
// NutrientKey is a closed set. Records only ever hold keys from
// AllNutrients(); a key that is absent means the label did not show it (or
// its number could not be read), never zero.
//
// # Units
//
// Values are stored as printed on the label: sodium, cholesterol, calcium,
// iron and potassium in milligrams, vitamin D in micrograms, everything else
// in grams. Nothing here converts units.
//
// # Failure Modes
//
// Parsing never fails. A number that does not coerce to a float drops that
// one nutrient; text with no recognizable labels yields an empty Record.
package nutrition
