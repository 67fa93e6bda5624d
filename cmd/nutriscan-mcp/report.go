package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ironsheep/nutriscan-mcp/internal/pipeline"
)

// writeResult prints res as indented JSON or as a plain report.
func writeResult(w io.Writer, res *pipeline.Analysis, asJSON, includeText bool) error {
	if !includeText {
		copied := *res
		copied.RawText = ""
		copied.CleanedText = ""
		copied.Words = nil
		res = &copied
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := io.WriteString(w, formatReport(res))
	return err
}

// formatReport renders the plain-text report:
//
//	Status: narrative_skipped
//	Serving size: 1 cup (228g)
//
//	Main Nutrients:
//	Calories: 250
//	...
func formatReport(res *pipeline.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: %s\n", res.Status)
	if res.Message != "" {
		fmt.Fprintf(&b, "%s\n", res.Message)
	}

	if s, ok := res.Record.Serving(); ok {
		fmt.Fprintf(&b, "Serving size: %s %s (%dg)\n", s.Amount, s.Unit, s.Grams)
	}
	if n, ok := res.Record.ServingsPerContainer(); ok {
		fmt.Fprintf(&b, "Servings per container: %d\n", n)
	}
	if res.OCRConfidence != nil {
		fmt.Fprintf(&b, "OCR confidence: %.0f%%\n", *res.OCRConfidence*100)
	}

	if res.Payload != "" {
		b.WriteString("\n")
		b.WriteString(res.Payload)
		b.WriteString("\n")
	}

	if res.Narrative != "" {
		b.WriteString("\nSummary:\n")
		b.WriteString(res.Narrative)
		b.WriteString("\n")
	}

	if res.RawText != "" {
		b.WriteString("\nOCR text:\n")
		b.WriteString(strings.TrimRight(res.RawText, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
