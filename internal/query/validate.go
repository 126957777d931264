package query

import (
	"fmt"
	"strings"
)

// maxQueryLength is the practical ceiling before PubMed starts rejecting or
// truncating search strings.
const maxQueryLength = 4000

// ValidationReport summarizes basic sanity checks on a built query string.
// Warnings do not block a search; callers decide whether to proceed.
type ValidationReport struct {
	Valid     bool     `json:"valid"`
	Warnings  []string `json:"warnings"`
	CharCount int      `json:"char_count"`
}

// Validate checks a query string for the failure modes that PubMed reports
// only as empty result sets: unbalanced parentheses, empty input, and
// excessive length.
func Validate(q string) ValidationReport {
	var warnings []string

	if strings.Count(q, "(") != strings.Count(q, ")") {
		warnings = append(warnings, "unbalanced parentheses in query")
	}

	if strings.TrimSpace(q) == "" {
		warnings = append(warnings, "query is empty")
	}

	if len(q) > maxQueryLength {
		warnings = append(warnings,
			fmt.Sprintf("query is very long (%d chars) and may exceed PubMed limits", len(q)))
	}

	return ValidationReport{
		Valid:     len(warnings) == 0,
		Warnings:  warnings,
		CharCount: len(q),
	}
}
