package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ============================================================================
// HEADER VALIDATION — Does a CSV carry the columns the dashboard needs?
// ============================================================================

// MissingColumns returns the required columns absent from headers.
// Header matching trims surrounding whitespace and a UTF-8 BOM.
func (c Config) MissingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[CleanHeader(h)] = true
	}
	var missing []string
	for _, col := range c.RequiredColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// ReadHeaders reads only the header row of CSV data.
func ReadHeaders(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}
	for i := range headers {
		headers[i] = CleanHeader(headers[i])
	}
	return headers, nil
}

// CleanHeader trims whitespace and a leading byte-order mark.
func CleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
}
