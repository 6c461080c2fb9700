package engine

import (
	"fmt"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Frequency table and full record table
// ============================================================================

// BuildFrequencyTable renders a FrequencyTable as rows of (code, count[, national share]).
// est may be nil, in which case the share column is omitted.
func BuildFrequencyTable(sel Selection, freqs []Frequency, est ShareEstimator) *TableData {
	columns := []Column{
		{Key: "value", Label: "Code", Type: "text", Align: "left"},
		{Key: "count", Label: "Count", Type: "number", Align: "right"},
	}
	if est != nil {
		columns = append(columns, Column{Key: "share", Label: "National share", Type: "percent", Align: "right"})
	}

	rows := make([][]string, 0, len(freqs))
	for _, f := range freqs {
		row := []string{f.Value, strconv.Itoa(f.Count)}
		if est != nil {
			row = append(row, FormatPercent(est.Share(sel.Attribute, f.Value)))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   fmt.Sprintf("%s codes in %s", sel.Attribute, sel.State),
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: "Total",
			Values: map[string]string{
				"count": FormatInt(TotalCount(freqs)),
			},
		},
	}
}

// BuildRecordTable lists every record with the given dimension columns
// followed by latitude and longitude.
func BuildRecordTable(view RecordView, keys []string) *TableData {
	if len(keys) == 0 {
		keys = view.DimensionKeys()
	}

	columns := make([]Column, 0, len(keys)+2)
	for _, key := range keys {
		columns = append(columns, Column{Key: key, Label: key, Type: "text", Align: "left"})
	}
	columns = append(columns,
		Column{Key: LatKey, Label: "lat", Type: "number", Align: "right"},
		Column{Key: LonKey, Label: "lon", Type: "number", Align: "right"},
	)

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		for _, key := range keys {
			row = append(row, view.Dimension(i, key))
		}
		row = append(row,
			strconv.FormatFloat(view.Measure(i, LatKey), 'f', -1, 64),
			strconv.FormatFloat(view.Measure(i, LonKey), 'f', -1, 64),
		)
		rows = append(rows, row)
	}

	return &TableData{
		Title:   "The data",
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Total (%s records)", FormatInt(view.Len())),
			Values: map[string]string{},
		},
	}
}
