// Package export writes dashboard data to spreadsheet formats: CSV for the
// frequency chart and tables, XLSX for the whole dashboard.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spektr-org/campusmap/engine"
)

// ============================================================================
// CSV OUTPUT — Chart and table data, ready for Sheets/Excel
// ============================================================================

// WriteCSV writes the frequency chart as CSV, falling back to the frequency
// table and then to the text line.
func WriteCSV(w io.Writer, dash *engine.Dashboard) error {
	cw := csv.NewWriter(w)

	switch {
	case dash == nil:
		cw.Write([]string{"Result", "No data"})
	case dash.Chart != nil && len(dash.Chart.Series) > 0:
		writeChart(cw, dash.Chart)
	case dash.FrequencyTable != nil:
		writeTable(cw, dash.FrequencyTable)
	default:
		reply := "No data"
		if dash.Text != nil && dash.Text.Value != "" {
			reply = dash.Text.Value
		}
		cw.Write([]string{"Summary"})
		cw.Write([]string{reply})
	}

	cw.Flush()
	return cw.Error()
}

// WriteTableCSV writes any TableData as CSV with a header row of column labels.
func WriteTableCSV(w io.Writer, table *engine.TableData) error {
	if table == nil {
		return fmt.Errorf("no table to export")
	}
	cw := csv.NewWriter(w)
	writeTable(cw, table)
	cw.Flush()
	return cw.Error()
}

// WriteFrequencyCSV writes a FrequencyTable as value,count rows.
func WriteFrequencyCSV(w io.Writer, freqs []engine.Frequency) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"value", "count"})
	for _, f := range freqs {
		cw.Write([]string{f.Value, fmt.Sprintf("%d", f.Count)})
	}
	cw.Flush()
	return cw.Error()
}

func writeChart(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := chart.XAxis
	yLabel := chart.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(chart.Series) == 1 {
		cw.Write([]string{xLabel, yLabel})
		for _, d := range chart.Series[0].Data {
			cw.Write([]string{d.Label, FmtNum(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series
	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)

	for i, d := range chart.Series[0].Data {
		row := []string{d.Label}
		for _, s := range chart.Series {
			if i < len(s.Data) {
				row = append(row, FmtNum(s.Data[i].Value))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
}

func writeTable(cw *csv.Writer, table *engine.TableData) {
	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
}

// FmtNum prints whole numbers without decimals, fractions with two.
func FmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
