package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/campusmap/engine"
)

// Sheet names of the dashboard workbook.
const (
	SheetFrequency = "Frequency"
	SheetHeatmap   = "Heatmap"
	SheetSchools   = "Schools"
	SheetAbout     = "About"
)

// WriteXLSX writes the dashboard as a workbook: the frequency table, the
// heatmap points, every school, and the selection with page captions.
func WriteXLSX(w io.Writer, dash *engine.Dashboard) error {
	if dash == nil {
		return fmt.Errorf("no dashboard to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFrequency); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeFrequencySheet(f, dash); err != nil {
		return err
	}
	if err := writeHeatmapSheet(f, dash.Heatmap); err != nil {
		return err
	}
	if err := writeSchoolsSheet(f, dash); err != nil {
		return err
	}
	if err := writeAboutSheet(f, dash); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeFrequencySheet(f *excelize.File, dash *engine.Dashboard) error {
	headers := []interface{}{"Code", "Count"}
	table := dash.FrequencyTable
	withShare := table != nil && len(table.Columns) > 2
	if withShare {
		headers = append(headers, table.Columns[2].Label)
	}
	if err := setHeader(f, SheetFrequency, headers, 18); err != nil {
		return err
	}

	for i, fr := range dash.Frequency {
		row := []interface{}{fr.Value, fr.Count}
		if withShare && i < len(table.Rows) {
			row = append(row, table.Rows[i][2])
		}
		if err := setRow(f, SheetFrequency, i+2, row); err != nil {
			return err
		}
	}

	total := len(dash.Frequency) + 2
	return setRow(f, SheetFrequency, total, []interface{}{"Total", engine.TotalCount(dash.Frequency)})
}

func writeHeatmapSheet(f *excelize.File, layer *engine.HeatmapLayer) error {
	if _, err := f.NewSheet(SheetHeatmap); err != nil {
		return fmt.Errorf("creating sheet %s: %w", SheetHeatmap, err)
	}
	if err := setHeader(f, SheetHeatmap, []interface{}{"lon", "lat"}, 14); err != nil {
		return err
	}
	if layer == nil {
		return nil
	}
	for i, p := range layer.Points {
		if err := setRow(f, SheetHeatmap, i+2, []interface{}{p.Lon, p.Lat}); err != nil {
			return err
		}
	}
	return nil
}

func writeSchoolsSheet(f *excelize.File, dash *engine.Dashboard) error {
	if _, err := f.NewSheet(SheetSchools); err != nil {
		return fmt.Errorf("creating sheet %s: %w", SheetSchools, err)
	}

	// Full record table when present, otherwise the scatter points.
	if t := dash.Records; t != nil {
		headers := make([]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			headers[i] = c.Label
		}
		if err := setHeader(f, SheetSchools, headers, 16); err != nil {
			return err
		}
		for i, r := range t.Rows {
			row := make([]interface{}, len(r))
			for j, v := range r {
				row[j] = v
			}
			if err := setRow(f, SheetSchools, i+2, row); err != nil {
				return err
			}
		}
		return nil
	}

	if err := setHeader(f, SheetSchools, []interface{}{"NAME", "lon", "lat"}, 16); err != nil {
		return err
	}
	if dash.Scatter == nil {
		return nil
	}
	for i, p := range dash.Scatter.Points {
		if err := setRow(f, SheetSchools, i+2, []interface{}{p.Name, p.Lon, p.Lat}); err != nil {
			return err
		}
	}
	return nil
}

func writeAboutSheet(f *excelize.File, dash *engine.Dashboard) error {
	if _, err := f.NewSheet(SheetAbout); err != nil {
		return fmt.Errorf("creating sheet %s: %w", SheetAbout, err)
	}
	rows := [][]interface{}{
		{"State", dash.Selection.State},
		{"Attribute", dash.Selection.Attribute},
		{"Scheme", dash.Selection.Scheme},
	}
	if dash.Chart != nil {
		rows = append(rows, []interface{}{"Chart", dash.Chart.Title})
	}
	if dash.Text != nil {
		rows = append(rows, []interface{}{"Summary", dash.Text.Value})
	}
	for _, c := range dash.Captions.Chart {
		rows = append(rows, []interface{}{"Note", c})
	}
	if dash.Captions.Heatmap != "" {
		rows = append(rows, []interface{}{"Heatmap", dash.Captions.Heatmap})
	}
	if dash.Captions.Map != "" {
		rows = append(rows, []interface{}{"Map", dash.Captions.Map})
	}

	if err := f.SetColWidth(SheetAbout, "A", "A", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetAbout, "B", "B", 80); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, SheetAbout, i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func setHeader(f *excelize.File, sheet string, headers []interface{}, width float64) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s!%s: %w", sheet, cell, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}
