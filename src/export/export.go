// Package export writes the build store to an Excel workbook with a native scatter chart.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"buildtrend/src/buildstore"
	"buildtrend/src/chart"
)

const (
	BuildsSheet  = "Builds"
	SummarySheet = "Summary"
)

var header = []interface{}{"Start", "Minutes", "Duration (s)", "Pull request", "URI"}

// Workbook writes every build in store to path. Rows are in start order;
// the chart is omitted when the store is empty. It returns the row count.
func Workbook(store *buildstore.Store, path string, title string) (int, error) {
	points, err := chart.LoadPoints(store)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BuildsSheet); err != nil {
		return 0, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeBuilds(f, points, store.Entries()); err != nil {
		return 0, err
	}
	if len(points) > 0 {
		if err := addChart(f, len(points), title); err != nil {
			return 0, err
		}
	}
	if err := writeSummary(f, store.Summarize()); err != nil {
		return 0, err
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return len(points), nil
}

func writeBuilds(f *excelize.File, points []chart.Point, entries []buildstore.Entry) error {
	if err := f.SetSheetRow(BuildsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(BuildsSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	// points and entries share the store's key order.
	for i, p := range points {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.Time, p.Minutes, entries[i].Duration, p.PullRequest, p.URI}
		if err := f.SetSheetRow(BuildsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if len(points) > 0 {
		dateFmt := "yyyy-mm-dd hh:mm:ss"
		dates, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
		if err != nil {
			return fmt.Errorf("failed to create style: %w", err)
		}
		last := fmt.Sprintf("A%d", len(points)+1)
		if err := f.SetCellStyle(BuildsSheet, "A2", last, dates); err != nil {
			return fmt.Errorf("failed to style dates: %w", err)
		}
	}

	if err := f.SetColWidth(BuildsSheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(BuildsSheet, "E", "E", 60); err != nil {
		return err
	}
	return f.SetPanes(BuildsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func addChart(f *excelize.File, rows int, title string) error {
	last := rows + 1
	return f.AddChart(BuildsSheet, "G2", &excelize.Chart{
		Type: excelize.Scatter,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$B$1", BuildsSheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", BuildsSheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", BuildsSheet, last),
				Line:       excelize.ChartLine{Type: excelize.ChartLineNone},
				Marker:     excelize.ChartMarker{Symbol: "circle", Size: 3},
			},
		},
		Title: []excelize.RichTextRun{{Text: title}},
		XAxis: excelize.ChartAxis{
			NumFmt: excelize.ChartNumFmt{CustomNumFmt: "yyyy-mm-dd"},
		},
		YAxis: excelize.ChartAxis{
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: "duration (minutes)"}},
		},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 400},
	})
}

func writeSummary(f *excelize.File, s buildstore.Stats) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Builds", s.Count},
		{"First start", s.First},
		{"Last start", s.Last},
		{"Min duration (s)", s.Min},
		{"Max duration (s)", s.Max},
		{"Mean duration (s)", s.Mean},
		{"Median duration (s)", s.Median},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 22)
}
