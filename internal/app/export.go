package app

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"supply-agent/internal/core"
)

// Workbook sheet names.
const (
	SheetSuggestions = "Suggestions"
	SheetAlerts      = "Alerts"
	SheetPlan        = "Plan"
)

func (s *appService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return err
	}
	p := s.planner.Policy()
	plan := s.planner.AcquisitionPlan(ctx, records)
	return WriteWorkbook(w, core.Suggest(records, p), core.StockAlerts(records, p), plan.Items)
}

// WriteWorkbook renders the three report sheets into a single .xlsx document.
func WriteWorkbook(w io.Writer, suggestions []core.ReorderSuggestion, alerts []core.StockRecord, plan []core.ActionPlanItem) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSuggestions); err != nil {
		return err
	}
	rows := make([][]any, 0, len(suggestions))
	for _, sg := range suggestions {
		rows = append(rows, []any{sg.Code, sg.CurrentBalance, sg.ConsumptionRate, sg.ReorderQuantity})
	}
	if err := writeSheet(f, SheetSuggestions, header,
		[]any{"Code", "Current balance", "Consumption rate", "Reorder quantity"}, rows); err != nil {
		return err
	}

	rows = make([][]any, 0, len(alerts))
	for _, rec := range alerts {
		rows = append(rows, []any{rec.Code, string(rec.ABC), rec.ConsumptionRate, rec.PendingPurchases})
	}
	if err := writeSheet(f, SheetAlerts, header,
		[]any{"Code", "ABC", "Consumption rate", "Pending purchases"}, rows); err != nil {
		return err
	}

	rows = make([][]any, 0, len(plan))
	for _, item := range plan {
		rows = append(rows, []any{item.PriorityRank, item.Code, string(item.Action), item.ActionQuantity, item.Justification})
	}
	if err := writeSheet(f, SheetPlan, header,
		[]any{"Rank", "Code", "Action", "Quantity", "Justification"}, rows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("sheet %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("sheet %s header style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetColWidth(sheet, "A", "E", 18)
}
