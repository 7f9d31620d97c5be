package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName 工作表名称
const SheetName = "Deliveries"

// XLSXHeader 工作表列头（固定顺序）
var XLSXHeader = []string{
	"S.No", "Staff Name", "Cylinders Delivered", "Empty Received",
	"Online Payments", "Paytm Payments", "Partial Digital (₹)", "Cash Collected (₹)", "Reconciliation",
}

var columnWidths = []float64{8, 24, 20, 16, 16, 16, 20, 20, 48}

// ExportOptions 导出选项
type ExportOptions struct {
	Progress func(ProgressEvent)
}

// BuildWorkbook 生成一日交付工作簿：每条记录一行，末尾为合计行
func BuildWorkbook(r Report, opts ExportOptions) (*excelize.File, error) {
	reportProgress(opts.Progress, 5, "准备工作簿")

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeHeader(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 15, "写入表头")

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create amount style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create total style: %w", err)
	}
	totalAmountStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 2})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create total amount style: %w", err)
	}

	rows := r.rows()
	for i, data := range rows {
		rowNo := i + 2
		values := []any{
			data.serial,
			data.staff,
			data.delivered,
			data.empty,
			data.online,
			data.paytm,
			data.partialDigital.InexactFloat64(),
			data.cash.InexactFloat64(),
			data.reconciliation,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNo)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", rowNo, err)
		}

		style := amountStyle
		if i == len(rows)-1 {
			style = totalAmountStyle
			first, _ := excelize.CoordinatesToCellName(1, rowNo)
			last, _ := excelize.CoordinatesToCellName(len(XLSXHeader), rowNo)
			if err := f.SetCellStyle(SheetName, first, last, totalStyle); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("style total row: %w", err)
			}
		}
		from, _ := excelize.CoordinatesToCellName(7, rowNo)
		to, _ := excelize.CoordinatesToCellName(8, rowNo)
		if err := f.SetCellStyle(SheetName, from, to, style); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("style amounts row %d: %w", rowNo, err)
		}

		reportProgress(opts.Progress, 15+80*(i+1)/len(rows), "写入记录")
	}

	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "完成")
	return f, nil
}

func writeHeader(f *excelize.File) error {
	header := make([]any, len(XLSXHeader))
	for i, h := range XLSXHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}
