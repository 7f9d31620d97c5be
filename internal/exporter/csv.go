package exporter

import (
	"encoding/csv"
	"io"
)

// CSVHeader CSV 列头（固定顺序）
var CSVHeader = []string{
	"S.No", "Staff Name", "Cylinders Delivered", "Empty Received",
	"Online", "Paytm", "Partial Digital(₹)", "Cash(₹)", "Reconciliation",
}

// WriteCSV 写出一日记录与合计行
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range r.rows() {
		if err := cw.Write(row.strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
