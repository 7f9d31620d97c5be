package exporter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cylindertrack/internal/model"
	"cylindertrack/internal/service/calculator"
)

// ErrNoDeliveries 当日没有可导出的记录
var ErrNoDeliveries = errors.New("no deliveries found for this date")

// Format 导出格式
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat 解析导出格式，默认 xlsx
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType 下载响应的 MIME 类型
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName 导出文件名 deliveries_<date>.<ext>
func FileName(date string, f Format) string {
	return fmt.Sprintf("deliveries_%s.%s", date, f)
}

// NoMismatch 无对账原因时的展示文本
const NoMismatch = "No mismatch"

// TotalLabel 合计行首列
const TotalLabel = "TOTAL"

// Report 一日交付导出内容
type Report struct {
	Date       string
	Deliveries []model.Delivery
	Summary    model.DailySummary
}

// NewReport 组装导出内容，合计行由记录现算
func NewReport(date string, deliveries []model.Delivery) (Report, error) {
	if len(deliveries) == 0 {
		return Report{}, ErrNoDeliveries
	}
	return Report{
		Date:       date,
		Deliveries: deliveries,
		Summary:    calculator.Summarize(deliveries),
	}, nil
}

// FormatReconciliation 对账原因：逗号连接的 "原因: 用户" 或原因代码
func FormatReconciliation(reasons []model.ReconciliationReason) string {
	if len(reasons) == 0 {
		return NoMismatch
	}
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, r.Label())
	}
	return strings.Join(parts, ", ")
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// row 一行导出数据；数值列保持数值类型，供 xlsx 写入
type row struct {
	serial         any
	staff          string
	delivered      int
	empty          int
	online         int
	paytm          int
	partialDigital decimal.Decimal
	cash           decimal.Decimal
	reconciliation string
}

func (r Report) rows() []row {
	out := make([]row, 0, len(r.Deliveries)+1)
	for i, d := range r.Deliveries {
		out = append(out, row{
			serial:         i + 1,
			staff:          d.EmployeeName,
			delivered:      d.CylindersDelivered,
			empty:          d.EmptyReceived,
			online:         d.OnlinePayments,
			paytm:          d.PaytmPayments,
			partialDigital: d.PartialDigitalAmount,
			cash:           d.CashCollected,
			reconciliation: FormatReconciliation(d.ReconciliationReasons),
		})
	}
	out = append(out, row{
		serial:         TotalLabel,
		delivered:      r.Summary.TotalCylindersDelivered,
		empty:          r.Summary.TotalEmptyReceived,
		online:         r.Summary.TotalOnlinePayments,
		paytm:          r.Summary.TotalPaytmPayments,
		partialDigital: r.Summary.TotalPartialDigital,
		cash:           r.Summary.TotalCashCollected,
	})
	return out
}

func (r row) strings() []string {
	serial := fmt.Sprint(r.serial)
	if n, ok := r.serial.(int); ok {
		serial = strconv.Itoa(n)
	}
	return []string{
		serial,
		r.staff,
		strconv.Itoa(r.delivered),
		strconv.Itoa(r.empty),
		strconv.Itoa(r.online),
		strconv.Itoa(r.paytm),
		amount(r.partialDigital),
		amount(r.cash),
		r.reconciliation,
	}
}
