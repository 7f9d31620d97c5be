package model

import "github.com/shopspring/decimal"

// DailySummary 某日交付汇总，读时计算，不持久化
type DailySummary struct {
	TotalCylindersDelivered int             `json:"total_cylinders_delivered"`
	TotalEmptyReceived      int             `json:"total_empty_received"`
	TotalOnlinePayments     int             `json:"total_online_payments"`
	TotalPaytmPayments      int             `json:"total_paytm_payments"`
	TotalPartialDigital     decimal.Decimal `json:"total_partial_digital"`
	TotalCashCollected      decimal.Decimal `json:"total_cash_collected"`
}
