package calculator

import (
	"cylindertrack/internal/model"
)

// Summarize 汇总某日全部交付记录；空列表返回全零汇总
func Summarize(deliveries []model.Delivery) model.DailySummary {
	var s model.DailySummary
	for _, d := range deliveries {
		s = Add(s, d)
	}
	return s
}

// Add 将一条记录计入汇总
func Add(s model.DailySummary, d model.Delivery) model.DailySummary {
	s.TotalCylindersDelivered += d.CylindersDelivered
	s.TotalEmptyReceived += d.EmptyReceived
	s.TotalOnlinePayments += d.OnlinePayments
	s.TotalPaytmPayments += d.PaytmPayments
	s.TotalPartialDigital = s.TotalPartialDigital.Add(d.PartialDigitalAmount)
	s.TotalCashCollected = s.TotalCashCollected.Add(d.CashCollected)
	return s
}
