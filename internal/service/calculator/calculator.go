package calculator

import (
	"github.com/shopspring/decimal"

	"cylindertrack/internal/model"
)

// Figures 参与计算的表单数值
type Figures struct {
	CylindersDelivered   int
	EmptyReceived        int
	OnlinePayments       int
	PaytmPayments        int
	PartialDigitalAmount decimal.Decimal
	CashCollected        decimal.Decimal
}

// FiguresOf 从表单输入提取数值
func FiguresOf(in model.DeliveryInput) Figures {
	return Figures{
		CylindersDelivered:   in.CylindersDelivered,
		EmptyReceived:        in.EmptyReceived,
		OnlinePayments:       in.OnlinePayments,
		PaytmPayments:        in.PaytmPayments,
		PartialDigitalAmount: in.PartialDigitalAmount,
		CashCollected:        in.CashCollected,
	}
}

// FiguresOfDelivery 从已保存记录提取数值
func FiguresOfDelivery(d model.Delivery) Figures {
	return Figures{
		CylindersDelivered:   d.CylindersDelivered,
		EmptyReceived:        d.EmptyReceived,
		OnlinePayments:       d.OnlinePayments,
		PaytmPayments:        d.PaytmPayments,
		PartialDigitalAmount: d.PartialDigitalAmount,
		CashCollected:        d.CashCollected,
	}
}

// Calculation 自动计算结果
type Calculation struct {
	UnitPrice      decimal.Decimal `json:"unit_price"`
	CashCylinders  int             `json:"cash_cylinders"`
	CashAmount     decimal.Decimal `json:"cash_amount"`
	PartialDigital decimal.Decimal `json:"partial_digital"`
	TotalPayable   decimal.Decimal `json:"total_payable"` // 应收现金
	CashCollected  decimal.Decimal `json:"cash_collected"`
	Difference     decimal.Decimal `json:"difference"` // 实收 - 应收
	Mismatch       int             `json:"mismatch"`
	Direction      model.Direction `json:"direction,omitempty"`
}

// CashCylinders 现金钢瓶数 = max(0, 交付 - 在线 - Paytm)
func CashCylinders(delivered, online, paytm int) int {
	if delivered <= 0 || online < 0 || paytm < 0 {
		return max(delivered, 0)
	}
	if digitalExceeds(delivered, online, paytm) {
		return 0
	}
	return delivered - online - paytm
}

// Mismatch 交付数与回收空瓶数之差的绝对值
func Mismatch(delivered, emptyReceived int) int {
	if delivered >= emptyReceived {
		return delivered - emptyReceived
	}
	return emptyReceived - delivered
}

// DirectionOf 差异方向；无差异时为空
func DirectionOf(delivered, emptyReceived int) model.Direction {
	switch {
	case delivered > emptyReceived:
		return model.DirectionMissing
	case delivered < emptyReceived:
		return model.DirectionExtra
	}
	return ""
}

// Calculate 计算现金应收等派生数值
func Calculate(f Figures, unitPrice decimal.Decimal) Calculation {
	cashCylinders := CashCylinders(f.CylindersDelivered, f.OnlinePayments, f.PaytmPayments)
	cashAmount := unitPrice.Mul(decimal.NewFromInt(int64(cashCylinders)))
	totalPayable := cashAmount.Sub(f.PartialDigitalAmount)

	return Calculation{
		UnitPrice:      unitPrice,
		CashCylinders:  cashCylinders,
		CashAmount:     cashAmount,
		PartialDigital: f.PartialDigitalAmount,
		TotalPayable:   totalPayable,
		CashCollected:  f.CashCollected,
		Difference:     f.CashCollected.Sub(totalPayable),
		Mismatch:       Mismatch(f.CylindersDelivered, f.EmptyReceived),
		Direction:      DirectionOf(f.CylindersDelivered, f.EmptyReceived),
	}
}

// Apply 按记录自身单价回填派生字段
func Apply(d *model.Delivery) {
	calc := Calculate(FiguresOfDelivery(*d), d.UnitPrice)
	d.CalculatedCashCylinders = calc.CashCylinders
	d.CalculatedCashAmount = calc.CashAmount
	d.CalculatedTotalPayable = calc.TotalPayable
}
