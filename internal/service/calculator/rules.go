package calculator

// 表单校验提示
const (
	MsgDeliveredRequired = "Please enter cylinders delivered"
	MsgNegativeCount     = "Cylinder counts cannot be negative"
	MsgDigitalExceeds    = "Online + Paytm payments cannot exceed total cylinders delivered"
	MsgNegativeAmount    = "Amounts cannot be negative"
)

// ValidateFigures 校验交付表单数值规则，返回全部违反项
func ValidateFigures(f Figures) []string {
	errs := make([]string, 0, 4)

	negative := f.CylindersDelivered < 0 || f.EmptyReceived < 0 || f.OnlinePayments < 0 || f.PaytmPayments < 0
	if negative {
		errs = append(errs, MsgNegativeCount)
	}
	if f.CylindersDelivered == 0 {
		errs = append(errs, MsgDeliveredRequired)
	}
	// 不做加法比较，避免大数溢出
	if !negative && digitalExceeds(f.CylindersDelivered, f.OnlinePayments, f.PaytmPayments) {
		errs = append(errs, MsgDigitalExceeds)
	}
	if f.PartialDigitalAmount.IsNegative() || f.CashCollected.IsNegative() {
		errs = append(errs, MsgNegativeAmount)
	}

	return errs
}

// digitalExceeds online + paytm > delivered（参数均非负）
func digitalExceeds(delivered, online, paytm int) bool {
	return online > delivered || paytm > delivered-online
}
