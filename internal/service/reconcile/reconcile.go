// Package reconcile 空瓶差异对账规则：差异数必须由等量的原因条目逐一解释。
package reconcile

import (
	"strings"

	"cylindertrack/internal/model"
	"cylindertrack/internal/service/calculator"
)

// Field 校验错误所属字段
const Field = "reconciliation_reasons"

// Required 是否需要对账
func Required(delivered, emptyReceived int) bool {
	return calculator.Mismatch(delivered, emptyReceived) > 0
}

// Validate 整体校验原因列表：条数等于差异数，且 NC/DBC/TV 均填写了用户姓名。
// 不接受部分通过。
func Validate(delivered, emptyReceived int, reasons []model.ReconciliationReason) error {
	mismatch := calculator.Mismatch(delivered, emptyReceived)

	if len(reasons) != mismatch {
		return model.NewValidationError(Field, "Please provide exactly %d reconciliation reasons", mismatch).
			WithDetail("mismatch", mismatch).
			WithDetail("provided", len(reasons)).
			WithDetail("direction", calculator.DirectionOf(delivered, emptyReceived))
	}

	for i, r := range reasons {
		if !r.Reason.Valid() {
			return model.NewValidationError(Field, "Unknown reconciliation reason %q", string(r.Reason)).
				WithDetail("index", i)
		}
		if r.Type != "" && !r.Type.Valid() {
			return model.NewValidationError(Field, "Unknown reconciliation type %q", string(r.Type)).
				WithDetail("index", i)
		}
		if r.Reason.RequiresConsumerName() && strings.TrimSpace(r.ConsumerName) == "" {
			return model.NewValidationError(Field, "Consumer name required for %s", string(r.Reason)).
				WithDetail("index", i)
		}
	}

	return nil
}

// Status 按记录当前内容推导对账状态
func Status(delivered, emptyReceived int, reasons []model.ReconciliationReason) model.ReconciliationStatus {
	if Validate(delivered, emptyReceived, reasons) == nil {
		return model.ReconciliationComplete
	}
	return model.ReconciliationPending
}

// Remaining 还需补充的原因条数
func Remaining(delivered, emptyReceived int, reasons []model.ReconciliationReason) int {
	n := calculator.Mismatch(delivered, emptyReceived) - len(reasons)
	if n < 0 {
		return 0
	}
	return n
}

// NewReason 新增一条原因的默认值（NC，方向随差异）
func NewReason(delivered, emptyReceived int) model.ReconciliationReason {
	dir := model.DirectionMissing
	if delivered < emptyReceived {
		dir = model.DirectionExtra
	}
	return model.ReconciliationReason{
		Type:   dir,
		Reason: model.ReasonNoConsumer,
	}
}

// Normalize 补全方向、去除姓名首尾空白，返回新切片
func Normalize(delivered, emptyReceived int, reasons []model.ReconciliationReason) []model.ReconciliationReason {
	out := make([]model.ReconciliationReason, len(reasons))
	dir := calculator.DirectionOf(delivered, emptyReceived)
	for i, r := range reasons {
		if r.Type == "" {
			r.Type = dir
		}
		r.ConsumerName = strings.TrimSpace(r.ConsumerName)
		out[i] = r
	}
	return out
}
