package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 持久化布局中金额字段为 JSON 数字
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout 交付日期格式（yyyy-mm-dd）
const DateLayout = "2006-01-02"

// Direction 空瓶差异方向
type Direction string

const (
	DirectionMissing Direction = "missing" // 回收空瓶少于交付数
	DirectionExtra   Direction = "extra"   // 回收空瓶多于交付数
)

// Valid 是否为已知方向
func (d Direction) Valid() bool {
	return d == DirectionMissing || d == DirectionExtra
}

// ReasonCode 对账原因代码
type ReasonCode string

const (
	ReasonNoConsumer  ReasonCode = "NC"
	ReasonDBC         ReasonCode = "DBC"
	ReasonTV          ReasonCode = "TV"
	ReasonEmptyBaki   ReasonCode = "Empty baki"
	ReasonEmptyReturn ReasonCode = "Empty Return"
)

// ReasonCodes 全部原因代码（按表单顺序）
var ReasonCodes = []ReasonCode{
	ReasonNoConsumer,
	ReasonDBC,
	ReasonTV,
	ReasonEmptyBaki,
	ReasonEmptyReturn,
}

// Valid 是否为已知原因代码
func (c ReasonCode) Valid() bool {
	for _, v := range ReasonCodes {
		if c == v {
			return true
		}
	}
	return false
}

// RequiresConsumerName NC/DBC/TV 必须填写用户姓名
func (c ReasonCode) RequiresConsumerName() bool {
	switch c {
	case ReasonNoConsumer, ReasonDBC, ReasonTV:
		return true
	}
	return false
}

// ReconciliationStatus 对账状态
type ReconciliationStatus string

const (
	ReconciliationPending  ReconciliationStatus = "pending"
	ReconciliationComplete ReconciliationStatus = "complete"
)

// ReconciliationReason 一条对账原因，对应一个无法解释的钢瓶
type ReconciliationReason struct {
	Type         Direction  `json:"type" validate:"omitempty,oneof=missing extra"`
	Reason       ReasonCode `json:"reason" validate:"required"`
	ConsumerName string     `json:"consumer_name,omitempty"`
}

// Label 导出用的展示文本
func (r ReconciliationReason) Label() string {
	if name := strings.TrimSpace(r.ConsumerName); name != "" {
		return string(r.Reason) + ": " + name
	}
	return string(r.Reason)
}

// Delivery 一条交付记录
type Delivery struct {
	ID                   string          `json:"id"`
	Date                 string          `json:"date"`
	EmployeeName         string          `json:"employee_name"`
	CylindersDelivered   int             `json:"cylinders_delivered"`
	EmptyReceived        int             `json:"empty_received"`
	OnlinePayments       int             `json:"online_payments"`
	PaytmPayments        int             `json:"paytm_payments"`
	PartialDigitalAmount decimal.Decimal `json:"partial_digital_amount"`
	CashCollected        decimal.Decimal `json:"cash_collected"`
	UnitPrice            decimal.Decimal `json:"unit_price"`

	// 派生字段
	CalculatedCashCylinders int             `json:"calculated_cash_cylinders"`
	CalculatedCashAmount    decimal.Decimal `json:"calculated_cash_amount"`
	CalculatedTotalPayable  decimal.Decimal `json:"calculated_total_payable"`

	ReconciliationStatus  ReconciliationStatus   `json:"reconciliation_status"`
	ReconciliationReasons []ReconciliationReason `json:"reconciliation_reasons"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeliveryInput 交付表单提交内容
type DeliveryInput struct {
	Date                  string                 `json:"date" validate:"omitempty,datetime=2006-01-02"`
	EmployeeName          string                 `json:"employee_name"`
	CylindersDelivered    int                    `json:"cylinders_delivered" validate:"gte=0"`
	EmptyReceived         int                    `json:"empty_received" validate:"gte=0"`
	OnlinePayments        int                    `json:"online_payments" validate:"gte=0"`
	PaytmPayments         int                    `json:"paytm_payments" validate:"gte=0"`
	PartialDigitalAmount  decimal.Decimal        `json:"partial_digital_amount"`
	CashCollected         decimal.Decimal        `json:"cash_collected"`
	ReconciliationReasons []ReconciliationReason `json:"reconciliation_reasons" validate:"dive"`
}

// DeliveryPatch 交付记录的部分更新；nil 字段保持不变
type DeliveryPatch struct {
	EmployeeName          *string                `json:"employee_name"`
	CylindersDelivered    *int                   `json:"cylinders_delivered" validate:"omitempty,gte=0"`
	EmptyReceived         *int                   `json:"empty_received" validate:"omitempty,gte=0"`
	OnlinePayments        *int                   `json:"online_payments" validate:"omitempty,gte=0"`
	PaytmPayments         *int                   `json:"paytm_payments" validate:"omitempty,gte=0"`
	PartialDigitalAmount  *decimal.Decimal       `json:"partial_digital_amount"`
	CashCollected         *decimal.Decimal       `json:"cash_collected"`
	ReconciliationReasons []ReconciliationReason `json:"reconciliation_reasons" validate:"omitempty,dive"`
}
