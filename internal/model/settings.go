package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry 单价变更记录
type PriceEntry struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// Settings 单价设置
type Settings struct {
	CylinderPrice decimal.Decimal `json:"cylinder_price"`
	PriceHistory  []PriceEntry    `json:"price_history"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Clone 深拷贝（历史列表不共享底层数组）
func (s Settings) Clone() Settings {
	out := s
	out.PriceHistory = append([]PriceEntry(nil), s.PriceHistory...)
	return out
}
