package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Store           string          `json:"store"`            // 存储驱动
	CylinderPrice   decimal.Decimal `json:"cylinder_price"`   // 当前单价
	ActiveEmployees int             `json:"active_employees"` // 在职配送员数
	Today           string          `json:"today"`            // 业务时区下的今天
	LoadedDate      string          `json:"loaded_date"`      // 当前已加载的日期
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	loaded, _ := h.ledger.Deliveries()
	c.JSON(http.StatusOK, StatusResponse{
		Store:           h.driver,
		CylinderPrice:   h.settings.CylinderPrice(),
		ActiveEmployees: len(h.staff.Employees()),
		Today:           h.ledger.Today(),
		LoadedDate:      loaded,
	})
}
