package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpdateSettingsRequest 更新单价请求
type UpdateSettingsRequest struct {
	CylinderPrice decimal.Decimal `json:"cylinder_price"`
}

// GetSettings 获取单价设置（不存在时初始化默认值）
// GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Load())
}

// UpdateSettings 更新单价并追加历史
// PUT /api/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	s, err := h.settings.UpdateCylinderPrice(req.CylinderPrice)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GetPriceHistory 获取单价历史
// GET /api/settings/history
func (h *Handler) GetPriceHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"price_history": h.settings.History()})
}
