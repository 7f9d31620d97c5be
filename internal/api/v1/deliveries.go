package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cylindertrack/internal/model"
	"cylindertrack/internal/service/calculator"
	"cylindertrack/internal/service/reconcile"
)

// CalculateResponse 自动计算预览及对账提示
type CalculateResponse struct {
	calculator.Calculation
	ReconciliationRequired bool                        `json:"reconciliation_required"`
	RemainingReasons       int                         `json:"remaining_reasons"`
	DefaultReason          *model.ReconciliationReason `json:"default_reason,omitempty"` // 表单“添加原因”的默认值
}

// CalculateDelivery 自动计算预览，不保存
// POST /api/deliveries/calculate
func (h *Handler) CalculateDelivery(c *gin.Context) {
	var in model.DeliveryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resp := CalculateResponse{
		Calculation:            h.ledger.Calculate(in),
		ReconciliationRequired: reconcile.Required(in.CylindersDelivered, in.EmptyReceived),
		RemainingReasons:       reconcile.Remaining(in.CylindersDelivered, in.EmptyReceived, in.ReconciliationReasons),
	}
	if resp.RemainingReasons > 0 {
		r := reconcile.NewReason(in.CylindersDelivered, in.EmptyReceived)
		resp.DefaultReason = &r
	}
	c.JSON(http.StatusOK, resp)
}

// CreateDelivery 新增交付记录；存在差异但原因不完整时返回 422
// POST /api/deliveries
func (h *Handler) CreateDelivery(c *gin.Context) {
	var in model.DeliveryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	d, err := h.ledger.AddDelivery(in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// ListDeliveryDates 有记录的日期（新到旧）
// GET /api/deliveries/dates
func (h *Handler) ListDeliveryDates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dates": h.ledger.Dates()})
}

// ListDeliveriesByDate 加载某日记录并设为当前集合
// GET /api/deliveries/date/:date
func (h *Handler) ListDeliveriesByDate(c *gin.Context) {
	list, err := h.ledger.LoadDeliveriesByDate(c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateDelivery 修改当前已加载集合中的一条记录
// PUT /api/deliveries/:id?date=yyyy-mm-dd
func (h *Handler) UpdateDelivery(c *gin.Context) {
	var patch model.DeliveryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if date := strings.TrimSpace(c.Query("date")); date != "" {
		if _, err := h.ledger.LoadDeliveriesByDate(date); err != nil {
			h.respondError(c, err)
			return
		}
	}

	d, err := h.ledger.UpdateDelivery(c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetDailySummary 某日汇总
// GET /api/deliveries/summary/:date
func (h *Handler) GetDailySummary(c *gin.Context) {
	s, err := h.ledger.DailySummary(c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
