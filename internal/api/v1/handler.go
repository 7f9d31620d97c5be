package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cylindertrack/internal/service/ledger"
	"cylindertrack/internal/service/settings"
	"cylindertrack/internal/service/staff"
)

// Dependencies API 依赖的服务
type Dependencies struct {
	Settings  *settings.Manager
	Staff     *staff.Registry
	Ledger    *ledger.Ledger
	Logger    *logrus.Logger
	Driver    string // 存储驱动名，仅用于状态展示
	ExportDir string // 流式导出文件的落盘目录
}

// Handler V1 API 处理器
type Handler struct {
	settings  *settings.Manager
	staff     *staff.Registry
	ledger    *ledger.Ledger
	logger    *logrus.Logger
	driver    string
	exportDir string
	downloads *exportDownloadStore
}

// NewHandler 创建 V1 API 处理器
func NewHandler(d Dependencies) *Handler {
	return &Handler{
		settings:  d.Settings,
		staff:     d.Staff,
		ledger:    d.Ledger,
		logger:    d.Logger,
		driver:    d.Driver,
		exportDir: d.ExportDir,
		downloads: newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 单价设置
	router.GET("/settings", h.GetSettings)
	router.PUT("/settings", h.UpdateSettings)
	router.GET("/settings/history", h.GetPriceHistory)

	// 配送员
	router.GET("/employees", h.ListEmployees)
	router.POST("/employees", h.CreateEmployee)
	router.GET("/employees/:id", h.GetEmployee)
	router.DELETE("/employees/:id", h.DeleteEmployee)

	// 交付记录
	router.POST("/deliveries/calculate", h.CalculateDelivery)
	router.POST("/deliveries", h.CreateDelivery)
	router.GET("/deliveries/dates", h.ListDeliveryDates)
	router.GET("/deliveries/date/:date", h.ListDeliveriesByDate)
	router.PUT("/deliveries/:id", h.UpdateDelivery)
	router.GET("/deliveries/summary/:date", h.GetDailySummary)

	// 数据导出
	router.GET("/export/:date", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}
