package v1

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"cylindertrack/internal/exporter"
	"cylindertrack/internal/service/ledger"
)

// buildExportContentDisposition 下载文件名 deliveries_<date>.<ext>
func buildExportContentDisposition(date string, format exporter.Format) string {
	name := exporter.FileName(date, format)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", name, url.PathEscape(name))
}

// loadReport 读取某日记录组装导出内容，不改变当前已加载集合
func (h *Handler) loadReport(date string) (exporter.Report, error) {
	date, err := ledger.ParseDate(date)
	if err != nil {
		return exporter.Report{}, err
	}
	list, err := h.ledger.DeliveriesOn(date)
	if err != nil {
		return exporter.Report{}, err
	}
	return exporter.NewReport(date, list)
}

// Export 直接下载某日导出文件
// GET /api/export/:date?format=csv|xlsx
func (h *Handler) Export(c *gin.Context) {
	format, err := exporter.ParseFormat(c.Query("format"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	date := c.Param("date")
	report, err := h.loadReport(date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(report.Date, format))
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)

	switch format {
	case exporter.FormatCSV:
		err = exporter.WriteCSV(c.Writer, report)
	default:
		f, buildErr := exporter.BuildWorkbook(report, exporter.ExportOptions{})
		if buildErr != nil {
			err = buildErr
			break
		}
		_, err = f.WriteTo(c.Writer)
		_ = f.Close()
	}
	if err != nil {
		h.logger.WithError(err).WithField("date", report.Date).Error("export failed")
	}
}
