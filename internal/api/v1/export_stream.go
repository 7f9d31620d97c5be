package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cylindertrack/internal/exporter"
)

const exportDownloadTTL = 10 * time.Minute

// ExportStreamRequest 流式导出请求；date 为空时导出今天
type ExportStreamRequest struct {
	Date   string `json:"date"`
	Format string `json:"format"`
}

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExportStream 导出某日记录（SSE 进度 + 完成后提供一次性下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	var req ExportStreamRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = h.ledger.Today()
	}

	// 数据问题在建立流之前以普通 JSON 错误返回
	report, err := h.loadReport(date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "streaming not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
	fail := func(msg string, err error) {
		h.logger.WithError(err).WithField("date", report.Date).Error(msg)
		send(exportProgressEvent{
			Type:      "error",
			Message:   msg + ": " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
	}

	send(exportProgressEvent{
		Type:    "start",
		Message: "export started",
		Data: map[string]any{
			"date":       report.Date,
			"format":     format,
			"deliveries": len(report.Deliveries),
		},
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	dir := h.exportDir
	if dir == "" {
		dir = os.TempDir()
	}
	filePath := filepath.Join(dir, fmt.Sprintf("cylindertrack_export_%d_%d.%s", time.Now().UnixNano(), os.Getpid(), format))

	if err := writeExportFile(filePath, report, format, progressFn); err != nil {
		_ = os.Remove(filePath)
		fail("export failed", err)
		return
	}

	token := h.downloads.put(filePath, report.Date, format, exportDownloadTTL)
	prefix := strings.TrimSuffix(c.FullPath(), "/export/stream")
	downloadURL := fmt.Sprintf("%s/export/download/%s", prefix, token)

	send(exportProgressEvent{
		Type:    "done",
		Message: "export finished",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": downloadURL,
			"fileName":    exporter.FileName(report.Date, format),
		},
		Timestamp: time.Now(),
	})
}

func writeExportFile(path string, report exporter.Report, format exporter.Format, progress func(exporter.ProgressEvent)) error {
	if format == exporter.FormatCSV {
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := exporter.WriteCSV(out, report); err != nil {
			_ = out.Close()
			return err
		}
		if progress != nil {
			progress(exporter.ProgressEvent{Percent: 100, Stage: "done"})
		}
		return out.Close()
	}

	file, err := exporter.BuildWorkbook(report, exporter.ExportOptions{Progress: progress})
	if err != nil {
		return err
	}
	defer file.Close()
	return file.SaveAs(path)
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		badRequest(c, "missing token")
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "download link expired"})
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "export file not found"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.date, item.format))
	c.Header("Content-Type", item.format.ContentType())
	c.File(item.filePath)
}
