package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cylindertrack/internal/exporter"
	"cylindertrack/internal/model"
	"cylindertrack/internal/service/ledger"
	"cylindertrack/internal/service/reconcile"
	"cylindertrack/internal/service/staff"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string         `json:"error"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// statusOf 错误到 HTTP 状态码的映射
func statusOf(err error) int {
	if v, ok := model.AsValidation(err); ok {
		if v.Field == reconcile.Field {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, staff.ErrEmployeeNotFound),
		errors.Is(err, ledger.ErrDeliveryNotFound),
		errors.Is(err, exporter.ErrNoDeliveries):
		return http.StatusNotFound
	case errors.Is(err, model.ErrStorage):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	resp := ErrorResponse{Error: err.Error()}
	if v, ok := model.AsValidation(err); ok {
		resp.Error = v.Message
		resp.Field = v.Field
		resp.Details = v.Details
	}
	if status >= http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
