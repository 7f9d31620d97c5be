package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateEmployeeRequest 新增配送员请求
type CreateEmployeeRequest struct {
	Name string `json:"name"`
}

// ListEmployees 在职配送员
// GET /api/employees
func (h *Handler) ListEmployees(c *gin.Context) {
	c.JSON(http.StatusOK, h.staff.Employees())
}

// CreateEmployee 新增配送员
// POST /api/employees
func (h *Handler) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	e, err := h.staff.AddEmployee(req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GetEmployee 按 ID 获取配送员（包含已停用）
// GET /api/employees/:id
func (h *Handler) GetEmployee(c *gin.Context) {
	e, err := h.staff.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteEmployee 停用配送员，记录保留
// DELETE /api/employees/:id
func (h *Handler) DeleteEmployee(c *gin.Context) {
	if err := h.staff.DeleteEmployee(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted successfully"})
}
