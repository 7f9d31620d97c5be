package model

import (
	"encoding/json"
	"time"
)

// EmployeeStatus 员工状态；删除只是将状态置为 inactive
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// Employee 配送员
type Employee struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    EmployeeStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}

// IsActive 是否在花名册中可见
func (e Employee) IsActive() bool {
	return e.Status == EmployeeActive
}

type employeeJSON struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    EmployeeStatus `json:"status,omitempty"`
	Active    *bool          `json:"active,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}

// MarshalJSON 同时写出 status 与旧版 active 字段
func (e Employee) MarshalJSON() ([]byte, error) {
	active := e.IsActive()
	return json.Marshal(employeeJSON{
		ID:        e.ID,
		Name:      e.Name,
		Status:    e.Status,
		Active:    &active,
		CreatedAt: e.CreatedAt,
		DeletedAt: e.DeletedAt,
	})
}

// UnmarshalJSON 兼容只有 active 布尔值的旧记录
func (e *Employee) UnmarshalJSON(data []byte) error {
	var raw employeeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	status := raw.Status
	if status == "" {
		status = EmployeeActive
		if raw.Active != nil && !*raw.Active {
			status = EmployeeInactive
		}
	}

	*e = Employee{
		ID:        raw.ID,
		Name:      raw.Name,
		Status:    status,
		CreatedAt: raw.CreatedAt,
		DeletedAt: raw.DeletedAt,
	}
	return nil
}
