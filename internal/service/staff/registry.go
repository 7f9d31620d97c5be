package staff

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cylindertrack/internal/logging"
	"cylindertrack/internal/model"
	"cylindertrack/internal/store"
)

// Key 花名册在存储中的键（含已删除员工）
const Key = "employees"

// MsgNameRequired 姓名校验提示
const MsgNameRequired = "Please enter employee name"

// ErrEmployeeNotFound 员工不存在或已删除
var ErrEmployeeNotFound = errors.New("employee not found")

// Registry 配送员花名册；删除只改状态，历史交付记录仍可追溯
type Registry struct {
	kv     store.KV
	logger *logrus.Logger
	now    func() time.Time
	newID  func() string

	mu     sync.Mutex
	all    []model.Employee
	loaded bool
}

// NewRegistry 创建花名册
func NewRegistry(kv store.KV, logger *logrus.Logger) *Registry {
	return &Registry{
		kv:     kv,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load 从存储重新读取，返回在职员工
func (r *Registry) Load() []model.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	return activeOnly(r.all)
}

func (r *Registry) loadLocked() {
	raw, err := r.kv.Get(Key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.StorageFallback(r.logger, "staff", "Load", Key, err)
			if r.loaded {
				return
			}
		}
		r.all = nil
		r.loaded = true
		return
	}

	var list []model.Employee
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logging.StorageFallback(r.logger, "staff", "Load", Key, fmt.Errorf("decode: %w", err))
		if !r.loaded {
			r.all = nil
			r.loaded = true
		}
		return
	}
	r.all = list
	r.loaded = true
}

func (r *Registry) ensureLoadedLocked() {
	if !r.loaded {
		r.loadLocked()
	}
}

// Employees 在职员工列表
func (r *Registry) Employees() []model.Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()
	return activeOnly(r.all)
}

// Get 按 ID 查询员工（包括已删除的）
func (r *Registry) Get(id string) (model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	for _, e := range r.all {
		if e.ID == id {
			return e, nil
		}
	}
	return model.Employee{}, ErrEmployeeNotFound
}

// AddEmployee 新增员工；姓名去除首尾空白后不能为空，允许重名
func (r *Registry) AddEmployee(name string) (model.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Employee{}, model.NewValidationError("name", MsgNameRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	emp := model.Employee{
		ID:        r.newID(),
		Name:      name,
		Status:    model.EmployeeActive,
		CreatedAt: r.now().UTC(),
	}

	next := make([]model.Employee, 0, len(r.all)+1)
	next = append(next, r.all...)
	next = append(next, emp)

	if err := r.persistLocked(next, "AddEmployee"); err != nil {
		return model.Employee{}, err
	}
	r.logger.WithFields(logrus.Fields{"id": emp.ID, "name": emp.Name}).Info("employee added")
	return emp, nil
}

// DeleteEmployee 软删除：状态置为 inactive，记录保留
func (r *Registry) DeleteEmployee(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLoadedLocked()

	idx := -1
	for i, e := range r.all {
		if e.ID == id && e.IsActive() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrEmployeeNotFound
	}

	next := append([]model.Employee(nil), r.all...)
	deletedAt := r.now().UTC()
	next[idx].Status = model.EmployeeInactive
	next[idx].DeletedAt = &deletedAt

	if err := r.persistLocked(next, "DeleteEmployee"); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{"id": id, "name": next[idx].Name}).Info("employee deactivated")
	return nil
}

// persistLocked 写回完整列表，成功后才替换内存状态
func (r *Registry) persistLocked(next []model.Employee, funcName string) error {
	body, err := json.Marshal(next)
	if err == nil {
		err = r.kv.Set(Key, string(body))
	}
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"module":   "staff",
			"funcName": funcName,
			"key":      Key,
		}).WithError(err).Error("failed to persist employees")
		return fmt.Errorf("%w: %v", model.ErrStorage, err)
	}
	r.all = next
	return nil
}

func activeOnly(all []model.Employee) []model.Employee {
	out := make([]model.Employee, 0, len(all))
	for _, e := range all {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	return out
}
