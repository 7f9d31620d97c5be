package staff

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"cylindertrack/internal/logging"
	"cylindertrack/internal/model"
	"cylindertrack/internal/store"
	"cylindertrack/internal/store/storetest"
)

func newTestRegistry(kv store.KV) *Registry {
	r := NewRegistry(kv, logging.Discard())
	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("emp-%d", seq)
	}
	r.now = func() time.Time { return time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC) }
	return r
}

func TestAddEmployee_TrimsAndActivates(t *testing.T) {
	r := newTestRegistry(store.NewMemoryStore())

	emp, err := r.AddEmployee("  Ravi Kumar ")
	if err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}
	if emp.Name != "Ravi Kumar" || emp.Status != model.EmployeeActive || emp.ID != "emp-1" {
		t.Errorf("employee = %+v", emp)
	}
	if got := r.Employees(); len(got) != 1 {
		t.Errorf("Employees() len = %d, want 1", len(got))
	}
}

func TestAddEmployee_RejectsBlankName(t *testing.T) {
	kv := storetest.New()
	r := newTestRegistry(kv)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := r.AddEmployee(name)
		ve, ok := model.AsValidation(err)
		if !ok || ve.Message != MsgNameRequired {
			t.Errorf("AddEmployee(%q) err = %v", name, err)
		}
	}
	if kv.SetCalls() != 0 {
		t.Errorf("blank names must not write, got %d writes", kv.SetCalls())
	}
}

func TestAddEmployee_AllowsDuplicateNames(t *testing.T) {
	r := newTestRegistry(store.NewMemoryStore())
	_, _ = r.AddEmployee("Anil")
	_, _ = r.AddEmployee("Anil")

	if got := r.Employees(); len(got) != 2 || got[0].ID == got[1].ID {
		t.Errorf("duplicates should be kept as separate records: %+v", got)
	}
}

func TestDeleteEmployee_SoftDelete(t *testing.T) {
	kv := store.NewMemoryStore()
	r := newTestRegistry(kv)
	a, _ := r.AddEmployee("Anil")
	b, _ := r.AddEmployee("Bina")

	if err := r.DeleteEmployee(a.ID); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}

	active := r.Employees()
	if len(active) != 1 || active[0].ID != b.ID {
		t.Fatalf("active roster = %+v", active)
	}

	// 已删除员工仍可按 ID 查到
	got, err := r.Get(a.ID)
	if err != nil {
		t.Fatalf("Get deleted: %v", err)
	}
	if got.Status != model.EmployeeInactive || got.DeletedAt == nil {
		t.Errorf("deleted employee = %+v", got)
	}

	// 存储中保留全部记录
	raw, _ := kv.Get(Key)
	var stored []model.Employee
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d employees, want 2", len(stored))
	}

	// 重新加载后依旧过滤
	if got := newTestRegistry(kv).Load(); len(got) != 1 {
		t.Errorf("reloaded active roster len = %d, want 1", len(got))
	}

	if err := r.DeleteEmployee(a.ID); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("second delete err = %v, want ErrEmployeeNotFound", err)
	}
	if err := r.DeleteEmployee("missing"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("delete missing err = %v, want ErrEmployeeNotFound", err)
	}
}

func TestLoad_LegacyActiveFlag(t *testing.T) {
	kv := store.NewMemoryStore()
	_ = kv.Set(Key, `[
		{"id":"1","name":"Old","active":false,"created_at":"2024-01-01T00:00:00.000Z"},
		{"id":"2","name":"Current","active":true,"created_at":"2024-01-02T00:00:00.000Z"}
	]`)

	active := newTestRegistry(kv).Load()
	if len(active) != 1 || active[0].Name != "Current" {
		t.Errorf("active = %+v", active)
	}
}

func TestStorageFailures(t *testing.T) {
	kv := storetest.New()
	r := newTestRegistry(kv)
	if _, err := r.AddEmployee("Anil"); err != nil {
		t.Fatalf("AddEmployee: %v", err)
	}

	kv.FailSet(true)
	if _, err := r.AddEmployee("Bina"); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if got := r.Employees(); len(got) != 1 {
		t.Errorf("failed write changed roster: %+v", got)
	}

	kv.FailGet(true)
	if got := r.Load(); len(got) != 1 {
		t.Errorf("read failure should keep in-memory roster, got %+v", got)
	}
	if got := newTestRegistry(kv).Load(); len(got) != 0 {
		t.Errorf("fresh registry on read failure should be empty, got %+v", got)
	}
}
