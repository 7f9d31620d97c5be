package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cylindertrack/internal/logging"
	"cylindertrack/internal/model"
	"cylindertrack/internal/store"
)

// Key 设置在存储中的键
const Key = "settings"

// MsgInvalidPrice 单价校验提示
const MsgInvalidPrice = "Please enter a valid price"

// DefaultCylinderPrice 未配置时的默认单价
var DefaultCylinderPrice = decimal.RequireFromString("877.5")

// Manager 单价设置：内存持有当前设置，变更时整体写回存储
type Manager struct {
	kv           store.KV
	logger       *logrus.Logger
	defaultPrice decimal.Decimal
	now          func() time.Time

	mu       sync.Mutex
	settings *model.Settings
}

// NewManager 创建设置管理器；defaultPrice 非正数时使用 DefaultCylinderPrice
func NewManager(kv store.KV, logger *logrus.Logger, defaultPrice decimal.Decimal) *Manager {
	if !defaultPrice.IsPositive() {
		defaultPrice = DefaultCylinderPrice
	}
	return &Manager{
		kv:           kv,
		logger:       logger,
		defaultPrice: defaultPrice,
		now:          time.Now,
	}
}

// Load 读取设置；存储中没有设置时以默认单价初始化并写回（仅一次）
func (m *Manager) Load() model.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked().Clone()
}

func (m *Manager) loadLocked() *model.Settings {
	raw, err := m.kv.Get(Key)
	switch {
	case err == nil:
		var s model.Settings
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			logging.StorageFallback(m.logger, "settings", "Load", Key, fmt.Errorf("decode: %w", err))
			return m.fallbackLocked()
		}
		m.settings = &s
		return m.settings

	case errors.Is(err, store.ErrNotFound):
		s := m.defaultSettings()
		if err := m.persist(s); err != nil {
			logging.StorageFallback(m.logger, "settings", "Load", Key, err)
		} else {
			m.logger.WithField("price", s.CylinderPrice.String()).Info("initialized default settings")
		}
		m.settings = &s
		return m.settings

	default:
		logging.StorageFallback(m.logger, "settings", "Load", Key, err)
		return m.fallbackLocked()
	}
}

// fallbackLocked 读取失败时沿用内存中的设置，否则使用默认值（不写回）
func (m *Manager) fallbackLocked() *model.Settings {
	if m.settings != nil {
		return m.settings
	}
	s := m.defaultSettings()
	m.settings = &s
	return m.settings
}

func (m *Manager) defaultSettings() model.Settings {
	now := m.now().UTC()
	return model.Settings{
		CylinderPrice: m.defaultPrice,
		PriceHistory:  []model.PriceEntry{{Date: now, Price: m.defaultPrice}},
		UpdatedAt:     now,
	}
}

func (m *Manager) ensureLoadedLocked() *model.Settings {
	if m.settings != nil {
		return m.settings
	}
	return m.loadLocked()
}

// CylinderPrice 当前单价
func (m *Manager) CylinderPrice() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLoadedLocked().CylinderPrice
}

// History 单价变更历史
func (m *Manager) History() []model.PriceEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLoadedLocked().Clone().PriceHistory
}

// UpdateCylinderPrice 更新单价：追加一条历史记录并整体写回
func (m *Manager) UpdateCylinderPrice(price decimal.Decimal) (model.Settings, error) {
	if !price.IsPositive() {
		return model.Settings{}, model.NewValidationError("cylinder_price", MsgInvalidPrice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.ensureLoadedLocked().Clone()
	now := m.now().UTC()

	updated := current
	updated.CylinderPrice = price
	updated.PriceHistory = append(updated.PriceHistory, model.PriceEntry{Date: now, Price: price})
	updated.UpdatedAt = now

	if err := m.persist(updated); err != nil {
		m.logger.WithFields(logrus.Fields{
			"module":   "settings",
			"funcName": "UpdateCylinderPrice",
			"price":    price.String(),
		}).WithError(err).Error("failed to persist settings")
		return current, fmt.Errorf("%w: %v", model.ErrStorage, err)
	}

	m.settings = &updated
	m.logger.WithFields(logrus.Fields{
		"from": current.CylinderPrice.String(),
		"to":   price.String(),
	}).Info("cylinder price updated")
	return updated.Clone(), nil
}

func (m *Manager) persist(s model.Settings) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.kv.Set(Key, string(body))
}

// ParsePrice 解析表单输入的单价文本
func ParsePrice(text string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || !price.IsPositive() {
		return decimal.Decimal{}, model.NewValidationError("cylinder_price", MsgInvalidPrice)
	}
	return price, nil
}
