package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cylindertrack/internal/idgen"
	"cylindertrack/internal/logging"
	"cylindertrack/internal/model"
	"cylindertrack/internal/service/calculator"
	"cylindertrack/internal/service/reconcile"
	"cylindertrack/internal/store"
)

// DefaultKeyPrefix 每日交付列表的键前缀
const DefaultKeyPrefix = "deliveries_"

// ErrDeliveryNotFound 当前已加载的记录中没有该 ID
var ErrDeliveryNotFound = errors.New("delivery not found")

// PriceSource 提供当前单价
type PriceSource interface {
	CylinderPrice() decimal.Decimal
}

// Options 账本选项
type Options struct {
	KeyPrefix string
	Location  *time.Location // 计算“今天”的时区
}

// Ledger 按日期分区、只追加的交付账本
type Ledger struct {
	kv       store.KV
	prices   PriceSource
	ids      *idgen.Generator
	logger   *logrus.Logger
	validate *validator.Validate
	prefix   string
	loc      *time.Location
	now      func() time.Time

	mu         sync.Mutex
	loadedDate string
	loaded     []model.Delivery
}

// New 创建账本
func New(kv store.KV, prices PriceSource, ids *idgen.Generator, logger *logrus.Logger, opts Options) *Ledger {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Ledger{
		kv:       kv,
		prices:   prices,
		ids:      ids,
		logger:   logger,
		validate: newValidator(),
		prefix:   opts.KeyPrefix,
		loc:      opts.Location,
		now:      time.Now,
	}
}

// Key 某日的存储键
func (l *Ledger) Key(date string) string {
	return l.prefix + date
}

// Today 当前时区下的日期
func (l *Ledger) Today() string {
	return l.now().In(l.loc).Format(model.DateLayout)
}

// ParseDate 校验 yyyy-mm-dd 日期
func ParseDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return "", invalidDate(date)
	}
	return t.Format(model.DateLayout), nil
}

// readDay 读取某日列表；键不存在视为空列表
func (l *Ledger) readDay(date string) ([]model.Delivery, error) {
	raw, err := l.kv.Get(l.Key(date))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.Delivery{}, nil
		}
		return nil, err
	}
	var list []model.Delivery
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.Key(date), err)
	}
	if list == nil {
		list = []model.Delivery{}
	}
	return list, nil
}

func (l *Ledger) writeDay(date string, list []model.Delivery, funcName string) error {
	body, err := json.Marshal(list)
	if err == nil {
		err = l.kv.Set(l.Key(date), string(body))
	}
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"module":   "ledger",
			"funcName": funcName,
			"key":      l.Key(date),
		}).WithError(err).Error("failed to persist deliveries")
		return fmt.Errorf("%w: %v", model.ErrStorage, err)
	}
	return nil
}

// LoadDeliveriesByDate 读取某日记录并设为当前已加载集合；读取失败时返回空列表
func (l *Ledger) LoadDeliveriesByDate(date string) ([]model.Delivery, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	list, err := l.readDay(date)
	if err != nil {
		logging.StorageFallback(l.logger, "ledger", "LoadDeliveriesByDate", l.Key(date), err)
		list = []model.Delivery{}
	}

	l.mu.Lock()
	l.loadedDate = date
	l.loaded = list
	l.mu.Unlock()

	return cloneList(list), nil
}

// DeliveriesOn 只读取某日记录，不改变当前已加载集合
func (l *Ledger) DeliveriesOn(date string) ([]model.Delivery, error) {
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	list, err := l.readDay(date)
	if err != nil {
		logging.StorageFallback(l.logger, "ledger", "DeliveriesOn", l.Key(date), err)
		return []model.Delivery{}, nil
	}
	return list, nil
}

// Deliveries 当前已加载的记录
func (l *Ledger) Deliveries() (string, []model.Delivery) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadedDate, cloneList(l.loaded)
}

// Calculate 以当前单价预览自动计算结果
func (l *Ledger) Calculate(in model.DeliveryInput) calculator.Calculation {
	return calculator.Calculate(calculator.FiguresOf(in), l.prices.CylinderPrice())
}

func (l *Ledger) checkInput(in model.DeliveryInput) error {
	if strings.TrimSpace(in.EmployeeName) == "" {
		return model.NewValidationError("employee_name", MsgStaffRequired)
	}
	if err := l.validate.Struct(in); err != nil {
		return structError(err)
	}
	if errs := calculator.ValidateFigures(calculator.FiguresOf(in)); len(errs) > 0 {
		return figuresError(errs)
	}
	return nil
}

// AddDelivery 校验并追加一条交付记录。存在差异时必须附带完整的对账原因。
func (l *Ledger) AddDelivery(in model.DeliveryInput) (model.Delivery, error) {
	if err := l.checkInput(in); err != nil {
		return model.Delivery{}, err
	}

	date := in.Date
	if date == "" {
		date = l.Today()
	}
	date, err := ParseDate(date)
	if err != nil {
		return model.Delivery{}, err
	}

	reasons := reconcile.Normalize(in.CylindersDelivered, in.EmptyReceived, in.ReconciliationReasons)
	if err := reconcile.Validate(in.CylindersDelivered, in.EmptyReceived, reasons); err != nil {
		return model.Delivery{}, err
	}

	now := l.now().UTC()
	d := model.Delivery{
		ID:                    l.ids.Next(),
		Date:                  date,
		EmployeeName:          strings.TrimSpace(in.EmployeeName),
		CylindersDelivered:    in.CylindersDelivered,
		EmptyReceived:         in.EmptyReceived,
		OnlinePayments:        in.OnlinePayments,
		PaytmPayments:         in.PaytmPayments,
		PartialDigitalAmount:  in.PartialDigitalAmount,
		CashCollected:         in.CashCollected,
		UnitPrice:             l.prices.CylinderPrice(),
		ReconciliationStatus:  model.ReconciliationComplete,
		ReconciliationReasons: reasons,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	calculator.Apply(&d)

	l.mu.Lock()
	defer l.mu.Unlock()

	// 追加前必须读到现有列表，读失败时不能用空列表覆盖
	list, err := l.readDay(date)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"module":   "ledger",
			"funcName": "AddDelivery",
			"key":      l.Key(date),
		}).WithError(err).Error("failed to read deliveries before append")
		return model.Delivery{}, fmt.Errorf("%w: %v", model.ErrStorage, err)
	}

	list = append(list, d)
	if err := l.writeDay(date, list, "AddDelivery"); err != nil {
		return model.Delivery{}, err
	}

	l.loadedDate = date
	l.loaded = list

	l.logger.WithFields(logrus.Fields{
		"id":        d.ID,
		"date":      d.Date,
		"employee":  d.EmployeeName,
		"delivered": d.CylindersDelivered,
		"empty":     d.EmptyReceived,
	}).Info("delivery recorded")
	return cloneDelivery(d), nil
}

// UpdateDelivery 在当前已加载的记录中定位并修改一条记录，重算派生字段后整体写回。
// 提供了原因列表时按对账规则整体校验；否则按记录内容重新推导对账状态。
func (l *Ledger) UpdateDelivery(id string, patch model.DeliveryPatch) (model.Delivery, error) {
	if err := l.validate.Struct(patch); err != nil {
		return model.Delivery{}, structError(err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var current *model.Delivery
	for i := range l.loaded {
		if l.loaded[i].ID == id {
			current = &l.loaded[i]
			break
		}
	}
	if current == nil {
		return model.Delivery{}, ErrDeliveryNotFound
	}

	d := cloneDelivery(*current)
	if patch.EmployeeName != nil {
		name := strings.TrimSpace(*patch.EmployeeName)
		if name == "" {
			return model.Delivery{}, model.NewValidationError("employee_name", MsgStaffRequired)
		}
		d.EmployeeName = name
	}
	if patch.CylindersDelivered != nil {
		d.CylindersDelivered = *patch.CylindersDelivered
	}
	if patch.EmptyReceived != nil {
		d.EmptyReceived = *patch.EmptyReceived
	}
	if patch.OnlinePayments != nil {
		d.OnlinePayments = *patch.OnlinePayments
	}
	if patch.PaytmPayments != nil {
		d.PaytmPayments = *patch.PaytmPayments
	}
	if patch.PartialDigitalAmount != nil {
		d.PartialDigitalAmount = *patch.PartialDigitalAmount
	}
	if patch.CashCollected != nil {
		d.CashCollected = *patch.CashCollected
	}

	if errs := calculator.ValidateFigures(calculator.FiguresOfDelivery(d)); len(errs) > 0 {
		return model.Delivery{}, figuresError(errs)
	}

	if patch.ReconciliationReasons != nil {
		reasons := reconcile.Normalize(d.CylindersDelivered, d.EmptyReceived, patch.ReconciliationReasons)
		if err := reconcile.Validate(d.CylindersDelivered, d.EmptyReceived, reasons); err != nil {
			return model.Delivery{}, err
		}
		d.ReconciliationReasons = reasons
	}
	d.ReconciliationStatus = reconcile.Status(d.CylindersDelivered, d.EmptyReceived, d.ReconciliationReasons)

	if d.UnitPrice.IsZero() {
		d.UnitPrice = l.prices.CylinderPrice()
	}
	calculator.Apply(&d)
	d.UpdatedAt = l.now().UTC()

	list, err := l.readDay(d.Date)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"module":   "ledger",
			"funcName": "UpdateDelivery",
			"key":      l.Key(d.Date),
		}).WithError(err).Error("failed to read deliveries before update")
		return model.Delivery{}, fmt.Errorf("%w: %v", model.ErrStorage, err)
	}

	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Delivery{}, ErrDeliveryNotFound
	}
	list[idx] = d

	if err := l.writeDay(d.Date, list, "UpdateDelivery"); err != nil {
		return model.Delivery{}, err
	}

	l.loadedDate = d.Date
	l.loaded = list

	l.logger.WithFields(logrus.Fields{
		"id":     d.ID,
		"date":   d.Date,
		"status": d.ReconciliationStatus,
	}).Info("delivery updated")
	return cloneDelivery(d), nil
}

// DailySummary 读取某日记录并汇总；不改变当前已加载集合
func (l *Ledger) DailySummary(date string) (model.DailySummary, error) {
	date, err := ParseDate(date)
	if err != nil {
		return model.DailySummary{}, err
	}

	list, err := l.readDay(date)
	if err != nil {
		logging.StorageFallback(l.logger, "ledger", "DailySummary", l.Key(date), err)
		list = nil
	}
	return calculator.Summarize(list), nil
}

// Dates 有交付记录的日期（新到旧）
func (l *Ledger) Dates() []string {
	keys, err := l.kv.Keys(l.prefix)
	if err != nil {
		logging.StorageFallback(l.logger, "ledger", "Dates", l.prefix, err)
		return []string{}
	}

	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		date := strings.TrimPrefix(k, l.prefix)
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func cloneDelivery(d model.Delivery) model.Delivery {
	reasons := make([]model.ReconciliationReason, len(d.ReconciliationReasons))
	copy(reasons, d.ReconciliationReasons)
	d.ReconciliationReasons = reasons
	return d
}

func cloneList(list []model.Delivery) []model.Delivery {
	out := make([]model.Delivery, len(list))
	for i, d := range list {
		out[i] = cloneDelivery(d)
	}
	return out
}
