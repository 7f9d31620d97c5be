package ledger

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cylindertrack/internal/idgen"
	"cylindertrack/internal/logging"
	"cylindertrack/internal/model"
	"cylindertrack/internal/store"
	"cylindertrack/internal/store/storetest"
)

type fixedPrice struct{ price decimal.Decimal }

func (p *fixedPrice) CylinderPrice() decimal.Decimal { return p.price }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestLedger(t *testing.T, kv store.KV, price *fixedPrice) *Ledger {
	t.Helper()
	ids, err := idgen.New(1)
	if err != nil {
		t.Fatalf("idgen: %v", err)
	}
	loc := time.FixedZone("IST", 5*3600+1800)
	l := New(kv, price, ids, logging.Discard(), Options{Location: loc})
	l.now = func() time.Time { return time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) }
	return l
}

func workedExample() model.DeliveryInput {
	return model.DeliveryInput{
		Date:                 "2025-03-10",
		EmployeeName:         "Ravi",
		CylindersDelivered:   10,
		EmptyReceived:        8,
		OnlinePayments:       2,
		PaytmPayments:        0,
		PartialDigitalAmount: dec("100"),
		CashCollected:        dec("6920"),
	}
}

func TestAddDelivery_RequiresReconciliationForMismatch(t *testing.T) {
	kv := storetest.New()
	l := newTestLedger(t, kv, &fixedPrice{dec("877.5")})

	in := workedExample()
	_, err := l.AddDelivery(in)
	ve, ok := model.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ve.Field != "reconciliation_reasons" || ve.Details["mismatch"] != 2 {
		t.Errorf("validation error = %+v", ve)
	}
	if kv.SetCalls() != 0 {
		t.Fatalf("rejected delivery must not be stored")
	}

	in.ReconciliationReasons = []model.ReconciliationReason{
		{Reason: model.ReasonNoConsumer, ConsumerName: "Sharma"},
		{Reason: model.ReasonEmptyBaki},
	}
	d, err := l.AddDelivery(in)
	if err != nil {
		t.Fatalf("AddDelivery with reasons: %v", err)
	}

	if d.CalculatedCashCylinders != 8 {
		t.Errorf("cash cylinders = %d, want 8", d.CalculatedCashCylinders)
	}
	if !d.CalculatedCashAmount.Equal(dec("7020")) {
		t.Errorf("cash amount = %s, want 7020", d.CalculatedCashAmount)
	}
	if !d.CalculatedTotalPayable.Equal(dec("6920")) {
		t.Errorf("total payable = %s, want 6920", d.CalculatedTotalPayable)
	}
	if d.ReconciliationStatus != model.ReconciliationComplete {
		t.Errorf("status = %s, want complete", d.ReconciliationStatus)
	}
	for _, r := range d.ReconciliationReasons {
		if r.Type != model.DirectionMissing {
			t.Errorf("reason type = %q, want missing", r.Type)
		}
	}
	if !d.UnitPrice.Equal(dec("877.5")) {
		t.Errorf("unit price = %s", d.UnitPrice)
	}
	if d.ID == "" {
		t.Error("id not assigned")
	}
}

func TestAddDelivery_NoMismatchSavesDirectly(t *testing.T) {
	kv := store.NewMemoryStore()
	l := newTestLedger(t, kv, &fixedPrice{dec("877.5")})

	in := workedExample()
	in.EmptyReceived = 10
	d, err := l.AddDelivery(in)
	if err != nil {
		t.Fatalf("AddDelivery: %v", err)
	}
	if d.ReconciliationStatus != model.ReconciliationComplete || len(d.ReconciliationReasons) != 0 {
		t.Errorf("delivery = %+v", d)
	}

	raw, err := kv.Get("deliveries_2025-03-10")
	if err != nil {
		t.Fatalf("stored key missing: %v", err)
	}
	var stored []map[string]any
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d deliveries, want 1", len(stored))
	}
	if stored[0]["calculated_cash_amount"] != 7020.0 {
		t.Errorf("stored cash amount = %#v, want JSON number 7020", stored[0]["calculated_cash_amount"])
	}
	if reasons, ok := stored[0]["reconciliation_reasons"].([]any); !ok || len(reasons) != 0 {
		t.Errorf("stored reasons = %#v, want []", stored[0]["reconciliation_reasons"])
	}
}

func TestAddDelivery_FormValidation(t *testing.T) {
	l := newTestLedger(t, store.NewMemoryStore(), &fixedPrice{dec("877.5")})

	cases := map[string]func(in *model.DeliveryInput){
		"missing staff":   func(in *model.DeliveryInput) { in.EmployeeName = "  " },
		"zero delivered":  func(in *model.DeliveryInput) { in.CylindersDelivered = 0; in.EmptyReceived = 0; in.OnlinePayments = 0 },
		"digital exceeds": func(in *model.DeliveryInput) { in.OnlinePayments = 6; in.PaytmPayments = 5 },
		"digital overflow": func(in *model.DeliveryInput) {
			in.CylindersDelivered, in.EmptyReceived = 5, 5
			in.OnlinePayments, in.PaytmPayments = math.MaxInt, math.MaxInt
		},
		"negative empty": func(in *model.DeliveryInput) { in.EmptyReceived = -1 },
		"bad date":       func(in *model.DeliveryInput) { in.Date = "10/03/2025" },
		"negative cash":  func(in *model.DeliveryInput) { in.CashCollected = dec("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := workedExample()
			in.EmptyReceived = in.CylindersDelivered
			mutate(&in)
			if _, err := l.AddDelivery(in); err == nil {
				t.Fatal("expected validation error")
			} else if _, ok := model.AsValidation(err); !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAddDelivery_DefaultsToTodayInLocation(t *testing.T) {
	kv := store.NewMemoryStore()
	l := newTestLedger(t, kv, &fixedPrice{dec("877.5")})

	in := workedExample()
	in.Date = ""
	in.EmptyReceived = 10
	d, err := l.AddDelivery(in)
	if err != nil {
		t.Fatalf("AddDelivery: %v", err)
	}
	// 20:00 UTC 在 IST 已是次日
	if d.Date != "2025-03-11" {
		t.Errorf("date = %s, want 2025-03-11", d.Date)
	}
}

func TestAddDelivery_AppendsPerDate(t *testing.T) {
	l := newTestLedger(t, store.NewMemoryStore(), &fixedPrice{dec("877.5")})

	for i, date := range []string{"2025-03-10", "2025-03-10", "2025-03-09"} {
		in := workedExample()
		in.Date = date
		in.EmptyReceived = in.CylindersDelivered
		if _, err := l.AddDelivery(in); err != nil {
			t.Fatalf("AddDelivery #%d: %v", i, err)
		}
	}

	list, err := l.LoadDeliveriesByDate("2025-03-10")
	if err != nil {
		t.Fatalf("LoadDeliveriesByDate: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("2025-03-10 has %d deliveries, want 2", len(list))
	}
	if list[0].ID >= list[1].ID && len(list[0].ID) == len(list[1].ID) {
		t.Errorf("ids not in append order: %s, %s", list[0].ID, list[1].ID)
	}

	dates := l.Dates()
	if len(dates) != 2 || dates[0] != "2025-03-10" || dates[1] != "2025-03-09" {
		t.Errorf("Dates = %v", dates)
	}
}

func TestAddDelivery_ReadFailureDoesNotOverwrite(t *testing.T) {
	kv := storetest.New()
	l := newTestLedger(t, kv, &fixedPrice{dec("877.5")})

	in := workedExample()
	in.EmptyReceived = 10
	if _, err := l.AddDelivery(in); err != nil {
		t.Fatalf("AddDelivery: %v", err)
	}

	kv.FailGet(true)
	if _, err := l.AddDelivery(in); !errors.Is(err, model.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	kv.FailGet(false)

	list, _ := l.LoadDeliveriesByDate("2025-03-10")
	if len(list) != 1 {
		t.Errorf("existing deliveries clobbered: %d", len(list))
	}
}

func TestLoadDeliveriesByDate_FallbackOnReadError(t *testing.T) {
	kv := storetest.New()
	l := newTestLedger(t, kv, &fixedPrice{dec("877.5")})

	kv.FailGet(true)
	list, err := l.LoadDeliveriesByDate("2025-03-10")
	if err != nil {
		t.Fatalf("storage errors must be masked, got %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list = %+v, want empty", list)
	}

	if _, err := l.LoadDeliveriesByDate("March 10"); err == nil {
		t.Error("invalid date should be rejected")
	}
}

func TestUpdateDelivery_ScansLoadedRecords(t *testing.T) {
	kv := store.NewMemoryStore()
	price := &fixedPrice{dec("877.5")}
	l := newTestLedger(t, kv, price)

	in := workedExample()
	in.EmptyReceived = 10
	d, err := l.AddDelivery(in)
	if err != nil {
		t.Fatalf("AddDelivery: %v", err)
	}

	// 单价变化不影响已有记录的重算
	price.price = dec("900")

	empty := 9
	updated, err := l.UpdateDelivery(d.ID, model.DeliveryPatch{EmptyReceived: &empty})
	if err != nil {
		t.Fatalf("UpdateDelivery: %v", err)
	}
	if updated.ReconciliationStatus != model.ReconciliationPending {
		t.Errorf("status = %s, want pending after introducing mismatch", updated.ReconciliationStatus)
	}
	if !updated.CalculatedCashAmount.Equal(dec("7020")) {
		t.Errorf("cash amount = %s, want 7020 at original price", updated.CalculatedCashAmount)
	}

	reasons := []model.ReconciliationReason{{Reason: model.ReasonEmptyReturn}}
	updated, err = l.UpdateDelivery(d.ID, model.DeliveryPatch{ReconciliationReasons: reasons})
	if err != nil {
		t.Fatalf("UpdateDelivery reasons: %v", err)
	}
	if updated.ReconciliationStatus != model.ReconciliationComplete {
		t.Errorf("status = %s, want complete", updated.ReconciliationStatus)
	}

	list, _ := l.LoadDeliveriesByDate("2025-03-10")
	if len(list) != 1 || list[0].EmptyReceived != 9 || len(list[0].ReconciliationReasons) != 1 {
		t.Errorf("stored list = %+v", list)
	}
}

func TestUpdateDelivery_Rejections(t *testing.T) {
	l := newTestLedger(t, store.NewMemoryStore(), &fixedPrice{dec("877.5")})

	if _, err := l.UpdateDelivery("nope", model.DeliveryPatch{}); !errors.Is(err, ErrDeliveryNotFound) {
		t.Fatalf("err = %v, want ErrDeliveryNotFound", err)
	}

	in := workedExample()
	in.EmptyReceived = 10
	d, _ := l.AddDelivery(in)

	// 另一天被加载后，原记录不在已加载集合中
	if _, err := l.LoadDeliveriesByDate("2025-03-01"); err != nil {
		t.Fatalf("LoadDeliveriesByDate: %v", err)
	}
	if _, err := l.UpdateDelivery(d.ID, model.DeliveryPatch{}); !errors.Is(err, ErrDeliveryNotFound) {
		t.Fatalf("err = %v, want ErrDeliveryNotFound", err)
	}

	_, _ = l.LoadDeliveriesByDate("2025-03-10")
	wrong := []model.ReconciliationReason{{Reason: model.ReasonEmptyBaki}}
	if _, err := l.UpdateDelivery(d.ID, model.DeliveryPatch{ReconciliationReasons: wrong}); err == nil {
		t.Fatal("reasons for a matched delivery should be rejected")
	}
	online := 11
	if _, err := l.UpdateDelivery(d.ID, model.DeliveryPatch{OnlinePayments: &online}); err == nil {
		t.Fatal("online exceeding delivered should be rejected")
	}
	huge := math.MaxInt
	if _, err := l.UpdateDelivery(d.ID, model.DeliveryPatch{OnlinePayments: &huge, PaytmPayments: &huge}); err == nil {
		t.Fatal("wrapping online + paytm should be rejected")
	}
	list, _ := l.LoadDeliveriesByDate("2025-03-10")
	if len(list) != 1 || list[0].OnlinePayments != 2 || list[0].CalculatedCashCylinders != 8 {
		t.Fatalf("rejected update changed the stored record: %+v", list)
	}
}

func TestDailySummary(t *testing.T) {
	l := newTestLedger(t, store.NewMemoryStore(), &fixedPrice{dec("877.5")})

	s, err := l.DailySummary("2025-03-10")
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if s.TotalCylindersDelivered != 0 || !s.TotalCashCollected.IsZero() {
		t.Errorf("empty day summary = %+v", s)
	}

	a := workedExample()
	a.EmptyReceived = 10
	b := workedExample()
	b.CylindersDelivered, b.EmptyReceived, b.OnlinePayments = 4, 4, 0
	b.PartialDigitalAmount, b.CashCollected = dec("0"), dec("3510")
	_, _ = l.AddDelivery(a)
	_, _ = l.AddDelivery(b)

	s, _ = l.DailySummary("2025-03-10")
	if s.TotalCylindersDelivered != 14 || s.TotalEmptyReceived != 14 || s.TotalOnlinePayments != 2 {
		t.Errorf("summary counts = %+v", s)
	}
	if !s.TotalCashCollected.Equal(dec("10430")) || !s.TotalPartialDigital.Equal(dec("100")) {
		t.Errorf("summary amounts = %+v", s)
	}
}

func TestDeliveriesOn_DoesNotChangeLoadedSet(t *testing.T) {
	l := newTestLedger(t, store.NewMemoryStore(), &fixedPrice{price: dec("877.5")})

	in := workedExample()
	in.Date = "2025-03-09"
	in.EmptyReceived = in.CylindersDelivered
	if _, err := l.AddDelivery(in); err != nil {
		t.Fatalf("AddDelivery: %v", err)
	}
	if _, err := l.LoadDeliveriesByDate("2025-03-11"); err != nil {
		t.Fatalf("LoadDeliveriesByDate: %v", err)
	}

	list, err := l.DeliveriesOn("2025-03-09")
	if err != nil || len(list) != 1 {
		t.Fatalf("DeliveriesOn = %v, %v", list, err)
	}
	if date, _ := l.Deliveries(); date != "2025-03-11" {
		t.Fatalf("loaded date changed to %q", date)
	}
	if _, err := l.DeliveriesOn("11/03/2025"); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func TestDates_FallbackOnKeysError(t *testing.T) {
	kv := storetest.New()
	l := newTestLedger(t, kv, &fixedPrice{dec("877.5")})

	in := workedExample()
	in.EmptyReceived = in.CylindersDelivered
	if _, err := l.AddDelivery(in); err != nil {
		t.Fatalf("AddDelivery: %v", err)
	}
	if got := l.Dates(); len(got) != 1 || got[0] != "2025-03-10" {
		t.Fatalf("Dates = %v", got)
	}

	kv.FailKeys(true)
	got := l.Dates()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list on listing failure, got %#v", got)
	}

	kv.FailKeys(false)
	if got := l.Dates(); len(got) != 1 {
		t.Fatalf("Dates after recovery = %v", got)
	}
}
