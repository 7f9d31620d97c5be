package calculator

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateFigures_DigitalExceedsDelivered(t *testing.T) {
	errs := ValidateFigures(Figures{
		CylindersDelivered: 3,
		OnlinePayments:     2,
		PaytmPayments:      2,
	})
	if !containsString(errs, MsgDigitalExceeds) {
		t.Fatalf("expected rule error, got: %v", errs)
	}
}

func TestValidateFigures_HugeCountsDoNotWrap(t *testing.T) {
	errs := ValidateFigures(Figures{
		CylindersDelivered: 5,
		EmptyReceived:      5,
		OnlinePayments:     math.MaxInt,
		PaytmPayments:      math.MaxInt,
	})
	if !containsString(errs, MsgDigitalExceeds) {
		t.Fatalf("expected rule error, got: %v", errs)
	}

	errs = ValidateFigures(Figures{
		CylindersDelivered: math.MaxInt,
		OnlinePayments:     math.MaxInt,
		PaytmPayments:      1,
	})
	if !containsString(errs, MsgDigitalExceeds) {
		t.Fatalf("expected rule error at the boundary, got: %v", errs)
	}

	errs = ValidateFigures(Figures{
		CylindersDelivered: math.MaxInt,
		EmptyReceived:      math.MaxInt,
		OnlinePayments:     math.MaxInt - 1,
		PaytmPayments:      1,
	})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got: %v", errs)
	}
}

func TestValidateFigures_DeliveredRequired(t *testing.T) {
	errs := ValidateFigures(Figures{EmptyReceived: 2})
	if !containsString(errs, MsgDeliveredRequired) {
		t.Fatalf("expected rule error, got: %v", errs)
	}
}

func TestValidateFigures_NegativeAmount(t *testing.T) {
	errs := ValidateFigures(Figures{
		CylindersDelivered: 1,
		CashCollected:      decimal.NewFromInt(-5),
	})
	if !containsString(errs, MsgNegativeAmount) {
		t.Fatalf("expected rule error, got: %v", errs)
	}
}

func TestValidateFigures_Valid(t *testing.T) {
	errs := ValidateFigures(Figures{
		CylindersDelivered:   10,
		EmptyReceived:        8,
		OnlinePayments:       2,
		PartialDigitalAmount: decimal.NewFromInt(100),
	})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got: %v", errs)
	}
}

func containsString(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}
