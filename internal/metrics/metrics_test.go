package metrics

import (
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"fundCore/internal/errs"
	"fundCore/internal/model"
)

func TestObserveUnit(t *testing.T) {
	c := NewCollector("test")

	c.ObserveUnit("buy 3", time.Millisecond, 4, nil)
	c.ObserveUnit("buy 4", time.Millisecond, 2, nil)
	c.ObserveUnit("buy 5", time.Millisecond, 0, errs.E(errs.KindSlippageExceeded, "buy shares", "short"))
	c.ObserveUnit("", time.Millisecond, 0, errors.New("boom"))

	if got := testutil.ToFloat64(c.units.WithLabelValues("buy", "ok")); got != 2 {
		t.Fatalf("ok units: got %v", got)
	}
	if got := testutil.ToFloat64(c.units.WithLabelValues("buy", "slippage_exceeded")); got != 1 {
		t.Fatalf("failed units: got %v", got)
	}
	if got := testutil.ToFloat64(c.units.WithLabelValues("unlabeled", "unknown")); got != 1 {
		t.Fatalf("untyped failure: got %v", got)
	}
	if got := testutil.ToFloat64(c.events.WithLabelValues("buy")); got != 6 {
		t.Fatalf("events: got %v", got)
	}
}

func TestRecordSnapshot(t *testing.T) {
	c := NewCollector("")
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil)
	c.RecordSnapshot(model.FundSnapshot{
		Vault:           "0xvault",
		Gav:             "2500000",
		TotalSupply:     "2000000000000000000",
		GrossShareValue: "1250000",
		GavValid:        false,
	}, unit)

	if got := testutil.ToFloat64(c.gav.WithLabelValues("0xvault")); got != 2.5 {
		t.Fatalf("gav: got %v", got)
	}
	if got := testutil.ToFloat64(c.shareSupply.WithLabelValues("0xvault")); got != 2 {
		t.Fatalf("supply: got %v", got)
	}
	if got := testutil.ToFloat64(c.gavInvalid.WithLabelValues("0xvault")); got != 1 {
		t.Fatalf("invalid gav count: got %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "fundcore_fund_gross_share_value") {
		t.Fatalf("exposition missing gauge:\n%s", rec.Body.String())
	}
}
