package paper

import (
	"testing"

	"prosperity-go/internal/execution"
)

func TestLedgerRecordSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	fill := execution.Fill{Symbol: "KELP", Side: execution.Buy, Qty: 3}
	ledger.Record(fill)
	ledger.Record(execution.Fill{Symbol: "KELP", Side: execution.Buy, Qty: 2})
	ledger.Record(execution.Fill{Symbol: "KELP", Side: execution.Sell, Qty: 1})

	snapshot := ledger.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 fills, got %d", len(snapshot))
	}
	if snapshot[0].Symbol != fill.Symbol {
		t.Fatalf("unexpected fill symbol")
	}
	volume := ledger.Volume()
	if volume["KELP"][execution.Buy] != 5 || volume["KELP"][execution.Sell] != 1 {
		t.Fatalf("unexpected volume %+v", volume)
	}

	ledger.Reset()
	if len(ledger.Snapshot()) != 0 {
		t.Fatalf("expected ledger reset")
	}
}

func TestMultiRecorder(t *testing.T) {
	a, b := NewLedger(0), NewLedger(0)
	multi := MultiRecorder{a, nil, b}
	multi.Record(execution.Fill{Symbol: "JAMS", Qty: 1})
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatalf("expected fill forwarded to both ledgers")
	}
}
