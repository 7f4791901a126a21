package execution

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"prosperity-go/internal/datamodel"
)

func TestSubmitLogsOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	exec := NewExecutor(logger)
	err := exec.Submit(100, datamodel.Order{Symbol: "RAINFOREST_RESIN", Price: 9997, Quantity: 25})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "RAINFOREST_RESIN") || !strings.Contains(out, `"side":"BUY"`) {
		t.Fatalf("log does not contain order: %s", out)
	}
}

func TestSubmitSkipsEmptyOrder(t *testing.T) {
	var buf bytes.Buffer
	exec := NewExecutor(zerolog.New(&buf))
	if err := exec.Submit(0, datamodel.Order{Symbol: "KELP"}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log for empty order, got %s", buf.String())
	}
}

func TestSideOf(t *testing.T) {
	if SideOf(datamodel.Order{Quantity: -1}) != Sell {
		t.Fatalf("expected sell for negative quantity")
	}
	if SideOf(datamodel.Order{Quantity: 3}) != Buy {
		t.Fatalf("expected buy for positive quantity")
	}
}
