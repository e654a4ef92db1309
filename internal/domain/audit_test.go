package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarshalState(t *testing.T) {
	if got := MarshalState(nil); got != nil {
		t.Fatalf("expected nil state, got %v", got)
	}

	state := MarshalState(&FloatAccount{ID: "float-1", CurrentBalance: decimal.RequireFromString("12.50")})
	if state["ID"] != "float-1" {
		t.Fatalf("expected ID in state, got %v", state)
	}
	if state["CurrentBalance"] != "12.5" {
		t.Fatalf("expected decimal encoded as string, got %v", state["CurrentBalance"])
	}

	scalar := MarshalState(42)
	if _, ok := scalar["value"]; !ok {
		t.Fatalf("expected scalar wrapped under value, got %v", scalar)
	}

	bad := MarshalState(make(chan int))
	if _, ok := bad["error"]; !ok {
		t.Fatalf("expected error marker, got %v", bad)
	}
}
