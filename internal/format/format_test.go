package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"1", "R$ 1,00"},
		{"130", "R$ 130,00"},
		{"1234.5", "R$ 1.234,50"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-25", "-R$ 25,00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := BRL(decimal.RequireFromString(tt.in)); got != tt.want {
				t.Errorf("BRL(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateBR(t *testing.T) {
	if got := DateBR("2025-12-24"); got != "24/12/2025" {
		t.Fatalf("DateBR = %q", got)
	}
	if got := DateBR("not a date"); got != "not a date" {
		t.Fatalf("DateBR should pass through invalid input, got %q", got)
	}
}
