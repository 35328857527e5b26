// Package format renders money and dates the way Brazilian documents print them.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BRL formats an amount as "R$ 1.234,56".
func BRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	sign := ""
	if d.IsNegative() && !d.Round(2).IsZero() {
		sign = "-"
	}
	return sign + "R$ " + b.String() + "," + frac
}

// BRLFloat is BRL for plain floats (template convenience).
func BRLFloat(f float64) string {
	return BRL(decimal.NewFromFloat(f))
}

// DateBR formats an ISO date (YYYY-MM-DD) as dd/mm/yyyy. Unparseable input is returned unchanged.
func DateBR(iso string) string {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// DateTimeBR formats t as "dd/mm/yyyy, hh:mm:ss" in the São Paulo zone when available.
func DateTimeBR(t time.Time) string {
	if loc, err := time.LoadLocation("America/Sao_Paulo"); err == nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006, 15:04:05")
}
