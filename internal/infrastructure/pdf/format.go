package pdf

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NumberFormatter imprime cantidades y costos con los separadores del locale.
type NumberFormatter struct {
	p *message.Printer
}

// NewNumberFormatter locale inválido o vacío equivale a es-CO.
func NewNumberFormatter(locale string) *NumberFormatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.MustParse("es-CO")
	}
	return &NumberFormatter{p: message.NewPrinter(tag)}
}

// Quantity hasta 4 decimales, sin ceros sobrantes.
func (f *NumberFormatter) Quantity(d decimal.Decimal) string {
	return f.p.Sprint(number.Decimal(d.Round(4).InexactFloat64(), number.MaxFractionDigits(4)))
}

// Money siempre 2 decimales, con signo $.
func (f *NumberFormatter) Money(d decimal.Decimal) string {
	v := d.Round(2)
	if v.IsNegative() {
		return "-$" + f.p.Sprint(number.Decimal(v.Neg().InexactFloat64(), number.Scale(2)))
	}
	return "$" + f.p.Sprint(number.Decimal(v.InexactFloat64(), number.Scale(2)))
}
