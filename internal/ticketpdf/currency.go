package ticketpdf

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency pairs the display symbol with its ISO code. The code is used
// whenever the active font has no glyph for the symbol.
type Currency struct {
	Symbol string
	Code   string
}

var DefaultCurrency = Currency{Symbol: "₹", Code: "INR"}

// Format renders an amount given in minor units
func (c Currency) Format(minor int64, glyph bool) string {
	if glyph && c.Symbol != "" {
		return c.Symbol + FormatAmount(minor)
	}
	return c.Code + " " + FormatAmount(minor)
}

// FormatAmount renders minor units as "1,500.00"
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}

	whole := strconv.FormatInt(minor/100, 10)
	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), minor%100)
}
