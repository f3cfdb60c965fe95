// Package tax maps a shipping region to its sales-tax breakdown.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"toystore/internal/domain"
)

type rate struct {
	name    string
	percent decimal.Decimal
}

// Canadian provincial rates. Each region yields its lines in listed order.
var regionRates = map[string][]rate{
	"AB": {{"GST", decimal.NewFromInt(5)}},
	"NT": {{"GST", decimal.NewFromInt(5)}},
	"NU": {{"GST", decimal.NewFromInt(5)}},
	"YT": {{"GST", decimal.NewFromInt(5)}},
	"BC": {{"GST", decimal.NewFromInt(5)}, {"PST", decimal.NewFromInt(7)}},
	"MB": {{"GST", decimal.NewFromInt(5)}, {"PST", decimal.NewFromInt(7)}},
	"SK": {{"GST", decimal.NewFromInt(5)}, {"PST", decimal.NewFromInt(5)}},
	"QC": {{"GST", decimal.NewFromInt(5)}, {"QST", decimal.RequireFromString("9.975")}},
	"NB": {{"HST", decimal.NewFromInt(13)}},
	"NL": {{"HST", decimal.NewFromInt(13)}},
	"ON": {{"HST", decimal.NewFromInt(13)}},
	"PE": {{"HST", decimal.NewFromInt(14)}},
	"NS": {{"HST", decimal.NewFromInt(15)}},
}

var oneHundred = decimal.NewFromInt(100)

// ForRegion returns the ordered tax lines for a two-letter region code applied
// to the given taxable total. Each amount is rounded half-down to the cent.
func ForRegion(region string, taxableCents int64) ([]domain.TaxLine, error) {
	rates, ok := regionRates[strings.ToUpper(strings.TrimSpace(region))]
	if !ok {
		return nil, &domain.UnsupportedRegionError{Region: region}
	}

	taxable := decimal.New(taxableCents, 0)
	lines := make([]domain.TaxLine, 0, len(rates))
	for _, r := range rates {
		amount := taxable.Mul(r.percent).Div(oneHundred)
		lines = append(lines, domain.TaxLine{
			Name:        r.name,
			RatePercent: r.percent.String(),
			AmountCents: roundHalfDown(amount),
		})
	}
	return lines, nil
}

// Supported reports whether the region has a tax table entry, letting the
// shipping step validate before the calculator is ever hit.
func Supported(region string) bool {
	_, ok := regionRates[strings.ToUpper(strings.TrimSpace(region))]
	return ok
}

var half = decimal.New(5, -1)

// roundHalfDown rounds to the nearest integer, with exact halves going down.
func roundHalfDown(d decimal.Decimal) int64 {
	floor := d.Floor()
	if d.Sub(floor).GreaterThan(half) {
		floor = floor.Add(decimal.New(1, 0))
	}
	return floor.IntPart()
}
