package domain

import "github.com/shopspring/decimal"

// MinorUnitPlaces is the number of decimal places of the configured currency.
const MinorUnitPlaces = 2

var minorUnitScale = decimal.New(1, MinorUnitPlaces)

// ComputeTotal sums quantity * price over items, rounded to the currency minor unit.
func ComputeTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(MinorUnitPlaces)
}

// MinorUnits converts an amount to the smallest currency unit, e.g. 250.00 -> 25000.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitScale).Round(0).IntPart()
}
