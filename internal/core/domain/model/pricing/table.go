// Package pricing resolves the unit price of a piece of lab work from its category and
// subtype. Unknown work is still billable: any pair missing from the table resolves to
// the table's default price instead of failing.
package pricing

import "dentallab/internal/core/domain/model/kernel"

// Key identifies a kind of work.
type Key struct {
	Category string
	Subtype  string
}

// Table is an immutable price list. Build it once at startup and share it; concurrent
// reads need no synchronization.
type Table struct {
	prices       map[Key]kernel.Money
	defaultPrice kernel.Money
}

// NewTable copies prices so later changes to the caller's map cannot leak in.
func NewTable(prices map[Key]kernel.Money, defaultPrice kernel.Money) Table {
	copied := make(map[Key]kernel.Money, len(prices))
	for k, v := range prices {
		copied[k] = v
	}
	return Table{prices: copied, defaultPrice: defaultPrice}
}

// DefaultTable is the lab's standard price list.
func DefaultTable() Table {
	return NewTable(map[Key]kernel.Money{
		{Category: "Conjointe", Subtype: "Couronne"}:   kernel.MustMoney("6.00"),
		{Category: "Conjointe", Subtype: "Inlay-core"}: kernel.MustMoney("4.80"),
		{Category: "Conjointe", Subtype: "Bridge"}:     kernel.MustMoney("6.00"),
		{Category: "Conjointe", Subtype: "Facette"}:    kernel.MustMoney("7.20"),
		{Category: "Amovible", Subtype: "Sellite"}:     kernel.MustMoney("12.00"),
		{Category: "Amovible", Subtype: "Resine"}:      kernel.MustMoney("9.60"),
		{Category: "Amovible", Subtype: "Gouttiere"}:   kernel.MustMoney("3.60"),
		{Category: "Implant", Subtype: "Couronne"}:     kernel.MustMoney("8.40"),
		{Category: "Implant", Subtype: "Pilier"}:       kernel.MustMoney("5.40"),
	}, DefaultUnitPrice)
}

// DefaultUnitPrice is charged for work the table does not list.
var DefaultUnitPrice = kernel.MustMoney("3.00")

// Price returns the listed price, or the default for an unknown pair.
func (t Table) Price(category, subtype string) kernel.Money {
	if p, ok := t.prices[Key{Category: category, Subtype: subtype}]; ok {
		return p
	}
	return t.defaultPrice
}

// Default returns the fallback price.
func (t Table) Default() kernel.Money {
	return t.defaultPrice
}
