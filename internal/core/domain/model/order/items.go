package order

import (
	"errors"
	"fmt"
	"sort"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

const (
	MinToothPosition = 1
	MaxToothPosition = 99
)

var ErrWorkItemIsNotConstructed = errors.New("WorkItem must be created via ItemSet.ReplaceAll or RestoreWorkItem")

// ItemSpec is the caller's description of one piece of work. Category and subtype may be
// empty; they then resolve to the default price.
type ItemSpec struct {
	Category string
	Subtype  string
	Upper    []int
	Lower    []int
}

// WorkItem is one priced unit of work. Its unit price is resolved once and frozen:
// later price list changes do not touch existing items.
type WorkItem struct {
	id        kernel.UUID
	category  string
	subtype   string
	unitPrice kernel.Money
	upper     []int
	lower     []int

	guard guard.ConstructorGuard
}

// RestoreWorkItem rebuilds a persisted item with its frozen price.
func RestoreWorkItem(
	id kernel.UUID, category, subtype string, unitPrice kernel.Money, upper, lower []int,
) (WorkItem, error) {
	if err := id.Validate(); err != nil {
		return WorkItem{}, err
	}
	upperSet, upperErr := toothSet("upper", upper)
	lowerSet, lowerErr := toothSet("lower", lower)
	if err := errors.Join(upperErr, lowerErr); err != nil {
		return WorkItem{}, err
	}

	return WorkItem{
		id:        id,
		category:  category,
		subtype:   subtype,
		unitPrice: unitPrice,
		upper:     upperSet,
		lower:     lowerSet,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (w WorkItem) Validate() error {
	return w.guard.Validate(ErrWorkItemIsNotConstructed)
}

func (w WorkItem) ID() kernel.UUID         { return w.id }
func (w WorkItem) Category() string        { return w.category }
func (w WorkItem) Subtype() string         { return w.subtype }
func (w WorkItem) UnitPrice() kernel.Money { return w.unitPrice }

// Upper returns the upper-arch tooth positions, sorted and without duplicates.
func (w WorkItem) Upper() []int { return append([]int(nil), w.upper...) }

// Lower returns the lower-arch tooth positions, sorted and without duplicates.
func (w WorkItem) Lower() []int { return append([]int(nil), w.lower...) }

// toothSet sorts and deduplicates positions and checks their range.
func toothSet(arch string, positions []int) ([]int, error) {
	seen := make(map[int]struct{}, len(positions))
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if p < MinToothPosition || p > MaxToothPosition {
			return nil, errs.NewValueIsOutOfRangeError(arch+" tooth position", p, MinToothPosition, MaxToothPosition)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

// ItemSet owns the work items of one order.
type ItemSet struct {
	items []WorkItem
}

// ReplaceAll prices every spec against table and discards the previous generation of
// items entirely. Nothing changes if any spec is invalid. It returns the new items and
// their total.
func (s *ItemSet) ReplaceAll(table pricing.Table, specs []ItemSpec) ([]WorkItem, kernel.Money, error) {
	next := make([]WorkItem, 0, len(specs))
	var problems []error

	for i, spec := range specs {
		upper, upperErr := toothSet("upper", spec.Upper)
		lower, lowerErr := toothSet("lower", spec.Lower)
		if err := errors.Join(upperErr, lowerErr); err != nil {
			problems = append(problems, fmt.Errorf("item %d: %w", i, err))
			continue
		}

		next = append(next, WorkItem{
			id:        kernel.NewUUID(),
			category:  spec.Category,
			subtype:   spec.Subtype,
			unitPrice: table.Price(spec.Category, spec.Subtype),
			upper:     upper,
			lower:     lower,
			guard:     guard.NewConstructorGuard(),
		})
	}
	if err := errors.Join(problems...); err != nil {
		return nil, kernel.Money{}, err
	}

	s.items = next
	return s.Items(), s.Subtotal(), nil
}

// Subtotal is the sum of the items' unit prices.
func (s ItemSet) Subtotal() kernel.Money {
	total := kernel.ZeroMoney()
	for _, item := range s.items {
		total = total.Add(item.unitPrice)
	}
	return total
}

// Items returns a copy of the current items in submission order.
func (s ItemSet) Items() []WorkItem {
	return append([]WorkItem(nil), s.items...)
}

func (s ItemSet) Len() int {
	return len(s.items)
}
