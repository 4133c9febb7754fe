package order

import (
	"fmt"
	"sort"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"
)

// TransitionTable maps role -> current status -> allowed targets. It is immutable once
// built, so one instance is shared by every request.
type TransitionTable struct {
	rules map[kernel.Role]map[Status]map[Status]struct{}
}

// NewTransitionTable validates every role and status it is given.
func NewTransitionTable(rules map[kernel.Role]map[Status][]Status) (TransitionTable, error) {
	table := TransitionTable{rules: make(map[kernel.Role]map[Status]map[Status]struct{}, len(rules))}

	for role, byStatus := range rules {
		if err := role.Validate(); err != nil {
			return TransitionTable{}, err
		}
		roleRules := make(map[Status]map[Status]struct{}, len(byStatus))
		for from, targets := range byStatus {
			if err := from.Validate(); err != nil {
				return TransitionTable{}, err
			}
			allowed := make(map[Status]struct{}, len(targets))
			for _, to := range targets {
				if err := to.Validate(); err != nil {
					return TransitionTable{}, err
				}
				allowed[to] = struct{}{}
			}
			roleRules[from] = allowed
		}
		table.rules[role] = roleRules
	}

	return table, nil
}

// DefaultTransitionTable is the lab's standard workflow.
func DefaultTransitionTable() TransitionTable {
	table, err := NewTransitionTable(map[kernel.Role]map[Status][]Status{
		kernel.RoleUser: {
			StatusCart: {StatusPending},
		},
		kernel.RoleDentist: {
			StatusPending:     {StatusWithDentist},
			StatusWithDentist: {StatusSentToAdmin},
		},
		kernel.RoleAdmin: {
			StatusPending:     {StatusWithDentist, StatusCancelled},
			StatusWithDentist: {StatusSentToAdmin, StatusCancelled},
			StatusSentToAdmin: {StatusCompleted, StatusCancelled},
			StatusCompleted:   {StatusCompleted, StatusCancelled},
			StatusCart:        {StatusPending, StatusCancelled},
			StatusPaid:        {StatusCompleted},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("default transition table: %v", err))
	}
	return table
}

// Allows reports whether role may move an order from -> to.
func (t TransitionTable) Allows(role kernel.Role, from, to Status) bool {
	_, ok := t.rules[role][from][to]
	return ok
}

// Targets lists the statuses role may move an order to from the given status, sorted.
func (t TransitionTable) Targets(role kernel.Role, from Status) []Status {
	allowed := t.rules[role][from]
	out := make([]Status, 0, len(allowed))
	for s := range allowed {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StateMachine applies guarded transitions using a TransitionTable.
type StateMachine struct {
	table TransitionTable
}

func NewStateMachine(table TransitionTable) StateMachine {
	return StateMachine{table: table}
}

// Transition moves the order to target if the role's table allows it. On failure the
// order is left untouched and an IllegalTransitionError is returned.
func (m StateMachine) Transition(role kernel.Role, o *Order, target Status) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	if !m.table.Allows(role, o.status, target) {
		return errs.NewIllegalTransitionError(role.String(), o.status.String(), target.String())
	}

	o.changeStatus(target)
	return nil
}

// ForceStatus sets the status without consulting any transition table. It exists for
// administrative corrections only; callers must check the caller is an admin.
func (m StateMachine) ForceStatus(o *Order, target Status) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}

	o.changeStatus(target)
	return nil
}

// Table returns the table the machine enforces.
func (m StateMachine) Table() TransitionTable {
	return m.table
}
