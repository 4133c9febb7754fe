package order

import (
	"fmt"

	"dentallab/internal/pkg/errs"
)

// Status is the order lifecycle state. The string values are persisted as-is and must
// stay byte-for-byte compatible with existing data.
//
//	panier ──> en_attente ──> chez_dentiste ──> envoye_admin ──> terminee
//	   │            │               │                │              │
//	   └────────────┴───────────────┴────────────────┴──────────> annulee
//
// paye, rembourse and valide_admin are part of the vocabulary but are only reached
// through StateMachine.ForceStatus unless a transition table says otherwise.
type Status string

const (
	StatusCart          Status = "panier"
	StatusPending       Status = "en_attente"
	StatusWithDentist   Status = "chez_dentiste"
	StatusSentToAdmin   Status = "envoye_admin"
	StatusAdminApproved Status = "valide_admin"
	StatusCompleted     Status = "terminee"
	StatusCancelled     Status = "annulee"
	StatusPaid          Status = "paye"
	StatusRefunded      Status = "rembourse"
)

// AllStatuses lists the vocabulary in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusCart,
		StatusPending,
		StatusWithDentist,
		StatusSentToAdmin,
		StatusAdminApproved,
		StatusCompleted,
		StatusCancelled,
		StatusPaid,
		StatusRefunded,
	}
}

// ParseStatus accepts the exact persisted tokens.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

func (s Status) Validate() error {
	for _, known := range AllStatuses() {
		if s == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", string(s)))
}

// IsTerminal reports whether the status ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

func (s Status) String() string {
	return string(s)
}

// PaymentStatus is stored in its own column. Its tokens overlap with Status to match
// stored data; the two fields must never be compared with each other.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "panier"
	PaymentPaid     PaymentStatus = "paye"
	PaymentRefunded PaymentStatus = "rembourse"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(s)
	if err := ps.Validate(); err != nil {
		return "", err
	}
	return ps, nil
}

func (s PaymentStatus) Validate() error {
	switch s {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause(
			"payment status is invalid",
			fmt.Errorf("%q is not a valid payment status", string(s)),
		)
	}
}

func (s PaymentStatus) String() string {
	return string(s)
}
