// Package payment holds the payment ledger and the processor-facing value objects:
// confirmation events, checkout requests and the minor-unit amount conversion shared by
// both directions of the processor integration.
package payment
