// Package queries contains read operations of the order lifecycle.
// Queries never change state. Every query is scoped to the calling principal: orders
// outside the caller's scope are reported as not found.
package queries
