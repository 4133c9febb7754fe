// Package order provides the Order aggregate of the dental lab: the unit of fabrication
// work a requester orders from a fulfilling dentist, tracked through a role-gated status
// lifecycle and settled by an external payment.
//
// The package includes:
//   - Order: the aggregate root binding items, files, status and payment fields
//   - ItemSet and WorkItem: priced work, replaced as a whole, never patched
//   - FileRegistry and UploadedFile: append-only file metadata with per-role visibility
//   - Status, PaymentStatus: the persisted vocabularies
//   - TransitionTable and StateMachine: role-scoped status transitions
//   - Patch: optional-field updates
//
// Key business rules:
//   - total always equals the sum of the current items' unit prices
//   - an order is created with at least one item; an update may leave it itemless
//   - a role may only move an order along its own transition table
//   - files authored by the dentist reach the requester once the order is terminee
package order
