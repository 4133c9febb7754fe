// Package kernel provides the shared value objects of the dental lab domain.
//
// The package includes:
//   - UUID: identifier of orders, work items, files and people
//   - Money: a non-negative decimal amount with full internal precision
//   - Role and Principal: the acting party handed over by the identity boundary
//
// These primitives are immutable and safe for concurrent use.
package kernel
