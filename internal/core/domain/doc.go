// Package domain defines the core business entities for discussion-sync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Discussion: The validated record carried by one lifecycle event
//   - Event: An action (created, edited, deleted) applied to a Discussion
//   - Index: The identifier to document path mapping persisted between runs
//   - Outcome: The structured result of applying one Event
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
