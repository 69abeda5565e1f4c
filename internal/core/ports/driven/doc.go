// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - IndexStore: Loads and persists the discussion index file
//   - DocumentWriter: Writes and removes discussion documents
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Journal: Records the outcome of every run. Without it, history is unavailable.
//   - DocumentScanner: Lists documents on disk. Only needed to rebuild the index.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
