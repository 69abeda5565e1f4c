// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. They never touch the filesystem
// directly; every side effect goes through a driven port.
package services
