// Package cli implements the discussion-sync command line.
//
// Commands are registered on rootCmd in init functions. Services are
// built lazily from the resolved configuration through the factory set
// with SetServiceFactory, so commands such as version never open stores.
package cli
