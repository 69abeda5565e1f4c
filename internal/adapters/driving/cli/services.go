package cli

import (
	"errors"

	"github.com/custodia-labs/discussion-sync/internal/config"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driving"
)

// Services are the driving ports the commands call.
type Services struct {
	Syncer    driving.Syncer
	Index     driving.IndexReader
	Rebuilder driving.IndexRebuilder
	History   driving.History

	// Close releases adapters such as the journal database. May be nil.
	Close func() error
}

// ServiceFactory builds Services from the resolved configuration.
type ServiceFactory func(cfg *config.Config) (*Services, error)

// SetServiceFactory installs the factory used by commands.
func SetServiceFactory(f ServiceFactory) {
	newServices = f
}

// loadServices returns the services for this invocation, building them on
// first use.
func loadServices() (*Services, error) {
	if svc != nil {
		return svc, nil
	}
	if newServices == nil {
		return nil, errors.New("services not configured")
	}
	if cfg == nil {
		return nil, errors.New("configuration not resolved")
	}

	s, err := newServices(cfg)
	if err != nil {
		return nil, err
	}
	svc = s
	return svc, nil
}
