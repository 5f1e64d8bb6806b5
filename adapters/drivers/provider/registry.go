// Package providerdrv hosts the provider driver registry. Drivers live under
// adapters/drivers/provider/<name> and register themselves from init().
package providerdrv

import (
	"fmt"
	"sort"

	"github.com/yaegashi/botpressops/adapters/kube"
	"github.com/yaegashi/botpressops/domain/model"
)

// Driver abstracts provider-specific behavior. Operations a provider cannot
// perform return an error wrapping model.ErrNotSupported.
type Driver interface {
	// ID returns the provider identifier (e.g., "aks").
	ID() string

	model.ClusterPort
	model.DatabasePort
	model.TrustGrantPort
	model.DNSPort

	// IngressMutators returns provider-specific Helm value adjustments for
	// the ingress controller.
	IngressMutators() []kube.HelmValuesMutator
}

// driverFactory is a constructor function for a provider driver. stack is the
// name of the deployment the driver serves.
type driverFactory func(stack string, settings map[string]string) (Driver, error)

// registry holds registered drivers by name.
var registry = map[string]driverFactory{}

// Register makes a driver available by the given name. Drivers should call
// this from their init() function.
func Register(name string, factory driverFactory) {
	registry[name] = factory
}

// GetDriverFactory returns the driver factory function for the given name.
func GetDriverFactory(name string) (driverFactory, bool) {
	factory, exists := registry[name]
	return factory, exists
}

// New constructs the named driver.
func New(name, stack string, settings map[string]string) (Driver, error) {
	factory, ok := GetDriverFactory(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider driver: %s (available: %v)", name, Names())
	}
	d, err := factory(stack, settings)
	if err != nil {
		return nil, fmt.Errorf("create driver %s: %w", name, err)
	}
	return d, nil
}

// Names returns the registered driver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
