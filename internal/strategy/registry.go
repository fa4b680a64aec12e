package strategy

import (
	"fmt"
	"sort"

	"github.com/quantive/dca-backtest/pkg/config"
)

// Factory builds a strategy instance from a validated config.
type Factory func(cfg *config.BacktestConfig, estimateFees FeeEstimator) (Strategy, error)

// Registry maps strategy names to factories. Callers construct and
// populate their own registry; there is no package-level singleton.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name. Re-registering a name is an
// error so wiring mistakes surface at startup.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates the named strategy.
func (r *Registry) Create(name string, cfg *config.BacktestConfig, estimateFees FeeEstimator) (Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, r.Names())
	}
	return factory(cfg, estimateFees)
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("dca", func(cfg *config.BacktestConfig, estimateFees FeeEstimator) (Strategy, error) {
		return NewDCAStrategy(cfg, estimateFees), nil
	})
	return r
}
