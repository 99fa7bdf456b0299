package editor

import (
	"fmt"
	"sort"
	"sync"
)

// Factory instantiates a module for an editor from its configuration.
type Factory func(ed Editor, options any) (any, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a module available under name. Registering the same name
// again replaces the previous factory.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("editor: Register factory is nil")
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Modules returns the sorted names of all registered modules.
func Modules() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate creates the named module for ed.
func Instantiate(name string, ed Editor, options any) (any, error) {
	factory, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("module %q is not registered", name)
	}

	module, err := factory(ed, options)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module %q; %w", name, err)
	}
	return module, nil
}
