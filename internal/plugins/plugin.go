package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/terramuse/videocheck/internal/verify"
)

// DefaultEngine is used when no engine is selected.
const DefaultEngine = "playwright"

// Plugin is a browser engine that can be selected by name.
type Plugin interface {
	verify.Engine
	GetType() string
}

// Global plugin registry
var (
	registry          = make(map[string]Plugin)
	registryMu        sync.RWMutex
	registeredPlugins []Plugin
)

// RegisterPlugin registers a plugin in the global registry
func RegisterPlugin(plugin Plugin) {
	registryMu.Lock()
	defer registryMu.Unlock()

	pluginType := plugin.GetType()
	if _, exists := registry[pluginType]; exists {
		panic(fmt.Sprintf("plugin %s is already registered", pluginType))
	}

	registry[pluginType] = plugin
	registeredPlugins = append(registeredPlugins, plugin)
}

// GetPlugin retrieves a plugin by type from the registry
func GetPlugin(pluginType string) (Plugin, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	plugin, exists := registry[pluginType]
	return plugin, exists
}

// GetRegisteredPlugins returns all registered plugins
func GetRegisteredPlugins() []Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()

	// Return a copy to prevent external modification
	plugins := make([]Plugin, len(registeredPlugins))
	copy(plugins, registeredPlugins)
	return plugins
}

// Names returns the registered plugin types in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named engine, or an error listing the known ones.
func Resolve(name string) (Plugin, error) {
	if name == "" {
		name = DefaultEngine
	}
	plugin, ok := GetPlugin(name)
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (available: %v)", name, Names())
	}
	return plugin, nil
}

func unregister(pluginType string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	delete(registry, pluginType)
	kept := registeredPlugins[:0]
	for _, p := range registeredPlugins {
		if p.GetType() != pluginType {
			kept = append(kept, p)
		}
	}
	registeredPlugins = kept
}
