package model

import (
	"fmt"
	"sort"
	"strings"
)

// Settings carries provider-level connection settings. Per-call tuning
// (model name, temperature) travels in Options instead.
type Settings struct {
	APIKey  string
	BaseURL string
}

// Constructor builds a client from settings.
type Constructor func(Settings) (Client, error)

// constructors maps provider names to their constructors. Providers
// register themselves via Register.
var constructors = make(map[string]Constructor)

// Register registers a provider constructor by name.
func Register(name string, constructor Constructor) {
	constructors[strings.ToLower(name)] = constructor
}

// New creates a client for the named provider.
func New(name string, settings Settings) (Client, error) {
	constructor, ok := constructors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s (supported: %s)", name, strings.Join(Available(), ", "))
	}
	return constructor(settings)
}

// ToolCapable lets a provider advertise whether it can run tool-calling
// turns. Providers that do not implement it are assumed capable.
type ToolCapable interface {
	SupportsTools() bool
}

// SupportsTools reports whether client can serve tool-calling roles.
func SupportsTools(client Client) bool {
	if tc, ok := client.(ToolCapable); ok {
		return tc.SupportsTools()
	}
	return true
}

// Available returns the registered provider names, sorted.
func Available() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
