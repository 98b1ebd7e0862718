package tool

import (
	"fmt"
	"sort"

	"github.com/convoloop/convoloop/provider"
)

// Registry maps tool names to implementations. It is built once at startup
// and read-only afterwards, making it safe to share across concurrent runs
// without locking.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry constructs a registry from the given tools. Duplicate names
// surface as an error at construction time rather than shadowing silently.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustRegistry is a NewRegistry variant that panics on duplicate names.
// Intended for static registration in main().
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) register(t Tool) error {
	if t.Name() == "" {
		return fmt.Errorf("tool with empty name")
	}
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("duplicate tool name %q", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Resolve returns the tool registered under name.
func (r *Registry) Resolve(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions exposes the schema set supplied to the reasoning stage,
// ordered by tool name for deterministic requests.
func (r *Registry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.tools))
	for _, name := range r.Names() {
		t := r.tools[name]
		defs = append(defs, provider.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
