package coordinator

import (
	"fmt"

	"github.com/ChenxingM/RenderQ/pkg/plugins"
)

// ListPlugins returns every registered plugin, for client-side form
// generation.
func (c *Coordinator) ListPlugins() []plugins.Plugin {
	return c.Registry.List()
}

// GetPlugin returns a single registered plugin by name.
func (c *Coordinator) GetPlugin(name string) (plugins.Plugin, error) {
	plugin, err := c.Registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	return plugin, nil
}
