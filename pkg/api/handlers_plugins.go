package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/plugins"
)

// pluginInfo is the wire shape for plugin introspection: a plugin value
// itself isn't JSON-serializable (it's an interface with methods, not
// fields), so handlers project it into a plain struct.
type pluginInfo struct {
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Parameters  []plugins.Parameter `json:"parameters"`
}

func toPluginInfo(p plugins.Plugin) pluginInfo {
	return pluginInfo{
		Name:        p.Name(),
		DisplayName: p.DisplayName(),
		Version:     p.Version(),
		Description: p.Description(),
		Parameters:  p.Parameters(),
	}
}

func (h *handlers) listPlugins(c *gin.Context) {
	list := h.coord.ListPlugins()
	infos := make([]pluginInfo, len(list))
	for i, p := range list {
		infos[i] = toPluginInfo(p)
	}
	c.JSON(http.StatusOK, infos)
}

func (h *handlers) getPlugin(c *gin.Context) {
	p, err := h.coord.GetPlugin(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPluginInfo(p))
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.coord.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
