package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/aegisrent/aegis-console/internal/content"
)

// VersionInfo describes the running console server. Languages lets the
// frontend build its language switcher without hardcoding the list.
type VersionInfo struct {
	Service     string   `json:"service"`
	Version     string   `json:"version"`
	Commit      string   `json:"commit,omitempty"`
	BuildDate   string   `json:"build_date,omitempty"`
	Environment string   `json:"environment,omitempty"`
	GoVersion   string   `json:"go_version"`
	Languages   []string `json:"languages"`
}

// VersionHandler serves GET /version.
type VersionHandler struct {
	info VersionInfo
}

// NewVersionHandler creates a VersionHandler. GoVersion, Service and
// Languages are filled in when empty.
func NewVersionHandler(info VersionInfo) *VersionHandler {
	if info.Service == "" {
		info.Service = "aegis-console"
	}
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	if info.Languages == nil {
		info.Languages = append([]string(nil), content.Languages...)
	}
	return &VersionHandler{info: info}
}

// RegisterPublicRoutes registers the version route.
func (h *VersionHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/version", h.Get)
}

// Get returns the server version information.
func (h *VersionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}
