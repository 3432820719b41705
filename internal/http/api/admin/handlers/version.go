package handlers

import (
	"net/http"

	"github.com/acmprop/acmprop/internal/version"
	"github.com/gin-gonic/gin"
)

// VersionHandler serves build metadata.
type VersionHandler struct{}

// NewVersionHandler constructs a VersionHandler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// GetVersion returns the build version, commit, and date.
func (h *VersionHandler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    version.Version,
		"commit":     version.Commit,
		"build_date": version.BuildDate,
	})
}
