package handlers

import (
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/gin-gonic/gin"
)

// Context keys set by the front auth middleware.
const (
	// ContextUserID carries the authenticated user id.
	ContextUserID = "userID"
	// ContextRole carries the authenticated user's parsed role.
	ContextRole = "userRole"
	// ContextEmpresaID carries the resolved tenant id.
	ContextEmpresaID = "empresaID"
)

// getUserID reads the authenticated user id from the request context.
func getUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok && id != 0
}

// getRole reads the authenticated role from the request context.
func getRole(c *gin.Context) (roles.Role, bool) {
	value, exists := c.Get(ContextRole)
	if !exists {
		return "", false
	}
	role, ok := value.(roles.Role)
	return role, ok && role.Valid()
}

// getEmpresaID reads the resolved tenant id from the request context.
func getEmpresaID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(ContextEmpresaID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok && id != 0
}
