package handlers

import (
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/gin-gonic/gin"
)

// Context keys set by the admin auth middleware.
const (
	// ContextAdminID carries the authenticated internal user id.
	ContextAdminID = "adminID"
	// ContextAdminRole carries the authenticated internal role.
	ContextAdminRole = "adminRole"
)

// getAdminID reads the authenticated internal user id from the context.
func getAdminID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(ContextAdminID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok && id != 0
}

// getAdminRole reads the authenticated internal role from the context.
func getAdminRole(c *gin.Context) (roles.Role, bool) {
	value, exists := c.Get(ContextAdminRole)
	if !exists {
		return "", false
	}
	role, ok := value.(roles.Role)
	return role, ok && role.Internal()
}

// actorFromContext builds the authenticated principal for tenant checks.
// Internal accounts carry no empresa binding.
func actorFromContext(c *gin.Context) roles.Actor {
	id, _ := getAdminID(c)
	role, _ := getAdminRole(c)
	return roles.Actor{UserID: id, Role: role}
}
