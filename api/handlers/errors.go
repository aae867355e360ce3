package handlers

import (
	"errors"
	"net/http"

	"waggle/services"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP statuses.
// Blocked permission failures carry "blocked": true so the client can put
// the composer into its locked state instead of offering a retry.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
		return
	}

	var permissionErr *services.PermissionError
	if errors.As(err, &permissionErr) {
		body := gin.H{"error": permissionErr.Reason}
		if permissionErr.Blocked {
			body["blocked"] = true
		}
		c.JSON(http.StatusForbidden, body)
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}

	var transportErr *services.TransportError
	if errors.As(err, &transportErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "push gateway unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
