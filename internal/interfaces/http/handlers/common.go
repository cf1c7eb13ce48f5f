// internal/interfaces/http/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Kyac99/finance-gestion-app/internal/domain/shared"
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http/middleware"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respond writes the success envelope
func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, shared.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidState):
			status = http.StatusBadRequest
		case errors.Is(err, shared.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, shared.ErrUnauthorized):
			status = http.StatusUnauthorized
		}
		if status != http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": domainErr.Message})
			return
		}
	}

	_ = c.Error(err)
	log.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"path":       c.FullPath(),
	}).WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}

// respondBindError reports a request that could not be decoded or validated
func respondBindError(c *gin.Context, err error) {
	if fields := validation.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": fields,
		})
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "Request body too large",
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, param, entity string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + entity + " ID",
		})
		return 0, false
	}
	return uint(id), true
}

// actorID returns the authenticated user for audit columns
func actorID(c *gin.Context) *uint {
	if id, ok := middleware.GetUserIDFromContext(c); ok {
		return &id
	}
	return nil
}
