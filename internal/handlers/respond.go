package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/govjobalert/govjobalert/internal/middleware"
	"github.com/govjobalert/govjobalert/internal/services"
)

// respondError maps service errors to status codes. Store failures are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error, notFoundMsg, failureMsg string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		body := gin.H{"error": validationErr.Msg}
		if len(validationErr.Fields) > 0 {
			body["details"] = validationErr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	default:
		_ = c.Error(err)
		log.Error().Err(err).Str("path", c.Request.URL.Path).Str("request_id", middleware.GetRequestID(c)).Msg(failureMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMsg})
	}
}
