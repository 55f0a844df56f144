package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classbook/internal/apperr"
	"classbook/internal/logger"
)

type ErrorResponse struct {
	Error   string                 `json:"error" example:"no available slots"`
	Kind    string                 `json:"kind,omitempty" example:"class_full"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// RespondError maps a core error kind to a transport status. Internal kinds
// are logged with full context before the response is shaped.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	var e *apperr.Error
	if errors.As(err, &e) {
		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", "kind", string(e.Kind), "error", err.Error(), "path", c.FullPath())
		}
		c.JSON(status, ErrorResponse{Error: e.Message, Kind: string(e.Kind), Details: e.Fields})
		return
	}

	logger.Error("Request failed", "error", err.Error(), "path", c.FullPath())
	c.JSON(status, ErrorResponse{Error: "internal server error"})
}
