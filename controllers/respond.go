package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worshipstreet/storefront-backend/common/apperrors"
	"github.com/worshipstreet/storefront-backend/common/logger"
	"go.uber.org/zap"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// respondError translates any error through the taxonomy and logs internals.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Kind == apperrors.KindInternal {
		logger.Log.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	c.JSON(appErr.Code, Envelope{Success: false, Error: appErr.Message})
}
