package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/interviewer/internal/api/middleware"
	"github.com/yoockh/interviewer/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeOf(err),
		Message: http.StatusText(status),
	})
}

func requireEmployerToken(c *gin.Context) (string, bool) {
	if s := c.GetString(middleware.ContextEmployerToken); s != "" {
		return s, true
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "missing employer token", nil))
	return "", false
}
