package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/interviewer/internal/utils"
)

const (
	ContextRequestID     = "request_id"
	ContextEmployerToken = "employer_token"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// EmployerAuth requires an employer token, taken from "Authorization: Bearer",
// the X-Employer-Token header or, for websocket upgrades, the employer_token
// query parameter. The token is resolved to an employer by the services.
func EmployerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := employerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing employer token",
			})
			return
		}
		c.Set(ContextEmployerToken, token)
		c.Next()
	}
}

func employerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(c.GetHeader("X-Employer-Token")); t != "" {
		return t
	}
	if websocketUpgrade(c.Request) {
		return strings.TrimSpace(c.Query("employer_token"))
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
