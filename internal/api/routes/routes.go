package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/yoockh/interviewer/internal/api/handlers"
	"github.com/yoockh/interviewer/internal/api/middleware"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	Voice     *handlers.VoiceHandler
	WS        *handlers.WSHandler
	Admin     *handlers.AdminHandler
	Roles     *handlers.RoleHandler

	// applied to candidate endpoints; nil disables rate limiting
	Limiter *middleware.IPRateLimiter
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	candidate := r.Group("/")
	if d.Limiter != nil {
		candidate.Use(middleware.RateLimit(d.Limiter))
	}
	candidate.POST("/interview/message", d.Interview.Message)
	candidate.POST("/interview/voice", d.Voice.Turn)
	candidate.GET("/ws/interview/:session_id", d.WS.CandidateWS)

	admin := r.Group("/admin")
	admin.Use(middleware.EmployerAuth())

	admin.GET("/interviews", d.Admin.ListInterviews)
	admin.GET("/interviews/:id/messages", d.Admin.ListMessages)
	admin.DELETE("/interviews/:id/messages", d.Admin.DeleteMessages)
	admin.POST("/links", d.Admin.CreateLink)

	admin.GET("/roles", d.Roles.List)
	admin.POST("/roles", d.Roles.Create)
	admin.DELETE("/roles/:id", d.Roles.Delete)
	admin.POST("/roles/describe", d.Roles.Describe)

	admin.GET("/ws/interviews/:session_id", d.WS.MonitorWS)
}

// WithCORS wraps the router for browser clients on the given origins.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Employer-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(h)
}
