package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/utils"
)

type AdminHandler struct {
	admin services.AdminService
	links services.LinkService
}

func NewAdminHandler(admin services.AdminService, links services.LinkService) *AdminHandler {
	return &AdminHandler{admin: admin, links: links}
}

func (h *AdminHandler) ListInterviews(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	items, err := h.admin.ListInterviews(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": items})
}

func (h *AdminHandler) ListMessages(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	items, err := h.admin.ListMessages(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": items})
}

func (h *AdminHandler) DeleteMessages(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	if err := h.admin.DeleteMessages(c.Request.Context(), token, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) CreateLink(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	var req services.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.CreateLink", "invalid request body", err))
		return
	}

	link, err := h.links.Create(c.Request.Context(), token, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}
