package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/utils"
)

type RoleHandler struct {
	roles services.RoleService
}

func NewRoleHandler(roles services.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

func (h *RoleHandler) List(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	roles, err := h.roles.List(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (h *RoleHandler) Create(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	var req services.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RoleHandler.Create", "invalid request body", err))
		return
	}

	role, err := h.roles.Create(c.Request.Context(), token, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func (h *RoleHandler) Delete(c *gin.Context) {
	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}

	if err := h.roles.Delete(c.Request.Context(), token, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type DescribeRoleRequest struct {
	Role     string `json:"role"`
	Employer string `json:"employer"`
}

// Describe answers {"description": null} when no draft could be produced.
func (h *RoleHandler) Describe(c *gin.Context) {
	const op = "RoleHandler.Describe"

	if _, ok := requireEmployerToken(c); !ok {
		return
	}

	var req DescribeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Role) == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "role is required", nil))
		return
	}

	desc, err := h.roles.Describe(c.Request.Context(), req.Role, req.Employer)
	if err != nil {
		writeError(c, err)
		return
	}
	var out *string
	if desc != "" {
		out = &desc
	}
	c.JSON(http.StatusOK, gin.H{"description": out})
}
