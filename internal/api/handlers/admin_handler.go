package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openhire/jobboard/internal/services"
	"github.com/openhire/jobboard/internal/utils"
)

type AdminHandler struct {
	svc services.AdminService
}

func NewAdminHandler(svc services.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	users, pg, err := h.svc.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "pagination": pg})
}

type SetUserActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *AdminHandler) SetUserActive(c *gin.Context) {
	const op = "AdminHandler.SetUserActive"

	id, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	var req SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "active flag is required", err))
		return
	}

	u, err := h.svc.SetUserActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
