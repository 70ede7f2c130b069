package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/services"
	"github.com/openhire/jobboard/internal/utils"
)

type UserHandler struct {
	svc services.UserService
}

func NewUserHandler(svc services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type UpdateProfileRequest struct {
	Name    *string         `json:"name,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
	Company *models.Company `json:"company,omitempty"`
}

func (h *UserHandler) Update(c *gin.Context) {
	const op = "UserHandler.Update"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	existing, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Profile != nil {
		existing.Profile = *req.Profile
	}
	if req.Company != nil {
		existing.Company = *req.Company
	}

	updated, err := h.svc.UpdateProfile(c.Request.Context(), existing)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *UserHandler) EmployerStats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
