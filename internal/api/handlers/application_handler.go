package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/services"
	"github.com/openhire/jobboard/internal/utils"
)

type ApplicationHandler struct {
	svc services.ApplicationService
}

func NewApplicationHandler(svc services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

type SubmitApplicationRequest struct {
	CoverLetter string `json:"cover_letter"`
	Resume      string `json:"resume"`
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	const op = "ApplicationHandler.Submit"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	app, err := h.svc.Submit(c.Request.Context(), jobID, userID, req.CoverLetter, req.Resume)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

type TransitionRequest struct {
	Status models.Status `json:"status"`
	Notes  string        `json:"notes"`
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	const op = "ApplicationHandler.UpdateStatus"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	appID, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	app, err := h.svc.Transition(c.Request.Context(), appID, userID, userRole(c), req.Status, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	const op = "ApplicationHandler.Get"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	appID, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	app, err := h.svc.Get(c.Request.Context(), appID, userID, userRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	apps, err := h.svc.ListByCandidate(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	const op = "ApplicationHandler.ListForJob"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	apps, err := h.svc.ListByJob(c.Request.Context(), jobID, userID, userRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}
