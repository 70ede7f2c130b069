package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/services"
	"github.com/openhire/jobboard/internal/utils"
)

type JobHandler struct {
	svc services.JobService
}

func NewJobHandler(svc services.JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

type JobListResponse struct {
	Jobs       []models.Job        `json:"jobs"`
	Pagination services.Pagination `json:"pagination"`
}

func (h *JobHandler) List(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)

	f := mongorepo.JobFilter{
		Category: c.Query("category"),
		Type:     c.Query("type"),
		Location: c.Query("location"),
		Remote:   c.Query("remote") == "true",
		Search:   c.Query("search"),
	}

	jobs, pg, err := h.svc.List(c.Request.Context(), f, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, JobListResponse{Jobs: jobs, Pagination: pg})
}

func (h *JobHandler) Get(c *gin.Context) {
	const op = "JobHandler.Get"

	id, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	job, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Create(c *gin.Context) {
	const op = "JobHandler.Create"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var job models.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	created, err := h.svc.Create(c.Request.Context(), userID, &job)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *JobHandler) Update(c *gin.Context) {
	const op = "JobHandler.Update"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	var job models.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), id, userID, &job)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *JobHandler) Delete(c *gin.Context) {
	const op = "JobHandler.Delete"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id", op)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, userID, userRole(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

func (h *JobHandler) CategoryStats(c *gin.Context) {
	stats, err := h.svc.CategoryStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": stats})
}
