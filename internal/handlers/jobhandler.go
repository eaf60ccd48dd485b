package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/govjobalert/govjobalert/internal/dtos"
	"github.com/govjobalert/govjobalert/internal/services"
)

type JobHandler struct {
	JobService *services.JobService
	// Extractor is nil when no LLM is configured.
	Extractor services.ListingExtractor
}

func NewJobHandler(jobs *services.JobService, extractor services.ListingExtractor) *JobHandler {
	return &JobHandler{JobService: jobs, Extractor: extractor}
}

// ListJobs is GET /jobs.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dtos.ListJobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	criteria, page, err := toCriteria(&q)
	if err != nil {
		respondError(c, err, "", "Failed to fetch jobs")
		return
	}

	resp, err := h.JobService.ListJobs(c.Request.Context(), criteria, page)
	if err != nil {
		respondError(c, err, "", "Failed to fetch jobs")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetJob is GET /jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID must be a number"})
		return
	}
	resp, err := h.JobService.GetJobByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Job not found", "Failed to fetch job")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BulkImport is POST /jobs/bulk. Records are decoded one by one so a bad
// record does not reject the batch.
func (h *JobHandler) BulkImport(c *gin.Context) {
	var req struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Data == nil {
		msg := "body must be an object with a data array"
		if err != nil {
			msg = err.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data format", "details": msg})
		return
	}

	result, err := h.JobService.ImportRaw(c.Request.Context(), req.Data)
	if err != nil {
		respondError(c, err, "", "Bulk import failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExtractJobs is POST /jobs/extract: it returns the listings the LLM finds
// in a page without storing them.
func (h *JobHandler) ExtractJobs(c *gin.Context) {
	if h.Extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI extraction is not configured"})
		return
	}
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	listings, err := h.Extractor.ExtractJobListings(c.Request.Context(), req.RawHTML)
	if errors.Is(err, services.ErrLLMUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI extraction is not configured"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("listing extraction failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI extraction failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listings,
	})
}

// Meta is GET /meta?type=categories|locations|states.
func (h *JobHandler) Meta(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		data any
		err  error
	)
	switch c.Query("type") {
	case "categories":
		data, err = h.JobService.ListCategories(ctx)
	case "locations":
		data, err = h.JobService.ListLocations(ctx)
	case "states":
		data, err = h.JobService.ListStates(ctx)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meta type specified."})
		return
	}
	if err != nil {
		respondError(c, err, "", "Failed to fetch meta data")
		return
	}
	c.JSON(http.StatusOK, data)
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
