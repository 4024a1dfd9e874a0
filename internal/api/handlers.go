package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/service"
)

// Handler holds HTTP request handlers
type Handler struct {
	searchService  *service.SearchService
	contentService *service.ContentService
}

// NewHandler creates a new handler instance
func NewHandler(searchService *service.SearchService, contentService *service.ContentService) *Handler {
	return &Handler{
		searchService:  searchService,
		contentService: contentService,
	}
}

// Search handles search requests (both GET and POST). It always answers 200
// for a well-formed request; repository failures yield an empty result.
func (h *Handler) Search(c *gin.Context) {
	var req domain.SearchRequest

	// Support both GET and POST
	if c.Request.Method == http.MethodGet {
		req = parseSearchQuery(c)
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, h.searchService.Search(c.Request.Context(), req))
}

// parseSearchQuery reads a search from the query string. Unparseable numbers
// are dropped so Normalize applies its defaults.
func parseSearchQuery(c *gin.Context) domain.SearchRequest {
	req := domain.SearchRequest{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}
	for _, raw := range c.QueryArray("tags") {
		req.Tags = append(req.Tags, strings.Split(raw, ",")...)
	}
	return req
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

// Suggest handles title suggestion lookups.
func (h *Handler) Suggest(c *gin.Context) {
	req := domain.SuggestRequest{
		Q:     c.Query("q"),
		Limit: queryInt(c, "limit"),
	}
	c.JSON(http.StatusOK, h.searchService.Suggest(c.Request.Context(), req))
}

// GetContent returns one item by id.
func (h *Handler) GetContent(c *gin.Context) {
	item, err := h.contentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetContentBySlug returns one item by slug.
func (h *Handler) GetContentBySlug(c *gin.Context) {
	item, err := h.contentService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ViewsResponse is the body of a recorded view.
type ViewsResponse struct {
	ID    string `json:"id"`
	Views int64  `json:"views"`
}

// RecordView counts one view of an item.
func (h *Handler) RecordView(c *gin.Context) {
	id := c.Param("id")
	views, err := h.contentService.RecordView(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ViewsResponse{ID: id, Views: views})
}

// CreateContent stores a new item after sanitizing its body.
func (h *Handler) CreateContent(c *gin.Context) {
	var in domain.ContentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.contentService.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateContent replaces the editable fields of an item.
func (h *Handler) UpdateContent(c *gin.Context) {
	var in domain.ContentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.contentService.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteContent removes an item.
func (h *Handler) DeleteContent(c *gin.Context) {
	if err := h.contentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SanitizeRequest is the body of a sanitizer preview.
type SanitizeRequest struct {
	Content string `json:"content"`
}

// SanitizeResponse carries the cleaned HTML.
type SanitizeResponse struct {
	Content string `json:"content"`
}

// SanitizePreview runs the sanitizer without saving anything.
func (h *Handler) SanitizePreview(c *gin.Context) {
	var req SanitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	clean, err := h.contentService.Sanitize(req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SanitizeResponse{Content: clean})
}
