package roadmaps

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/profiles"
	"careermap-backend/internal/shared/server/middleware"
	"careermap-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the roadmap service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches roadmap routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/roadmaps", h.create)
	rg.GET("/roadmaps", h.list)
	rg.GET("/roadmaps/:id", h.get)
	rg.POST("/roadmaps/:id/regenerate", h.regenerate)
	rg.GET("/roadmaps/:id/outline", h.outline)
}

type createRequest struct {
	Profile   *profiles.Profile `json:"profile"`
	SessionID string            `json:"sessionId"`
}

func (h *Handler) create(c *gin.Context) {
	c.Set(middleware.FlowKey, string(llm.FlowRoadmap))
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	if req.SessionID != "" {
		c.Set(middleware.SessionIDKey, req.SessionID)
	}
	rec, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		Profile:   req.Profile,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeError(c, err, "failed to generate roadmap")
		return
	}
	c.Set(middleware.RoadmapIDKey, rec.ID)
	respond.Created(c, rec)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if limit <= 0 || limit > 100 || offset < 0 {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid pagination parameters", []map[string]string{
			{"field": "limit", "issue": "must be between 1 and 100"},
			{"field": "offset", "issue": "must be >= 0"},
		})
		return
	}
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list roadmaps", nil)
		return
	}
	respond.OK(c, gin.H{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.RoadmapIDKey, id)
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to fetch roadmap")
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) regenerate(c *gin.Context) {
	c.Set(middleware.FlowKey, string(llm.FlowRoadmap))
	id := c.Param("id")
	c.Set(middleware.RoadmapIDKey, id)
	rec, err := h.Svc.Regenerate(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to regenerate roadmap")
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) outline(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.RoadmapIDKey, id)
	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "failed to fetch roadmap")
		return
	}
	c.String(http.StatusOK, Outline(rec.Tree))
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "roadmap not found", nil)
	case errors.Is(err, profiles.ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "profile session not found", nil)
	case errors.Is(err, profiles.ErrSessionIncomplete):
		respond.Error(c, http.StatusConflict, respond.CodeValidation, "profile session is not complete", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	default:
		respond.LLMFailure(c, err, fallback)
	}
}
