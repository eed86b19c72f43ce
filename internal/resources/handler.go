package resources

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/shared/server/middleware"
	"careermap-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the recommendation service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resource routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resources/recommendations", h.recommend)
}

func (h *Handler) recommend(c *gin.Context) {
	c.Set(middleware.FlowKey, string(llm.FlowResources))
	var req RecommendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	items, err := h.Svc.Recommend(c.Request.Context(), req.Profile, req.Goal)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
			return
		}
		respond.LLMFailure(c, err, "failed to recommend resources")
		return
	}
	respond.OK(c, gin.H{"resources": items})
}
