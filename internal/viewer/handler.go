package viewer

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/mindmap"
	"careermap-backend/internal/roadmaps"
	"careermap-backend/internal/shared/server/middleware"
	"careermap-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the viewer service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches viewer routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/roadmaps/:id/view", h.view)
	rg.POST("/roadmaps/:id/view/toggle", h.toggle)
	rg.POST("/roadmaps/:id/view/expand-all", h.expandAll)
	rg.POST("/roadmaps/:id/view/collapse-all", h.collapseAll)
	rg.POST("/roadmaps/:id/view/reset", h.reset)
	rg.GET("/roadmaps/:id/view.png", h.png)
	rg.POST("/roadmaps/:id/view/exports", h.export)
	rg.GET("/exports/*key", h.openExport)
}

type toggleRequest struct {
	NodeID *mindmap.NodeID `json:"nodeId" binding:"required"`
}

func (h *Handler) view(c *gin.Context) {
	id := roadmapParam(c)
	v, err := h.Svc.View(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) toggle(c *gin.Context) {
	id := roadmapParam(c)
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "nodeId is required", nil)
		return
	}
	v, err := h.Svc.Toggle(c.Request.Context(), middleware.UserIDFromContext(c), id, *req.NodeID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) expandAll(c *gin.Context) {
	v, err := h.Svc.ExpandAll(c.Request.Context(), middleware.UserIDFromContext(c), roadmapParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) collapseAll(c *gin.Context) {
	v, err := h.Svc.CollapseAll(c.Request.Context(), middleware.UserIDFromContext(c), roadmapParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) reset(c *gin.Context) {
	v, err := h.Svc.Reset(c.Request.Context(), middleware.UserIDFromContext(c), roadmapParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) png(c *gin.Context) {
	data, err := h.Svc.RenderPNG(c.Request.Context(), middleware.UserIDFromContext(c), roadmapParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, pngContentType, data)
}

func (h *Handler) export(c *gin.Context) {
	out, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), roadmapParam(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, out)
}

func (h *Handler) openExport(c *gin.Context) {
	rc, err := h.Svc.OpenExport(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", pngContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func roadmapParam(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.RoadmapIDKey, id)
	return id
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roadmaps.ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "roadmap not found", nil)
	case errors.Is(err, ErrExportNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "export not found", nil)
	case errors.Is(err, mindmap.ErrUnknownNode):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	case errors.Is(err, mindmap.ErrHiddenNode):
		respond.Error(c, http.StatusConflict, respond.CodeValidation, "node is inside a collapsed subtree", nil)
	case errors.Is(err, mindmap.ErrImageTooLarge):
		respond.Error(c, http.StatusUnprocessableEntity, respond.CodeValidation, "diagram is too large to render; collapse some nodes", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "viewer request failed", nil)
	}
}
