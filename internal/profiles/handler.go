package profiles

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/llm"
	"careermap-backend/internal/shared/server/middleware"
	"careermap-backend/internal/shared/server/respond"
)

const maxResumeBytes = 5 << 20

// Handler wires HTTP handlers to the profile service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches profile routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/profile/turn", h.turn)
	rg.POST("/profile/sessions", h.startSession)
	rg.GET("/profile/sessions/:id", h.getSession)
	rg.POST("/profile/sessions/:id/answers", h.answer)
}

type turnRequest struct {
	PreviousAnswers []string `json:"previousAnswers"`
	CurrentQuestion string   `json:"currentQuestion"`
	Background      string   `json:"background"`
}

type startRequest struct {
	Background string `json:"background"`
}

type answerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

func (h *Handler) turn(c *gin.Context) {
	c.Set(middleware.FlowKey, string(llm.FlowProfileTurn))
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	if req.PreviousAnswers == nil {
		req.PreviousAnswers = []string{}
	}
	out, err := h.Svc.NextTurn(c.Request.Context(), TurnInput{
		PreviousAnswers: req.PreviousAnswers,
		CurrentQuestion: strings.TrimSpace(req.CurrentQuestion),
		Background:      strings.TrimSpace(req.Background),
	})
	if err != nil {
		respond.LLMFailure(c, err, "failed to run profile turn")
		return
	}
	respond.OK(c, out)
}

func (h *Handler) startSession(c *gin.Context) {
	c.Set(middleware.FlowKey, string(llm.FlowProfileTurn))
	userID := middleware.UserIDFromContext(c)

	var in StartInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeBytes)
		in.Background = c.PostForm("background")
		fh, err := c.FormFile("resume")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid resume upload", nil)
			return
		}
		if fh != nil {
			f, err := fh.Open()
			if err != nil {
				respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid resume upload", nil)
				return
			}
			defer f.Close()
			in.Resume = &Upload{FileName: fh.Filename, Body: f}
		}
	} else if c.Request.ContentLength != 0 {
		var req startRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
			return
		}
		in.Background = req.Background
	}

	session, err := h.Svc.Start(c.Request.Context(), userID, in)
	if err != nil {
		h.writeError(c, err, "failed to start profile session")
		return
	}
	c.Set(middleware.SessionIDKey, session.ID)
	respond.Created(c, session)
}

func (h *Handler) getSession(c *gin.Context) {
	sessionID := c.Param("id")
	c.Set(middleware.SessionIDKey, sessionID)
	session, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), sessionID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile session")
		return
	}
	respond.OK(c, session)
}

func (h *Handler) answer(c *gin.Context) {
	c.Set(middleware.FlowKey, string(llm.FlowProfileTurn))
	sessionID := c.Param("id")
	c.Set(middleware.SessionIDKey, sessionID)

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "answer is required", []map[string]string{
			{"field": "answer", "issue": "required"},
		})
		return
	}
	session, err := h.Svc.Answer(c.Request.Context(), middleware.UserIDFromContext(c), sessionID, req.Answer)
	if err != nil {
		h.writeError(c, err, "failed to record answer")
		return
	}
	respond.OK(c, session)
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "profile session not found", nil)
	case errors.Is(err, ErrSessionComplete):
		respond.Error(c, http.StatusConflict, respond.CodeValidation, "profile session already complete", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	default:
		respond.LLMFailure(c, err, fallback)
	}
}
