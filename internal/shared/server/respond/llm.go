package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/llm"
)

// LLMFailure maps a failed generation call onto the error envelope.
func LLMFailure(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, llm.ErrSchemaValidation):
		Error(c, http.StatusBadGateway, CodeLLMSchemaMismatch, "model output did not match the expected schema", gin.H{"reason": err.Error()})
	case errors.Is(err, llm.ErrTimeout):
		Error(c, http.StatusGatewayTimeout, CodeLLMTimeout, "model call timed out", nil)
	case errors.Is(err, llm.ErrNotImplemented):
		Error(c, http.StatusServiceUnavailable, CodeInternal, "LLM provider is not configured", nil)
	default:
		Error(c, http.StatusInternalServerError, CodeInternal, fallback, nil)
	}
}
