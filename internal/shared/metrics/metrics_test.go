package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFlowCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(flowCalls.WithLabelValues("roadmap", OutcomeSchemaInvalid))
	ObserveFlow("roadmap", OutcomeSchemaInvalid, 1500*time.Millisecond)
	after := testutil.ToFloat64(flowCalls.WithLabelValues("roadmap", OutcomeSchemaInvalid))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestHandlerRendersPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveFlow("profile_turn", OutcomeOK, time.Second)
	ObserveProjection(4)
	IncExport("png", OutcomeOK)

	r := gin.New()
	r.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{
		"careermap_llm_flow_calls_total",
		"careermap_llm_flow_duration_seconds_bucket",
		"careermap_mindmap_visible_nodes_count",
		"careermap_mindmap_exports_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q", want)
		}
	}
}
