package roadmaps

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/shared/server/middleware"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, w.Body.String())
	}
	return env.Error.Code
}

func TestCreateAndFetchRoadmap(t *testing.T) {
	svc := newTestService(t, &fakeLLM{outputs: []string{v3Sample}}, SchemaV3)
	r := newTestRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/roadmaps", map[string]any{"sessionId": "session-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec Record
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/roadmaps/"+rec.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/roadmaps/"+rec.ID+"/outline", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "Backend Engineer Path\n") {
		t.Fatalf("unexpected outline %d: %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/roadmaps?limit=5", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), rec.ID) {
		t.Fatalf("list missing roadmap: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateRoadmapErrors(t *testing.T) {
	cases := []struct {
		name   string
		output string
		body   any
		status int
		code   string
	}{
		{name: "missing profile", body: map[string]any{}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "incomplete session", body: map[string]any{"sessionId": "session-9"}, status: http.StatusConflict, code: "validation_error"},
		{name: "schema mismatch", output: `{"title":"x","description":"","stages":[{"name":"s","type":"bogus","description":"","items":[]}]}`, body: map[string]any{"sessionId": "session-1"}, status: http.StatusBadGateway, code: "llm_schema_mismatch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeLLM{}
			if tc.output != "" {
				client.outputs = []string{tc.output}
			}
			r := newTestRouter(newTestService(t, client, SchemaV3))
			w := doJSON(r, http.MethodPost, "/api/v1/roadmaps", tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if got := errorCode(t, w); got != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
		})
	}
}

func TestGetRoadmapNotFound(t *testing.T) {
	r := newTestRouter(newTestService(t, &fakeLLM{}, SchemaV3))
	w := doJSON(r, http.MethodGet, "/api/v1/roadmaps/nope", nil)
	if w.Code != http.StatusNotFound || errorCode(t, w) != "not_found" {
		t.Fatalf("expected not_found, got %d %s", w.Code, w.Body.String())
	}
}

func TestListRoadmapsRejectsBadPagination(t *testing.T) {
	r := newTestRouter(newTestService(t, &fakeLLM{}, SchemaV3))
	w := doJSON(r, http.MethodGet, "/api/v1/roadmaps?limit=500", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegenerateEndpoint(t *testing.T) {
	svc := newTestService(t, &fakeLLM{outputs: []string{v3Sample, v3Sample}}, SchemaV3)
	r := newTestRouter(svc)
	w := doJSON(r, http.MethodPost, "/api/v1/roadmaps", map[string]any{"sessionId": "session-1"})
	var rec Record
	_ = json.Unmarshal(w.Body.Bytes(), &rec)

	w = doJSON(r, http.MethodPost, "/api/v1/roadmaps/"+rec.ID+"/regenerate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated Record
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", updated.Revision)
	}
}
