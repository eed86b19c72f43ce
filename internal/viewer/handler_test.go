package viewer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"careermap-backend/internal/mindmap"
	"careermap-backend/internal/shared/server/middleware"
	"careermap-backend/internal/shared/storage/object/local"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func send(r http.Handler, method, path, guest string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", guest)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) View {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var v View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func TestViewEndpoints(t *testing.T) {
	svc, _ := newTestService(t, local.New(t.TempDir()))
	r := newTestRouter(svc)

	v := decodeView(t, send(r, http.MethodGet, "/api/v1/roadmaps/rm-1/view", "abc", nil))
	if len(v.Projection.Nodes) != 3 {
		t.Fatalf("expected 3 visible nodes, got %d", len(v.Projection.Nodes))
	}

	v = decodeView(t, send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/toggle", "abc", map[string]any{"nodeId": 2}))
	if len(v.Projection.Nodes) != 4 {
		t.Fatalf("expected 4 visible nodes after toggle, got %d", len(v.Projection.Nodes))
	}
	if len(v.Layout.Nodes) != 4 {
		t.Fatalf("expected a placement per visible node, got %d", len(v.Layout.Nodes))
	}
	item := v.Projection.Nodes[3]
	if data, ok := item.Data.(mindmap.ItemPayload); !ok || data.Name != "C" {
		t.Fatalf("expected item payload for C, got %#v", item.Data)
	}

	v = decodeView(t, send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/expand-all", "abc", nil))
	if len(v.Projection.Nodes) != 5 {
		t.Fatalf("expected all nodes, got %d", len(v.Projection.Nodes))
	}

	v = decodeView(t, send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/collapse-all", "abc", nil))
	if len(v.Projection.Nodes) != 3 {
		t.Fatalf("expected collapsed view, got %d", len(v.Projection.Nodes))
	}

	v = decodeView(t, send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/reset", "abc", nil))
	if len(v.Projection.Expanded) != 1 {
		t.Fatalf("expected only the root expanded, got %v", v.Projection.Expanded)
	}
}

func TestToggleEndpointErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	r := newTestRouter(svc)

	if w := send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/toggle", "abc", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing nodeId, got %d", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/toggle", "abc", map[string]any{"nodeId": 77}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown node, got %d", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/toggle", "abc", map[string]any{"nodeId": 3}); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a node under a collapsed stage, got %d", w.Code)
	}
	if w := send(r, http.MethodGet, "/api/v1/roadmaps/missing/view", "abc", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown roadmap, got %d", w.Code)
	}
}

func TestPNGAndExportEndpoints(t *testing.T) {
	svc, _ := newTestService(t, local.New(t.TempDir()))
	r := newTestRouter(svc)

	w := send(r, http.MethodGet, "/api/v1/roadmaps/rm-1/view.png", "abc", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected png response %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	w = send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/exports", "abc", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out Export
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode export: %v", err)
	}

	w = send(r, http.MethodGet, "/api/v1/exports/"+out.Key, "abc", nil)
	if w.Code != http.StatusOK || w.Body.Len() != int(out.SizeBytes) {
		t.Fatalf("unexpected download %d (%d bytes)", w.Code, w.Body.Len())
	}

	w = send(r, http.MethodGet, "/api/v1/exports/"+out.Key, "someone-else", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", w.Code)
	}
}

func TestExportEndpointStoreFailure(t *testing.T) {
	svc, _ := newTestService(t, failingStore{})
	r := newTestRouter(svc)

	w := send(r, http.MethodPost, "/api/v1/roadmaps/rm-1/view/exports", "abc", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
