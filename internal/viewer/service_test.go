package viewer

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"careermap-backend/internal/mindmap"
	"careermap-backend/internal/roadmaps"
	"careermap-backend/internal/shared/storage/object"
	"careermap-backend/internal/shared/storage/object/local"
)

const owner = "guest:abc"

func sampleTree() roadmaps.Tree {
	return roadmaps.Tree{
		Title: "A",
		Stages: []roadmaps.Stage{
			{Name: "B", Type: roadmaps.StageSkills, Items: []roadmaps.Item{
				{Name: "C", Resources: []roadmaps.Resource{{Name: "D", Category: roadmaps.CategoryAIFirst}}},
			}},
			{Name: "E", Type: roadmaps.StageTimeline, Items: []roadmaps.Item{}},
		},
	}
}

type failingStore struct{}

func (failingStore) Save(ctx context.Context, userID, kind, fileName string, r io.Reader) (object.Info, error) {
	return object.Info{}, errors.New("bucket unavailable")
}

func (failingStore) SaveWithKey(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, errors.New("bucket unavailable")
}

func (failingStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("bucket unavailable")
}

func newTestService(t *testing.T, store object.ObjectStore) (*Service, *roadmaps.MemoryRepo) {
	t.Helper()
	repo := roadmaps.NewMemoryRepo()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	err := repo.Create(context.Background(), roadmaps.Record{
		ID:        "rm-1",
		UserID:    owner,
		Tree:      sampleTree(),
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc := NewService(repo, NewMemoryStore(time.Hour), store)
	svc.Now = func() time.Time { return now }
	return svc, repo
}

func visibleLabels(v View) string {
	labels := make([]string, 0, len(v.Projection.Nodes))
	for _, n := range v.Projection.Nodes {
		labels = append(labels, n.Label)
	}
	return strings.Join(labels, ",")
}

func TestViewStartsWithRootExpanded(t *testing.T) {
	svc, _ := newTestService(t, nil)
	v, err := svc.View(context.Background(), owner, "rm-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if got := visibleLabels(v); got != "A,B,E" {
		t.Fatalf("unexpected visible nodes %q", got)
	}
	if len(v.Layout.Nodes) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(v.Layout.Nodes))
	}
	if v.Revision != 1 || v.Title != "A" {
		t.Fatalf("unexpected view metadata %+v", v)
	}
}

func TestTogglePersistsState(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, owner, "rm-1", 2); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	v, err := svc.View(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if got := visibleLabels(v); got != "A,B,E,C" {
		t.Fatalf("unexpected visible nodes %q", got)
	}

	// Other users keep their own state and cannot see this roadmap.
	if _, err := svc.View(ctx, "guest:other", "rm-1"); !errors.Is(err, roadmaps.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
}

func TestToggleUnknownNodeLeavesState(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, owner, "rm-1", 42); !errors.Is(err, mindmap.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
	if _, err := svc.States.Get(ctx, owner, "rm-1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected no stored state, got %v", err)
	}
}

func TestToggleHiddenNodeLeavesState(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	// C (3) is below B (2), which has not been expanded yet.
	if _, err := svc.Toggle(ctx, owner, "rm-1", 3); !errors.Is(err, mindmap.ErrHiddenNode) {
		t.Fatalf("expected ErrHiddenNode, got %v", err)
	}
	if _, err := svc.States.Get(ctx, owner, "rm-1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected no stored state, got %v", err)
	}

	if _, err := svc.Toggle(ctx, owner, "rm-1", 2); err != nil {
		t.Fatalf("Toggle B: %v", err)
	}
	v, err := svc.Toggle(ctx, owner, "rm-1", 3)
	if err != nil {
		t.Fatalf("Toggle C: %v", err)
	}
	if got := visibleLabels(v); got != "A,B,E,C,D" {
		t.Fatalf("unexpected visible nodes %q", got)
	}
}

type failingLayouter struct{}

func (failingLayouter) Layout(ctx context.Context, p mindmap.Projection) (mindmap.Layout, error) {
	return mindmap.Layout{}, errors.New("layout engine down")
}

func TestLayoutFailureIsReported(t *testing.T) {
	svc, _ := newTestService(t, nil)
	svc.Layouter = failingLayouter{}

	if _, err := svc.View(context.Background(), owner, "rm-1"); err == nil || !strings.Contains(err.Error(), "layout engine down") {
		t.Fatalf("expected layout error, got %v", err)
	}
	if _, err := svc.RenderPNG(context.Background(), owner, "rm-1"); err == nil {
		t.Fatalf("expected render to fail without a layout")
	}
}

func TestExpandAllCollapseAllAndReset(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	v, err := svc.ExpandAll(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	if len(v.Projection.Nodes) != 5 || len(v.Projection.Edges) != 4 {
		t.Fatalf("expected the whole tree, got %d nodes %d edges", len(v.Projection.Nodes), len(v.Projection.Edges))
	}

	v, err = svc.CollapseAll(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("CollapseAll: %v", err)
	}
	if got := visibleLabels(v); got != "A,B,E" {
		t.Fatalf("unexpected visible nodes %q", got)
	}

	if _, err := svc.ExpandAll(ctx, owner, "rm-1"); err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	v, err = svc.Reset(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := visibleLabels(v); got != "A,B,E" {
		t.Fatalf("unexpected visible nodes after reset %q", got)
	}
	if _, err := svc.States.Get(ctx, owner, "rm-1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected state to be deleted, got %v", err)
	}
}

func TestRegeneratedRoadmapResetsState(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.ExpandAll(ctx, owner, "rm-1"); err != nil {
		t.Fatalf("ExpandAll: %v", err)
	}
	err := repo.UpdateTree(ctx, roadmaps.Record{ID: "rm-1", UserID: owner, Tree: sampleTree(), Revision: 2})
	if err != nil {
		t.Fatalf("UpdateTree: %v", err)
	}

	v, err := svc.View(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if got := visibleLabels(v); got != "A,B,E" {
		t.Fatalf("stale expansion survived regeneration: %q", got)
	}
	if v.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", v.Revision)
	}
}

func TestRenderPNG(t *testing.T) {
	svc, _ := newTestService(t, nil)
	data, err := svc.RenderPNG(context.Background(), owner, "rm-1")
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("invalid png: %v", err)
	}
}

func TestExportAndOpen(t *testing.T) {
	svc, _ := newTestService(t, local.New(t.TempDir()))
	ctx := context.Background()

	out, err := svc.Export(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.HasPrefix(out.Key, object.KindExport+"/") || !strings.HasSuffix(out.Key, ".png") {
		t.Fatalf("unexpected key %q", out.Key)
	}
	if out.SizeBytes == 0 || out.ContentType != "image/png" {
		t.Fatalf("unexpected export %+v", out)
	}

	rc, err := svc.OpenExport(ctx, owner, "/"+out.Key)
	if err != nil {
		t.Fatalf("OpenExport: %v", err)
	}
	defer rc.Close()
	if _, err := png.Decode(rc); err != nil {
		t.Fatalf("stored export is not a png: %v", err)
	}

	if _, err := svc.OpenExport(ctx, "guest:other", out.Key); !errors.Is(err, ErrExportNotFound) {
		t.Fatalf("expected ErrExportNotFound for another user, got %v", err)
	}
	if _, err := svc.OpenExport(ctx, owner, "exports/../secrets"); !errors.Is(err, ErrExportNotFound) {
		t.Fatalf("expected traversal to be rejected, got %v", err)
	}
}

func TestExportFailureKeepsViewState(t *testing.T) {
	svc, _ := newTestService(t, failingStore{})
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, owner, "rm-1", 2); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	before, _ := svc.States.Get(ctx, owner, "rm-1")

	if _, err := svc.Export(ctx, owner, "rm-1"); err == nil {
		t.Fatalf("expected export error")
	}
	after, err := svc.States.Get(ctx, owner, "rm-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(after.Expanded) != len(before.Expanded) || after.Revision != before.Revision {
		t.Fatalf("state changed after failed export: %+v vs %+v", before, after)
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Put(ctx, owner, State{RoadmapID: "rm-1", Revision: 1, Expanded: []mindmap.NodeID{1, 2}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	st, err := store.Get(ctx, owner, "rm-1")
	if err != nil || len(st.Expanded) != 2 {
		t.Fatalf("unexpected state %+v, %v", st, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, owner, "rm-1"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected expired state, got %v", err)
	}
}
