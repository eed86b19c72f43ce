// Package viewer keeps per-user mind-map view state for stored roadmaps and
// serves projections, layouts and PNG exports of it.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"careermap-backend/internal/mindmap"
	"careermap-backend/internal/roadmaps"
	"careermap-backend/internal/shared/metrics"
	"careermap-backend/internal/shared/storage/object"
	"careermap-backend/internal/shared/telemetry"
)

// ErrExportNotFound is returned for export keys that do not exist or belong to another user.
var ErrExportNotFound = errors.New("export not found")

const pngContentType = "image/png"

// RoadmapSource loads a stored roadmap for its owner.
type RoadmapSource interface {
	Get(ctx context.Context, userID, id string) (roadmaps.Record, error)
}

// View is a projection of a roadmap together with its layout.
type View struct {
	RoadmapID  string             `json:"roadmapId"`
	Revision   int                `json:"revision"`
	Title      string             `json:"title"`
	Projection mindmap.Projection `json:"projection"`
	Layout     mindmap.Layout     `json:"layout"`
}

// Export describes a stored PNG export.
type Export struct {
	Key         string `json:"key"`
	SizeBytes   int64  `json:"sizeBytes"`
	ContentType string `json:"contentType"`
}

// Service drives the mind-map state machine for stored roadmaps.
type Service struct {
	Roadmaps RoadmapSource
	States   StateStore
	Store    object.ObjectStore
	Layouter mindmap.Layouter
	Render   mindmap.RenderOptions
	Now      func() time.Time
}

// NewService constructs a Service with the default dot layout.
func NewService(source RoadmapSource, states StateStore, store object.ObjectStore) *Service {
	return &Service{
		Roadmaps: source,
		States:   states,
		Store:    store,
		Layouter: mindmap.NewDotLayout(),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type session struct {
	rec   roadmaps.Record
	graph *mindmap.Graph
	set   mindmap.ExpandedSet
}

// load fetches the roadmap and its stored state. State saved for another
// revision of the tree is discarded.
func (s *Service) load(ctx context.Context, userID, roadmapID string) (session, error) {
	rec, err := s.Roadmaps.Get(ctx, userID, roadmapID)
	if err != nil {
		return session{}, err
	}
	g := mindmap.Build(rec.Tree)
	sess := session{rec: rec, graph: g, set: g.Initial()}

	st, err := s.States.Get(ctx, userID, roadmapID)
	switch {
	case errors.Is(err, ErrStateNotFound):
	case err != nil:
		return session{}, fmt.Errorf("load view state: %w", err)
	case st.Revision != rec.Revision:
		telemetry.Info("viewer.state_reset", map[string]any{
			"roadmap_id":     roadmapID,
			"user_id":        userID,
			"state_revision": st.Revision,
			"revision":       rec.Revision,
		})
	default:
		sess.set = g.Restore(st.Expanded)
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, userID string, sess session) error {
	err := s.States.Put(ctx, userID, State{
		RoadmapID: sess.rec.ID,
		Revision:  sess.rec.Revision,
		Expanded:  sess.set.IDs(),
		UpdatedAt: s.Now(),
	})
	if err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	return nil
}

func (s *Service) view(ctx context.Context, sess session) (View, error) {
	p := sess.graph.Project(sess.set)
	metrics.ObserveProjection(len(p.Nodes))
	l, err := s.Layouter.Layout(ctx, p)
	if err != nil {
		return View{}, fmt.Errorf("layout: %w", err)
	}
	return View{
		RoadmapID:  sess.rec.ID,
		Revision:   sess.rec.Revision,
		Title:      sess.rec.Tree.Title,
		Projection: p,
		Layout:     l,
	}, nil
}

// View returns the current projection without changing state.
func (s *Service) View(ctx context.Context, userID, roadmapID string) (View, error) {
	sess, err := s.load(ctx, userID, roadmapID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, sess)
}

// Toggle expands or collapses one node.
func (s *Service) Toggle(ctx context.Context, userID, roadmapID string, id mindmap.NodeID) (View, error) {
	return s.transition(ctx, userID, roadmapID, func(sess session) (mindmap.ExpandedSet, error) {
		return sess.graph.Toggle(sess.set, id)
	})
}

// ExpandAll expands every node.
func (s *Service) ExpandAll(ctx context.Context, userID, roadmapID string) (View, error) {
	return s.transition(ctx, userID, roadmapID, func(sess session) (mindmap.ExpandedSet, error) {
		return sess.graph.ExpandAll(), nil
	})
}

// CollapseAll collapses everything below the root.
func (s *Service) CollapseAll(ctx context.Context, userID, roadmapID string) (View, error) {
	return s.transition(ctx, userID, roadmapID, func(sess session) (mindmap.ExpandedSet, error) {
		return sess.graph.CollapseAll(), nil
	})
}

// Reset discards stored state and returns the initial view.
func (s *Service) Reset(ctx context.Context, userID, roadmapID string) (View, error) {
	rec, err := s.Roadmaps.Get(ctx, userID, roadmapID)
	if err != nil {
		return View{}, err
	}
	if err := s.States.Delete(ctx, userID, roadmapID); err != nil {
		return View{}, fmt.Errorf("reset view state: %w", err)
	}
	g := mindmap.Build(rec.Tree)
	return s.view(ctx, session{rec: rec, graph: g, set: g.Initial()})
}

// transition loads, applies and saves in sequence without locking. Each view
// state belongs to one user and roadmap and has a single writer, so racing
// requests from the same client resolve as last write wins.
func (s *Service) transition(ctx context.Context, userID, roadmapID string, next func(session) (mindmap.ExpandedSet, error)) (View, error) {
	sess, err := s.load(ctx, userID, roadmapID)
	if err != nil {
		return View{}, err
	}
	set, err := next(sess)
	if err != nil {
		return View{}, err
	}
	sess.set = set
	if err := s.save(ctx, userID, sess); err != nil {
		return View{}, err
	}
	return s.view(ctx, sess)
}

// RenderPNG renders the current view.
func (s *Service) RenderPNG(ctx context.Context, userID, roadmapID string) ([]byte, error) {
	v, err := s.View(ctx, userID, roadmapID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := mindmap.RenderPNG(&buf, v.Projection, v.Layout, s.Render); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}

// Export renders the current view and saves it to the object store.
// View state is never modified, whatever the outcome.
func (s *Service) Export(ctx context.Context, userID, roadmapID string) (Export, error) {
	data, err := s.RenderPNG(ctx, userID, roadmapID)
	if err != nil {
		if !errors.Is(err, roadmaps.ErrNotFound) {
			metrics.IncExport("png", "error")
		}
		return Export{}, err
	}
	if s.Store == nil {
		metrics.IncExport("png", "error")
		return Export{}, fmt.Errorf("export: object store not configured")
	}

	name := fmt.Sprintf("%s-%d.png", roadmapID, s.Now().UnixNano())
	key := object.UserKey(object.KindExport, userID, name)
	size, err := s.Store.SaveWithKey(ctx, key, pngContentType, bytes.NewReader(data))
	if err != nil {
		metrics.IncExport("png", "error")
		telemetry.Error("viewer.export_failed", map[string]any{
			"roadmap_id": roadmapID,
			"user_id":    userID,
			"error":      err,
		})
		return Export{}, fmt.Errorf("save export: %w", err)
	}
	metrics.IncExport("png", "ok")
	telemetry.Info("viewer.exported", map[string]any{
		"roadmap_id": roadmapID,
		"user_id":    userID,
		"key":        key,
		"size_bytes": size,
	})
	return Export{Key: key, SizeBytes: size, ContentType: pngContentType}, nil
}

// OpenExport opens an export owned by userID.
func (s *Service) OpenExport(ctx context.Context, userID, key string) (io.ReadCloser, error) {
	key = strings.TrimPrefix(key, "/")
	if s.Store == nil || !object.ValidKey(key) || !strings.HasPrefix(key, object.KindExport+"/") || !object.OwnedBy(key, userID) {
		return nil, ErrExportNotFound
	}
	rc, err := s.Store.Open(ctx, key)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	return rc, nil
}
