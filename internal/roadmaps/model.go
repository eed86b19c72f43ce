package roadmaps

import (
	"time"

	"careermap-backend/internal/profiles"
)

// StageType classifies a roadmap stage.
type StageType string

const (
	StageFoundation     StageType = "foundation"
	StageSkills         StageType = "skills"
	StageSpecialization StageType = "specialization"
	StageTraditional    StageType = "traditional"
	StageAIFirst        StageType = "ai_first"
	StageTimeline       StageType = "timeline"
)

// StageTypes lists every valid stage type.
var StageTypes = []StageType{StageFoundation, StageSkills, StageSpecialization, StageTraditional, StageAIFirst, StageTimeline}

// Category classifies a learning resource.
type Category string

const (
	CategoryTraditional Category = "traditional"
	CategoryAIFirst     Category = "ai_first"
)

// Tree is the canonical roadmap: title → stages → items → resources.
type Tree struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Stages      []Stage `json:"stages" validate:"dive"`
}

type Stage struct {
	Name        string    `json:"name" validate:"required"`
	Type        StageType `json:"type" validate:"oneof=foundation skills specialization traditional ai_first timeline"`
	Description string    `json:"description"`
	Items       []Item    `json:"items" validate:"dive"`
}

type Item struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Resources   []Resource `json:"resources" validate:"dive"`
}

type Resource struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Category    Category `json:"category" validate:"oneof=traditional ai_first"`
	URL         string   `json:"url,omitempty"`
}

// Record is a persisted roadmap. Revision increases each time the tree is regenerated.
type Record struct {
	ID            string           `json:"id"`
	UserID        string           `json:"-"`
	SessionID     string           `json:"sessionId,omitempty"`
	Profile       profiles.Profile `json:"profile"`
	Tree          Tree             `json:"tree"`
	SchemaVersion string           `json:"schemaVersion"`
	PromptVersion string           `json:"promptVersion"`
	Provider      string           `json:"provider,omitempty"`
	Model         string           `json:"model,omitempty"`
	Revision      int              `json:"revision"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Summary is the list view of a Record.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Stages    int       `json:"stages"`
	Revision  int       `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r Record) Summary() Summary {
	return Summary{
		ID:        r.ID,
		Title:     r.Tree.Title,
		Stages:    len(r.Tree.Stages),
		Revision:  r.Revision,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
