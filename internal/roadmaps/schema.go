package roadmaps

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"careermap-backend/internal/llm"
)

// Schema versions of the roadmap model output.
const (
	SchemaV1 = "v1"
	SchemaV2 = "v2"
	SchemaV3 = "v3"

	DefaultSchemaVersion = SchemaV3
)

// Adapter converts one external schema version into the canonical Tree.
type Adapter interface {
	Version() string
	Schema() llm.Schema
	Adapt(raw json.RawMessage) (Tree, error)
}

// AdapterFor returns the adapter for a schema version.
func AdapterFor(version string) (Adapter, error) {
	switch version {
	case SchemaV1:
		return v1Adapter{}, nil
	case SchemaV2:
		return v2Adapter{}, nil
	case SchemaV3:
		return v3Adapter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
}

// Validate checks names, stage types and resource categories of a canonical tree.
func Validate(tree Tree) error {
	if err := llm.Validator().Struct(tree); err != nil {
		return fmt.Errorf("%w: %s", llm.ErrSchemaValidation, strings.Join(llm.Problems(err), "; "))
	}
	return nil
}

// normalize trims text and replaces nil lists with empty ones.
func normalize(tree Tree) Tree {
	tree.Title = strings.TrimSpace(tree.Title)
	tree.Description = strings.TrimSpace(tree.Description)
	if tree.Stages == nil {
		tree.Stages = []Stage{}
	}
	for i := range tree.Stages {
		st := &tree.Stages[i]
		st.Name = strings.TrimSpace(st.Name)
		st.Description = strings.TrimSpace(st.Description)
		if st.Items == nil {
			st.Items = []Item{}
		}
		for j := range st.Items {
			it := &st.Items[j]
			it.Name = strings.TrimSpace(it.Name)
			it.Description = strings.TrimSpace(it.Description)
			if it.Resources == nil {
				it.Resources = []Resource{}
			}
			for k := range it.Resources {
				res := &it.Resources[k]
				res.Name = strings.TrimSpace(res.Name)
				res.Description = strings.TrimSpace(res.Description)
				res.URL = strings.TrimSpace(res.URL)
			}
		}
	}
	return tree
}

func finish(tree Tree) (Tree, error) {
	tree = normalize(tree)
	if err := Validate(tree); err != nil {
		return Tree{}, err
	}
	return tree, nil
}

// v1: a free-text diagram description, usually Mermaid flowchart syntax.

type v1Payload struct {
	Diagram string `json:"diagram" validate:"required"`
}

var (
	mermaidHeader = regexp.MustCompile(`^(?:(?:graph|flowchart)(?:\s+(?:TB|TD|BT|LR|RL))?|mindmap)\s*;?$`)
	mermaidLabel  = regexp.MustCompile(`[\[({]+"?([^\])}"]+)"?[\])}]+`)
)

type v1Adapter struct{}

func (v1Adapter) Version() string { return SchemaV1 }

func (v1Adapter) Schema() llm.Schema {
	return llm.Schema{
		Name:        "roadmap_v1",
		Description: "Mermaid flowchart of a career roadmap mind map",
		Definition:  llm.SchemaFor[v1Payload](),
		Strict:      true,
	}
}

// Adapt keeps the diagram as the description. A Mermaid diagram is titled
// by its first node label; plain text by its first line.
func (v1Adapter) Adapt(raw json.RawMessage) (Tree, error) {
	var payload v1Payload
	if err := llm.Decode(raw, &payload); err != nil {
		return Tree{}, err
	}
	var lines []string
	for _, line := range strings.Split(payload.Diagram, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return finish(Tree{})
	}

	first := strings.TrimSpace(lines[0])
	if !mermaidHeader.MatchString(first) {
		title := strings.TrimSpace(strings.TrimLeft(first, "#-* \t"))
		return finish(Tree{Title: title, Description: strings.Join(lines[1:], "\n")})
	}
	var title string
	for _, line := range lines[1:] {
		if m := mermaidLabel.FindStringSubmatch(line); m != nil {
			title = m[1]
			break
		}
	}
	return finish(Tree{Title: title, Description: strings.Join(lines, "\n")})
}

// v2: a shallow label/children tree.

type v2Node struct {
	Label    string   `json:"label" validate:"required"`
	Children []v2Node `json:"children" validate:"dive"`
}

type v2Adapter struct{}

func (v2Adapter) Version() string { return SchemaV2 }

func (v2Adapter) Schema() llm.Schema {
	return llm.Schema{
		Name:        "roadmap_v2",
		Description: "Career roadmap as a label/children tree",
		Definition:  v2NodeSchema(4),
		Strict:      true,
	}
}

// v2NodeSchema unrolls the recursive node shape to a fixed depth; the deepest
// nodes carry only a label.
func v2NodeSchema(depth int) map[string]any {
	props := map[string]any{
		"label": map[string]any{"type": "string"},
	}
	required := []string{"label"}
	if depth > 0 {
		props["children"] = map[string]any{
			"type":  "array",
			"items": v2NodeSchema(depth - 1),
		}
		required = append(required, "children")
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func (v2Adapter) Adapt(raw json.RawMessage) (Tree, error) {
	var root v2Node
	if err := llm.Decode(raw, &root); err != nil {
		return Tree{}, err
	}
	tree := Tree{Title: root.Label}
	for _, stageNode := range root.Children {
		stage := Stage{Name: stageNode.Label, Type: stageTypeFromLabel(stageNode.Label)}
		for _, itemNode := range stageNode.Children {
			item := Item{Name: itemNode.Label}
			for _, resNode := range itemNode.Children {
				item.Resources = appendFlattened(item.Resources, resNode)
			}
			stage.Items = append(stage.Items, item)
		}
		tree.Stages = append(tree.Stages, stage)
	}
	return finish(tree)
}

// appendFlattened adds n and all of its descendants in pre-order.
func appendFlattened(dst []Resource, n v2Node) []Resource {
	dst = append(dst, Resource{Name: n.Label, Category: CategoryTraditional})
	for _, child := range n.Children {
		dst = appendFlattened(dst, child)
	}
	return dst
}

// stageTypeFromLabel maps a label naming a known stage type onto it, defaulting to skills.
func stageTypeFromLabel(label string) StageType {
	key := strings.ToLower(label)
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for _, t := range []StageType{StageAIFirst, StageFoundation, StageSpecialization, StageTraditional, StageTimeline, StageSkills} {
		if strings.Contains(key, string(t)) {
			return t
		}
	}
	return StageSkills
}

// v3: fully typed stages, items and resources. url is required on the wire
// (empty when unknown) so the schema can run in strict mode.

type v3Resource struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category" jsonschema:"enum=traditional,enum=ai_first"`
	URL         string `json:"url"`
}

type v3Item struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Resources   []v3Resource `json:"resources"`
}

type v3Stage struct {
	Name        string   `json:"name"`
	Type        string   `json:"type" jsonschema:"enum=foundation,enum=skills,enum=specialization,enum=traditional,enum=ai_first,enum=timeline"`
	Description string   `json:"description"`
	Items       []v3Item `json:"items"`
}

type v3Payload struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Stages      []v3Stage `json:"stages"`
}

type v3Adapter struct{}

func (v3Adapter) Version() string { return SchemaV3 }

func (v3Adapter) Schema() llm.Schema {
	return llm.Schema{
		Name:        "roadmap_v3",
		Description: "Career roadmap with typed stages, items and learning resources",
		Definition:  llm.SchemaFor[v3Payload](),
		Strict:      true,
	}
}

func (v3Adapter) Adapt(raw json.RawMessage) (Tree, error) {
	var payload v3Payload
	if err := llm.Decode(raw, &payload); err != nil {
		return Tree{}, err
	}
	tree := Tree{Title: payload.Title, Description: payload.Description}
	for _, s := range payload.Stages {
		stage := Stage{Name: s.Name, Type: StageType(s.Type), Description: s.Description}
		for _, i := range s.Items {
			item := Item{Name: i.Name, Description: i.Description}
			for _, r := range i.Resources {
				item.Resources = append(item.Resources, Resource{
					Name:        r.Name,
					Description: r.Description,
					Category:    Category(r.Category),
					URL:         r.URL,
				})
			}
			stage.Items = append(stage.Items, item)
		}
		tree.Stages = append(tree.Stages, stage)
	}
	return finish(tree)
}
