package llm

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPrompt reports a flow and version with no embedded template.
var ErrUnknownPrompt = errors.New("unknown prompt template")

var (
	//go:embed prompts/profile_turn_v1.txt
	promptProfileTurnV1 string
	//go:embed prompts/roadmap_v1.txt
	promptRoadmapV1 string
	//go:embed prompts/roadmap_v2.txt
	promptRoadmapV2 string
	//go:embed prompts/roadmap_v3.txt
	promptRoadmapV3 string
	//go:embed prompts/resources_v1.txt
	promptResourcesV1 string
)

// PromptTemplate returns the template for a flow and version.
func PromptTemplate(flow Flow, version string) (string, error) {
	var tmpl string
	switch flow {
	case FlowProfileTurn:
		if version == "v1" {
			tmpl = promptProfileTurnV1
		}
	case FlowRoadmap:
		switch version {
		case "v3":
			tmpl = promptRoadmapV3
		case "v2":
			tmpl = promptRoadmapV2
		case "v1":
			tmpl = promptRoadmapV1
		}
	case FlowResources:
		if version == "v1" {
			tmpl = promptResourcesV1
		}
	}
	if tmpl == "" {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownPrompt, flow, version)
	}
	return tmpl, nil
}

// Render substitutes {{KEY}} placeholders.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
