package mindmap

import "careermap-backend/internal/roadmaps"

type style struct {
	kind  Kind
	label string
	color string
}

var stageColors = map[roadmaps.StageType]string{
	roadmaps.StageFoundation:     "#2563eb",
	roadmaps.StageSkills:         "#059669",
	roadmaps.StageSpecialization: "#7c3aed",
	roadmaps.StageTraditional:    "#b45309",
	roadmaps.StageAIFirst:        "#db2777",
	roadmaps.StageTimeline:       "#0891b2",
}

const (
	rootColor                = "#111827"
	itemColor                = "#475569"
	traditionalResourceColor = "#a16207"
	aiFirstResourceColor     = "#be185d"
	fallbackColor            = "#6b7280"
)

func describe(p Payload) style {
	switch v := p.(type) {
	case RootPayload:
		return style{kind: KindRoot, label: v.Title, color: rootColor}
	case StagePayload:
		color, ok := stageColors[v.Type]
		if !ok {
			color = fallbackColor
		}
		return style{kind: KindStage, label: v.Name, color: color}
	case ItemPayload:
		return style{kind: KindItem, label: v.Name, color: itemColor}
	case ResourcePayload:
		color := traditionalResourceColor
		if v.Category == roadmaps.CategoryAIFirst {
			color = aiFirstResourceColor
		}
		return style{kind: KindResource, label: v.Name, color: color}
	default:
		return style{color: fallbackColor}
	}
}
