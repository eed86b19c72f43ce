package roadmaps

import (
	"fmt"
	"strings"
)

// Outline renders a tree as indented plain text for copying.
func Outline(tree Tree) string {
	var b strings.Builder
	b.WriteString(tree.Title)
	b.WriteString("\n")
	if tree.Description != "" {
		b.WriteString(tree.Description)
		b.WriteString("\n")
	}
	for i, stage := range tree.Stages {
		fmt.Fprintf(&b, "\n%d. %s [%s]\n", i+1, stage.Name, stage.Type)
		if stage.Description != "" {
			fmt.Fprintf(&b, "   %s\n", stage.Description)
		}
		for _, item := range stage.Items {
			b.WriteString("   - ")
			b.WriteString(item.Name)
			if item.Description != "" {
				b.WriteString(": ")
				b.WriteString(item.Description)
			}
			b.WriteString("\n")
			for _, res := range item.Resources {
				fmt.Fprintf(&b, "     * %s (%s)", res.Name, res.Category)
				if res.URL != "" {
					b.WriteString(" ")
					b.WriteString(res.URL)
				}
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}
