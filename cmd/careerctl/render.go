package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"careermap-backend/internal/mindmap"
	"careermap-backend/internal/roadmaps"
)

func renderCmd() *cobra.Command {
	var (
		treePath  string
		expandAll bool
		expand    string
		fontPath  string
		scale     float64
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a roadmap tree JSON file as a PNG mind map",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tree roadmaps.Tree
			if err := readJSON(treePath, &tree); err != nil {
				return err
			}
			if err := roadmaps.Validate(tree); err != nil {
				return err
			}
			g := mindmap.Build(tree)
			set := g.Initial()
			if expandAll {
				set = g.ExpandAll()
			}
			ids, err := parseIDs(expand)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if set, err = g.Toggle(set, id); err != nil {
					return err
				}
			}

			p := g.Project(set)
			l, err := mindmap.NewDotLayout().Layout(cmd.Context(), p)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd)
			if err != nil {
				return err
			}
			if err := mindmap.RenderPNG(w, p, l, mindmap.RenderOptions{FontPath: fontPath, Scale: scale}); err != nil {
				_ = closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "rendered %d of %d nodes\n", len(p.Nodes), p.TotalNodes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&treePath, "tree", "t", "roadmap.json", "Roadmap tree JSON file")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "Expand every node")
	cmd.Flags().StringVar(&expand, "toggle", "", "Comma-separated node ids to toggle, in order")
	cmd.Flags().StringVar(&fontPath, "font", "", "TrueType font for labels")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Output scale factor")
	return cmd
}

func parseIDs(raw string) ([]mindmap.NodeID, error) {
	var ids []mindmap.NodeID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q", part)
		}
		ids = append(ids, mindmap.NodeID(n))
	}
	return ids, nil
}
