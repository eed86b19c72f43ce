package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"careermap-backend/internal/profiles"
	"careermap-backend/internal/roadmaps"
)

func roadmapCmd() *cobra.Command {
	var (
		profilePath string
		schema      string
		outline     bool
	)
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Generate a roadmap tree from a profile JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile profiles.Profile
			if err := readJSON(profilePath, &profile); err != nil {
				return err
			}
			r, cfg, err := runner()
			if err != nil {
				return err
			}
			if schema == "" {
				schema = cfg.RoadmapSchemaVersion
			}
			svc, err := roadmaps.NewService(r, roadmaps.NewMemoryRepo(), nil, schema)
			if err != nil {
				return err
			}
			tree, err := svc.Generate(cmd.Context(), profile)
			if err != nil {
				return err
			}
			if !outline {
				return writeJSON(cmd, tree)
			}
			w, closeFn, err := output(cmd)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, roadmaps.Outline(tree)); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "profile.json", "Profile JSON file")
	cmd.Flags().StringVar(&schema, "schema", "", "Output schema version: v1, v2 or v3 (defaults to ROADMAP_SCHEMA_VERSION)")
	cmd.Flags().BoolVar(&outline, "outline", false, "Print a plain-text outline instead of JSON")
	return cmd
}
