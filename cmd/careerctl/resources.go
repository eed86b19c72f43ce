package main

import (
	"github.com/spf13/cobra"

	"careermap-backend/internal/profiles"
	"careermap-backend/internal/resources"
)

func resourcesCmd() *cobra.Command {
	var (
		profilePath string
		goal        string
	)
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Recommend learning resources for a profile and goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			var profile profiles.Profile
			if err := readJSON(profilePath, &profile); err != nil {
				return err
			}
			r, _, err := runner()
			if err != nil {
				return err
			}
			items, err := resources.NewService(r).Recommend(cmd.Context(), profile, goal)
			if err != nil {
				return err
			}
			return writeJSON(cmd, items)
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "profile.json", "Profile JSON file")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "Career goal in free text")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}
