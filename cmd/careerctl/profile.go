package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"careermap-backend/internal/extract"
	"careermap-backend/internal/profiles"
)

func profileCmd() *cobra.Command {
	var (
		resumePath string
		maxTurns   int
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Answer questions interactively until a career profile is complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := runner()
			if err != nil {
				return err
			}
			svc := profiles.NewService(r, profiles.NewMemoryRepo(), nil)

			in := profiles.TurnInput{PreviousAnswers: []string{}}
			if resumePath != "" {
				data, err := os.ReadFile(resumePath)
				if err != nil {
					return err
				}
				text, err := extract.TextFromBytes(cmd.Context(), data, "", filepath.Base(resumePath))
				if err != nil {
					return fmt.Errorf("read resume: %w", err)
				}
				in.Background = extract.Truncate(text, extract.DefaultMaxChars)
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			for turn := 0; turn < maxTurns; turn++ {
				out, err := svc.NextTurn(cmd.Context(), in)
				if err != nil {
					return err
				}
				if out.IsProfileComplete {
					return writeJSON(cmd, out.Profile)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s\n> ", out.NextQuestion)
				answer, err := reader.ReadString('\n')
				if err != nil && strings.TrimSpace(answer) == "" {
					return fmt.Errorf("read answer: %w", err)
				}
				in.CurrentQuestion = out.NextQuestion
				in.PreviousAnswers = append(in.PreviousAnswers, strings.TrimSpace(answer))
			}
			return fmt.Errorf("profile not complete after %d turns", maxTurns)
		},
	}
	cmd.Flags().StringVar(&resumePath, "resume", "", "Optional resume (PDF, DOCX or text) used as background")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 20, "Give up after this many questions")
	return cmd
}
