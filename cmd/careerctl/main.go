// Command careerctl runs the career-guidance flows from a terminal.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"careermap-backend/internal/llm"
	openai "careermap-backend/internal/llm/openai"
	"careermap-backend/internal/shared/config"
	"careermap-backend/internal/shared/telemetry"
)

var (
	apiKey     string
	model      string
	baseURL    string
	outputPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "careerctl",
		Short:         "Build career profiles, roadmaps and mind maps from the terminal",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.Configure(cmd.ErrOrStderr(), os.Getenv("LOG_LEVEL"))
		},
	}
	root.PersistentFlags().StringVarP(&apiKey, "api-key", "k", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	root.PersistentFlags().StringVarP(&model, "model", "m", "", "Model name (defaults to LLM_MODEL)")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "OpenAI-compatible base URL (defaults to OPENAI_BASE_URL)")
	root.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Write the result to this file instead of stdout")

	root.AddCommand(
		profileCmd(),
		roadmapCmd(),
		resourcesCmd(),
		renderCmd(),
	)
	return root
}

// runner builds an llm.Runner from config with flag overrides.
func runner() (llm.Runner, config.Config, error) {
	cfg := config.Load()
	if apiKey != "" {
		cfg.OpenAIAPIKey = apiKey
	}
	if model != "" {
		cfg.LLMModel = model
	}
	if baseURL != "" {
		cfg.OpenAIBaseURL = baseURL
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.OpenAIBaseURL)
	if err != nil {
		return llm.Runner{}, cfg, err
	}
	return llm.Runner{
		Client:         llm.WithTransientRetries(client, cfg.LLMTransientRetries),
		Timeout:        cfg.LLMTimeout,
		RepairAttempts: cfg.LLMRepairAttempts,
		Provider:       "openai",
		Model:          cfg.LLMModel,
	}, cfg, nil
}

func readJSON(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// output returns the destination for results and a function that closes it.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outputPath == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
