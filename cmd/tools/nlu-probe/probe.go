package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assistant-nlu/internal/common/config"
	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/nlu/convcontext"
	"assistant-nlu/internal/nlu/llm"
	"assistant-nlu/internal/nlu/ontology"
	"assistant-nlu/internal/nlu/orchestrator"
	"assistant-nlu/internal/nlu/rules"
	"assistant-nlu/internal/nlu/timeparse"
	"assistant-nlu/pkg/registry"
)

// probeFlags holds the flags shared by every subcommand.
type probeFlags struct {
	configPath string
	now        string
	rulesOnly  bool
	verbose    bool
}

type processOutput struct {
	Intent    ontology.Intent   `json:"intent"`
	Entities  ontology.Entities `json:"entities"`
	Stage     string            `json:"stage"`
	RequestID string            `json:"requestId"`
}

func newRootCommand(out io.Writer) *cobra.Command {
	flags := &probeFlags{}

	root := &cobra.Command{
		Use:   "nlu-probe",
		Short: "Run the NLU pipeline against a single utterance",
		Long: `nlu-probe classifies text locally without Zeebe or Redis.

Examples:
  # Rules and heuristic only
  nlu-probe process --rules-only "I spent $45.50 on office supplies"

  # Resolve against a fixed reference time
  nlu-probe time --now 2024-03-10T09:00:00Z "tomorrow at 3pm"

  # Use the LLM backend from a config file
  nlu-probe process --config configs/config.yaml "what did I note about the offsite"`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file enabling the LLM stage")
	root.PersistentFlags().StringVar(&flags.now, "now", "", "Reference time in RFC3339 (default: current time)")
	root.PersistentFlags().BoolVar(&flags.rulesOnly, "rules-only", false, "Skip the LLM stage even when configured")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log pipeline stages to stderr")

	root.AddCommand(newProcessCommand(flags), newTimeCommand(flags), newActivitiesCommand())
	return root
}

func newProcessCommand(flags *probeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "process <text>",
		Short: "Classify text into an intent and entities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), flags)
		},
	}
}

func newTimeCommand(flags *probeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "time <text>",
		Short: "Extract the first time expression from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := flags.reference()
			if err != nil {
				return err
			}
			parsed := timeparse.New().Parse(strings.Join(args, " "), now)
			return writeJSON(cmd.OutOrStdout(), parsed)
		},
	}
}

func newActivitiesCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List the service tasks the worker registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			load := registry.Default
			if path != "" {
				load = func() (*registry.ActivityRegistry, error) { return registry.LoadRegistry(path) }
			}
			reg, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range reg.Activities {
				fmt.Fprintf(out, "%-24s %-8s %s\n", a.TaskType, a.Version, a.DisplayName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "registry", "", "Registry JSON file (default: built-in)")
	return cmd
}

func runProcess(ctx context.Context, out io.Writer, text string, flags *probeFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	now, err := flags.reference()
	if err != nil {
		return err
	}

	log := logger.NewNoOpLogger()
	if flags.verbose {
		log = logger.NewStructured("debug", "console")
	}

	times := timeparse.New()
	opts := []orchestrator.Option{orchestrator.WithClock(func() time.Time { return now })}

	if flags.configPath != "" && !flags.rulesOnly {
		cfg, err := config.LoadFromFile(flags.configPath)
		if err != nil {
			return err
		}
		backend, err := llm.NewBackend(ctx, cfg.LLM, nil, log)
		if err != nil {
			return fmt.Errorf("llm backend: %w", err)
		}
		if backend != nil {
			adapter := llm.NewAdapter(backend, log,
				llm.WithMaxTokens(cfg.LLM.MaxTokens),
				llm.WithTemperature(cfg.LLM.Temperature),
				llm.WithTimeout(config.GetDuration(cfg.LLM.Timeout)),
				llm.WithTimeParser(times),
				llm.WithClock(func() time.Time { return now }),
			)
			opts = append(opts, orchestrator.WithAdapter(adapter))
		}
		opts = append(opts, orchestrator.WithMinNoteLength(cfg.NLU.MinNoteLength))
	}

	pipeline := orchestrator.New(rules.NewEngine(times, log), log, opts...)
	outcome := pipeline.Resolve(ctx, text, convcontext.Empty(""))

	return writeJSON(out, processOutput{
		Intent:    outcome.Result.Intent,
		Entities:  outcome.Result.Entities,
		Stage:     string(outcome.Stage),
		RequestID: outcome.RequestID,
	})
}

func (f *probeFlags) reference() (time.Time, error) {
	if f.now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, f.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now must be RFC3339: %w", err)
	}
	return t.UTC(), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
