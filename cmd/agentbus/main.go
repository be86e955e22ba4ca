// Command agentbus manages and runs agent workflows from the command line.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentbus/agent/analysis"
	"github.com/hupe1980/agentbus/agent/api"
	"github.com/hupe1980/agentbus/agent/data"
	"github.com/hupe1980/agentbus/agent/text"
	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/config"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
	"github.com/hupe1980/agentbus/model"
	"github.com/hupe1980/agentbus/model/anthropic"
	"github.com/hupe1980/agentbus/model/openai"
	"github.com/hupe1980/agentbus/scheduler"
	"github.com/hupe1980/agentbus/server"
	"github.com/hupe1980/agentbus/workflow"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentbus",
		Short: "Run and manage agent workflows",
		Long:  "AgentBus coordinates independent agents through a single message bus and replays workflow files against them.",
	}

	rootCmd.AddCommand(newAgentsCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newScheduleCommand())
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup builds the coordinator with the default agent set registered.
func setup(cfg *config.Config) (*bus.Coordinator, error) {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  parseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	coordinator := bus.New(bus.WithLogger(logger.WithComponent("bus")))

	coordinator.Register(text.New(core.Descriptor{
		Name:         "text",
		Description:  "Computes statistics and case variants for text",
		Version:      "0.1.0",
		Capabilities: []string{"text_analysis", "case_conversion", "history_tracking"},
	}, func(o *text.Options) { o.Logger = logger.WithComponent("agent.text") }))

	coordinator.Register(data.New(core.Descriptor{
		Name:         "data",
		Description:  "Reads, writes and queries CSV, JSON, YAML and SQLite data",
		Version:      "0.1.0",
		Capabilities: []string{"data_processing", "csv_handling", "json_handling", "yaml_handling", "sqlite_handling", "data_querying"},
	}, func(o *data.Options) { o.Logger = logger.WithComponent("agent.data") }))

	coordinator.Register(api.New(core.Descriptor{
		Name:         "api",
		Description:  "Performs outbound HTTP calls against configured services",
		Version:      "0.1.0",
		Capabilities: []string{"api_integration", "http_requests"},
	}, func(o *api.Options) { o.Logger = logger.WithComponent("agent.api") }))

	var m model.Model
	switch cfg.ModelProvider {
	case "anthropic":
		m = anthropic.NewModel()
	default:
		m = openai.NewModel()
	}
	analysisAgent, err := analysis.New(core.Descriptor{
		Name:         "analysis",
		Description:  "Delegates sentiment, classification and summarization to a model",
		Version:      "0.1.0",
		Capabilities: []string{analysis.TaskSentiment, analysis.TaskClassification, analysis.TaskSummarization},
	}, m, func(o *analysis.Options) { o.Logger = logger.WithComponent("agent.analysis") })
	if err != nil {
		return nil, err
	}
	coordinator.Register(analysisAgent)

	return coordinator, nil
}

func newAgentsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List available agents and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			coordinator, err := setup(cfg)
			if err != nil {
				return err
			}

			type info struct {
				Name         string   `json:"name" yaml:"name"`
				Description  string   `json:"description" yaml:"description"`
				Capabilities []string `json:"capabilities" yaml:"capabilities"`
			}
			var infos []info
			for _, a := range coordinator.Agents() {
				d := a.Descriptor()
				infos = append(infos, info{Name: d.Name, Description: d.Description, Capabilities: d.Capabilities})
			}

			switch format {
			case "json":
				raw, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(raw))
			case "yaml":
				raw, err := yaml.Marshal(infos)
				if err != nil {
					return err
				}
				fmt.Print(string(raw))
			default:
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCAPABILITIES\tDESCRIPTION")
				for _, i := range infos {
					fmt.Fprintf(w, "%s\t%v\t%s\n", i.Name, i.Capabilities, i.Description)
				}
				w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}

func newRunCommand() *cobra.Command {
	var output string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run <workflow.yaml>",
		Short: "Run a workflow from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			coordinator, err := setup(cfg)
			if err != nil {
				return err
			}

			spec, err := workflow.LoadFile(args[0])
			if err != nil {
				return err
			}
			w, err := spec.Build(coordinator, "cli")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := coordinator.Start(ctx); err != nil {
				return err
			}
			defer coordinator.Stop()

			results, err := w.Collect(ctx)
			if err != nil {
				return fmt.Errorf("workflow failed: %w", err)
			}

			raw, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			if output != "" {
				return os.WriteFile(output, raw, 0o644)
			}
			fmt.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Save results to file")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Workflow execution timeout")
	return cmd
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <workflow.yaml>",
		Short: "Create a workflow file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			coordinator, err := setup(cfg)
			if err != nil {
				return err
			}

			spec, err := buildWorkflowSpec(cmd.InOrStdin(), cmd.OutOrStdout(), coordinator)
			if err != nil {
				return err
			}

			raw, err := yaml.Marshal(spec)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workflow saved to %s\n", args[0])
			return nil
		},
	}
	return cmd
}

// buildWorkflowSpec assembles a workflow file from interactive prompts, one
// step at a time, until the user declines to add another. The registered
// agents are listed before each step so the user can pick a valid receiver.
func buildWorkflowSpec(in io.Reader, out io.Writer, coordinator *bus.Coordinator) (*workflow.FileSpec, error) {
	scanner := bufio.NewScanner(in)
	prompt := func(label, defaultValue string) string {
		if defaultValue != "" {
			fmt.Fprintf(out, "%s [%s]: ", label, defaultValue)
		} else {
			fmt.Fprintf(out, "%s: ", label)
		}
		if !scanner.Scan() {
			return defaultValue
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			return answer
		}
		return defaultValue
	}

	spec := &workflow.FileSpec{}
	for {
		answer := prompt("Add a workflow step? (y/n)", "n")
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			break
		}

		fmt.Fprintln(out, "Available agents:")
		for _, a := range coordinator.Agents() {
			d := a.Descriptor()
			fmt.Fprintf(out, "  %s - %s\n", d.Name, d.Description)
		}

		agent := prompt("Agent name", "")
		if agent == "" {
			return nil, fmt.Errorf("agent name is required")
		}
		spec.Steps = append(spec.Steps, workflow.StepSpec{
			Agent: agent,
			Input: prompt("Input data", ""),
			Type:  prompt("Step type", "process"),
		})
	}

	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("workflow has no steps")
	}
	return spec, nil
}

func newScheduleCommand() *cobra.Command {
	var cronExpr string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "schedule <workflow.yaml>",
		Short: "Run a workflow on a cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.OutputDir
				if err := cfg.EnsureOutputDir(); err != nil {
					return err
				}
			} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}

			coordinator, err := setup(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := coordinator.Start(ctx); err != nil {
				return err
			}
			defer coordinator.Stop()

			sched := scheduler.New(coordinator)
			if err := sched.Schedule(cronExpr, args[0], outputDir); err != nil {
				return err
			}

			fmt.Printf("scheduled %s with cron %q, results in %s\n", args[0], cronExpr, outputDir)
			sched.Run(ctx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cronExpr, "cron", "c", "", "Cron expression (e.g. '*/5 * * * *')")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for run results")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP/WebSocket front-end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Addr
			}

			coordinator, err := setup(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := coordinator.Start(ctx); err != nil {
				return err
			}
			defer coordinator.Stop()

			srv := server.New(addr, coordinator)
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from AGENTBUS_ADDR)")
	return cmd
}

func parseLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
