// Package scheduler runs workflow files on a cron schedule, writing each
// run's collected results to a timestamped JSON file.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/logging"
	"github.com/hupe1980/agentbus/workflow"
)

// Options configure the Scheduler.
type Options struct {
	Logger logging.Logger
	// RunTimeout bounds each scheduled workflow execution.
	RunTimeout time.Duration
}

// Scheduler submits a workflow file to the coordinator on a cron cadence.
type Scheduler struct {
	coordinator *bus.Coordinator
	logger      logging.Logger
	runTimeout  time.Duration
	cron        *cron.Cron
}

// New constructs a stopped Scheduler.
func New(coordinator *bus.Coordinator, optFns ...func(o *Options)) *Scheduler {
	opts := Options{Logger: logging.NoOpLogger{}, RunTimeout: 5 * time.Minute}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Scheduler{
		coordinator: coordinator,
		logger:      opts.Logger,
		runTimeout:  opts.RunTimeout,
		cron:        cron.New(),
	}
}

// Schedule registers a workflow file under a cron expression. Results of
// every run are written to outputDir when it is non-empty.
func (s *Scheduler) Schedule(spec string, workflowPath, outputDir string) error {
	fileSpec, err := workflow.LoadFile(workflowPath)
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(spec, func() {
		if err := s.runOnce(fileSpec, outputDir); err != nil {
			s.logger.Error("scheduled workflow %s failed: %v", workflowPath, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	s.logger.Info("scheduled workflow %s with cron %q", workflowPath, spec)
	return nil
}

// Run starts the cron loop and blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

func (s *Scheduler) runOnce(spec *workflow.FileSpec, outputDir string) error {
	w, err := spec.Build(s.coordinator, "scheduler")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	results, err := w.Collect(ctx)
	if err != nil {
		return err
	}

	if outputDir == "" {
		return nil
	}

	raw, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("workflow_result_%s.json", time.Now().Format("20060102_150405"))
	return os.WriteFile(filepath.Join(outputDir, name), raw, 0o644)
}
