package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/core"
)

// StepSpec is one entry of a workflow file: the agent to address, the input
// payload and an optional message type (defaults to "process").
type StepSpec struct {
	Agent string `json:"agent" yaml:"agent"`
	Input any    `json:"input" yaml:"input"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// FileSpec is the on-disk workflow format consumed by the CLI, the scheduler
// and the web front-end.
type FileSpec struct {
	Name  string     `json:"name,omitempty" yaml:"name,omitempty"`
	Steps []StepSpec `json:"steps" yaml:"steps"`
}

// LoadFile reads and parses a workflow YAML file.
func LoadFile(path string) (*FileSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes workflow YAML.
func Parse(raw []byte) (*FileSpec, error) {
	var spec FileSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse workflow: %w", err)
	}
	if len(spec.Steps) == 0 {
		return nil, &core.ConfigError{Field: "steps", Message: "workflow has no steps"}
	}
	return &spec, nil
}

// Build translates a parsed file into a Workflow bound to the coordinator.
// Each step is submitted under the given sender id; invalid steps surface a
// core.ConfigError before anything is enqueued.
func (s *FileSpec) Build(coordinator *bus.Coordinator, sender string) (*Workflow, error) {
	w := New(coordinator)
	for _, step := range s.Steps {
		msgType := step.Type
		if msgType == "" {
			msgType = "process"
		}
		if err := w.AddStep(core.NewMessage(sender, step.Agent, step.Input, msgType)); err != nil {
			return nil, err
		}
	}
	return w, nil
}
