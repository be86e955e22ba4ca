// Package analysis implements an agent delegating text analysis tasks
// (sentiment, classification, summarization) to a model.Model provider.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentbus/agent"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
	"github.com/hupe1980/agentbus/model"
)

// Supported task tags.
const (
	TaskSentiment      = "sentiment_analysis"
	TaskClassification = "text_classification"
	TaskSummarization  = "summarization"
)

// Request is the payload shape the analysis agent expects.
type Request struct {
	Task string `json:"task"`
	Text string `json:"text"`
	// Labels constrains classification output; ignored by other tasks.
	Labels []string `json:"labels,omitempty"`
	// MaxWords caps summary length; ignored by other tasks.
	MaxWords int `json:"max_words,omitempty"`
}

// Result carries the task outcome.
type Result struct {
	Task   string `json:"task"`
	Model  string `json:"model"`
	Output string `json:"output"`
}

// Options configure the analysis agent.
type Options struct {
	Logger logging.Logger
}

// Agent answers analysis requests through a single inference provider.
type Agent struct {
	agent.Base

	model model.Model
}

// New constructs an analysis agent backed by the given model.
func New(descriptor core.Descriptor, m model.Model, optFns ...func(o *Options)) (*Agent, error) {
	if m == nil {
		return nil, fmt.Errorf("analysis agent requires a model")
	}
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{Base: agent.NewBase(descriptor, opts.Logger), model: m}, nil
}

// Process runs the requested task. Unsupported tasks are contract violations
// and returned as errors.
func (a *Agent) Process(ctx context.Context, input any) (any, error) {
	req, err := decodeRequest(input)
	if err != nil {
		return nil, err
	}
	if req.Text == "" {
		return nil, fmt.Errorf("analysis request has no text")
	}

	var prompt string
	switch req.Task {
	case TaskSentiment:
		prompt = fmt.Sprintf(
			"Classify the sentiment of the following text as POSITIVE, NEGATIVE or NEUTRAL. Answer with the label only.\n\n%s",
			req.Text,
		)
	case TaskClassification:
		labels := req.Labels
		if len(labels) == 0 {
			return nil, fmt.Errorf("classification requires labels")
		}
		prompt = fmt.Sprintf(
			"Classify the following text into exactly one of these labels: %s. Answer with the label only.\n\n%s",
			strings.Join(labels, ", "), req.Text,
		)
	case TaskSummarization:
		maxWords := req.MaxWords
		if maxWords <= 0 {
			maxWords = 60
		}
		prompt = fmt.Sprintf("Summarize the following text in at most %d words.\n\n%s", maxWords, req.Text)
	default:
		return nil, fmt.Errorf("unsupported task: %s", req.Task)
	}

	output, err := a.model.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	info := a.model.Info()
	a.Logger().Debug("analysis task=%s model=%s", req.Task, info.Name)
	return Result{Task: req.Task, Model: info.Name, Output: strings.TrimSpace(output)}, nil
}

func decodeRequest(input any) (Request, error) {
	switch v := input.(type) {
	case Request:
		return v, nil
	case *Request:
		return *v, nil
	default:
		raw, err := json.Marshal(input)
		if err != nil {
			return Request{}, fmt.Errorf("analysis agent cannot decode input: %w", err)
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return Request{}, fmt.Errorf("analysis agent expects a request object: %w", err)
		}
		return req, nil
	}
}
