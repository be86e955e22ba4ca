package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/workflow"
)

type listedAgent struct {
	name string
}

func (l listedAgent) Name() string { return l.name }

func (l listedAgent) Descriptor() core.Descriptor {
	return core.Descriptor{Name: l.name, Description: "test agent", Version: "0.0.1"}
}

func (l listedAgent) Capabilities() []string { return nil }

func (l listedAgent) Process(_ context.Context, input any) (any, error) { return input, nil }

func (l listedAgent) HandleError(context.Context, error) {}

func TestBuildWorkflowSpec(t *testing.T) {
	c := bus.New()
	c.Register(listedAgent{name: "text"})

	in := strings.NewReader(strings.Join([]string{
		"y",
		"text",
		"Hello world",
		"", // empty answer keeps the process default
		"y",
		"text",
		"Second step",
		"analyze",
		"n",
	}, "\n"))
	var out bytes.Buffer

	spec, err := buildWorkflowSpec(in, &out, c)
	require.NoError(t, err)

	require.Len(t, spec.Steps, 2)
	assert.Equal(t, "text", spec.Steps[0].Agent)
	assert.Equal(t, "Hello world", spec.Steps[0].Input)
	assert.Equal(t, "process", spec.Steps[0].Type)
	assert.Equal(t, "analyze", spec.Steps[1].Type)
	assert.Contains(t, out.String(), "text - test agent", "registered agents are listed")
}

func TestBuildWorkflowSpecRejectsEmpty(t *testing.T) {
	c := bus.New()

	_, err := buildWorkflowSpec(strings.NewReader("n\n"), &bytes.Buffer{}, c)
	assert.ErrorContains(t, err, "no steps")
}

func TestBuildWorkflowSpecRequiresAgentName(t *testing.T) {
	c := bus.New()

	_, err := buildWorkflowSpec(strings.NewReader("y\n\n"), &bytes.Buffer{}, c)
	assert.ErrorContains(t, err, "agent name")
}

func TestBuildWorkflowSpecRoundTripsThroughParser(t *testing.T) {
	c := bus.New()
	c.Register(listedAgent{name: "text"})

	in := strings.NewReader("y\ntext\nhi\n\nn\n")
	spec, err := buildWorkflowSpec(in, &bytes.Buffer{}, c)
	require.NoError(t, err)

	raw, err := yaml.Marshal(spec)
	require.NoError(t, err)

	parsed, err := workflow.Parse(raw)
	require.NoError(t, err)
	require.Len(t, parsed.Steps, 1)
	assert.Equal(t, "text", parsed.Steps[0].Agent)
	assert.Equal(t, "hi", parsed.Steps[0].Input)
}
