package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/core"
)

const sampleWorkflow = `
name: demo
steps:
  - agent: text
    input: "Hello world"
  - agent: analysis
    type: analyze
    input:
      task: sentiment_analysis
      text: "Great stuff"
`

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(sampleWorkflow))
	require.NoError(t, err)

	assert.Equal(t, "demo", spec.Name)
	require.Len(t, spec.Steps, 2)
	assert.Equal(t, "text", spec.Steps[0].Agent)
	assert.Empty(t, spec.Steps[0].Type)
	assert.Equal(t, "analyze", spec.Steps[1].Type)
}

func TestParseRejectsEmptyWorkflow(t *testing.T) {
	var cfgErr *core.ConfigError
	_, err := Parse([]byte("name: empty\n"))
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "steps", cfgErr.Field)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("steps: ["))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleWorkflow), 0o644))

	spec, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, spec.Steps, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildDefaultsMessageType(t *testing.T) {
	spec, err := Parse([]byte(sampleWorkflow))
	require.NoError(t, err)

	w, err := spec.Build(bus.New(), "cli")
	require.NoError(t, err)

	steps := w.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "cli", steps[0].Sender)
	assert.Equal(t, "process", steps[0].Type, "missing type defaults to process")
	assert.Equal(t, "analyze", steps[1].Type)
}

func TestBuildRejectsMissingAgent(t *testing.T) {
	spec := &FileSpec{Steps: []StepSpec{{Input: "hi"}}}

	var cfgErr *core.ConfigError
	_, err := spec.Build(bus.New(), "cli")
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "receiver", cfgErr.Field)
}
