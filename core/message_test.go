package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage("cli", "text", "hi", "process")

	assert.Equal(t, "cli", msg.Sender)
	assert.Equal(t, "text", msg.Receiver)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "process", msg.Type)
	assert.False(t, msg.RequiresResponse())
	assert.Empty(t, msg.CorrelationID())
}

func TestNewRequest(t *testing.T) {
	msg := NewRequest("cli", "text", "hi", "process")

	assert.True(t, msg.RequiresResponse())
	require.NotEmpty(t, msg.CorrelationID())

	other := NewRequest("cli", "text", "hi", "process")
	assert.NotEqual(t, msg.CorrelationID(), other.CorrelationID())
}

func TestReplySwapsAddressingAndPropagatesContext(t *testing.T) {
	req := NewRequest("cli", "echo", "hi", "process")
	reply := req.Reply("hi back")

	assert.Equal(t, "echo", reply.Sender)
	assert.Equal(t, "cli", reply.Receiver)
	assert.Equal(t, "hi back", reply.Content)
	assert.Equal(t, TypeResponse, reply.Type)
	assert.Equal(t, req.CorrelationID(), reply.CorrelationID())
	assert.True(t, reply.RequiresResponse())
}

func TestRequiresResponseIgnoresNonBoolean(t *testing.T) {
	msg := NewMessage("a", "b", nil, "process")
	msg.Context[ContextRequiresResponse] = "yes"

	assert.False(t, msg.RequiresResponse())
}
