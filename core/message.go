package core

import "github.com/hupe1980/agentbus/internal/util"

// Context keys carried inside Message.Context. The coordinator itself only
// interprets RequiresResponse and CorrelationID; everything else is opaque
// payload owned by sender and receiver.
const (
	// ContextRequiresResponse marks a request whose sender expects a
	// correlated reply envelope after the receiver processed it.
	ContextRequiresResponse = "requires_response"

	// ContextCorrelationID carries the identifier linking a response back to
	// its originating request. It is propagated unchanged on the reply path.
	ContextCorrelationID = "correlation_id"
)

// TypeResponse is the message type stamped on reply envelopes emitted by the
// dispatch loop. It is the only message type the coordinator interprets.
const TypeResponse = "response"

// Message is the immutable unit of transport between agents. A new value is
// created per hop; the bus never mutates an envelope after it was enqueued.
type Message struct {
	// Sender names the originating agent or an external caller id. It is not
	// required to be a registered agent, but replies addressed to an
	// unregistered sender are dropped by the dispatch loop.
	Sender string `json:"sender" yaml:"sender"`

	// Receiver names the target agent. Delivery succeeds only if the name is
	// present in the coordinator's registry.
	Receiver string `json:"receiver" yaml:"receiver"`

	// Content is the opaque payload. Its shape is a contract between sender
	// and receiver, keyed off Type.
	Content any `json:"content" yaml:"content"`

	// Type tags the semantic operation (e.g. "process", "response"). The
	// coordinator only interprets the literal TypeResponse on the reply path.
	Type string `json:"type" yaml:"type"`

	// Context holds auxiliary flags such as ContextRequiresResponse. It is
	// carried unchanged from request to response so callers can match them up.
	Context map[string]any `json:"context,omitempty" yaml:"context,omitempty"`
}

// NewMessage constructs a plain envelope without response expectations.
func NewMessage(sender, receiver string, content any, msgType string) Message {
	return Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
		Type:     msgType,
		Context:  map[string]any{},
	}
}

// NewRequest constructs an envelope that expects a correlated reply. A fresh
// correlation id is generated and stored in the context so the response can
// be matched without relying on sender/receiver symmetry alone.
func NewRequest(sender, receiver string, content any, msgType string) Message {
	return Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
		Type:     msgType,
		Context: map[string]any{
			ContextRequiresResponse: true,
			ContextCorrelationID:    util.NewID(),
		},
	}
}

// Reply builds the response envelope for this message: sender and receiver
// are swapped, the type becomes TypeResponse and the context is propagated
// unchanged so correlation survives the hop.
func (m Message) Reply(result any) Message {
	return Message{
		Sender:   m.Receiver,
		Receiver: m.Sender,
		Content:  result,
		Type:     TypeResponse,
		Context:  m.Context,
	}
}

// RequiresResponse reports whether the sender asked for a reply envelope.
// Absent or non-boolean context values count as false.
func (m Message) RequiresResponse() bool {
	v, ok := m.Context[ContextRequiresResponse].(bool)
	return ok && v
}

// CorrelationID returns the correlation identifier, or "" if none was set.
func (m Message) CorrelationID() string {
	v, _ := m.Context[ContextCorrelationID].(string)
	return v
}
