// Package text implements an agent that computes statistics and case
// variants for text payloads and keeps a bounded processing history.
package text

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentbus/agent"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
)

// Stats is the result shape returned for every processed input.
type Stats struct {
	Original  string `json:"original"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
	Uppercase string `json:"uppercase"`
	Lowercase string `json:"lowercase"`
}

// Options configure the text agent.
type Options struct {
	// Logger for processing observations.
	Logger logging.Logger
	// MaxHistory bounds the retained history; older entries are evicted.
	MaxHistory int
}

// Agent processes text inputs. Safe for concurrent use, although the
// dispatch loop delivers messages one at a time.
type Agent struct {
	agent.Base

	mu         sync.Mutex
	history    []Stats
	maxHistory int
}

// New constructs a text agent.
func New(descriptor core.Descriptor, optFns ...func(o *Options)) *Agent {
	opts := Options{Logger: logging.NoOpLogger{}, MaxHistory: 100}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Agent{
		Base:       agent.NewBase(descriptor, opts.Logger),
		maxHistory: opts.MaxHistory,
	}
}

// Process computes statistics for a string payload. Non-string payloads are
// a caller error and reported as such.
func (a *Agent) Process(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("text agent expects string input, got %T", input)
	}

	stats := Stats{
		Original:  text,
		WordCount: len(strings.Fields(text)),
		CharCount: len([]rune(text)),
		Uppercase: strings.ToUpper(text),
		Lowercase: strings.ToLower(text),
	}

	a.mu.Lock()
	a.history = append(a.history, stats)
	if len(a.history) > a.maxHistory {
		a.history = a.history[len(a.history)-a.maxHistory:]
	}
	a.mu.Unlock()

	a.Logger().Debug("processed text words=%d chars=%d", stats.WordCount, stats.CharCount)
	return stats, nil
}

// History returns a copy of the processing history, oldest first.
func (a *Agent) History() []Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Stats, len(a.history))
	copy(out, a.history)
	return out
}
