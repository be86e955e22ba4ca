package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
)

// ErrAlreadyRunning is returned by Start when a dispatch loop is active.
// Two concurrent consumers racing on one queue would break ordering.
var ErrAlreadyRunning = errors.New("coordinator already running")

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger receives routing observations. Defaults to NoOpLogger so the
	// bus carries no logging dependency unless the caller wires one.
	Logger logging.Logger
}

// Coordinator owns the agent registry and the dispatch loop; it is the bus.
//
// A Coordinator is an explicitly constructed instance passed by handle to
// whoever needs to send messages or register agents, so multiple independent
// buses can coexist in one process. Public methods are safe for concurrent
// use; Start must not be called again until Stop returned.
type Coordinator struct {
	queue     *core.Queue
	logger    logging.Logger
	busLogger *logging.BusLogger // non-nil when logger carries structured helpers

	mu     sync.RWMutex
	agents map[string]core.Agent
	order  []string // registration order, drives capability scans

	pendingMu sync.Mutex
	pending   map[string]chan any

	lifeMu  sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a stopped Coordinator with an empty registry.
func New(optFns ...func(o *Options)) *Coordinator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	busLogger, _ := opts.Logger.(*logging.BusLogger)

	return &Coordinator{
		queue:     core.NewQueue(),
		logger:    opts.Logger,
		busLogger: busLogger,
		agents:    make(map[string]core.Agent),
		pending:   make(map[string]chan any),
	}
}

// WithLogger overrides the coordinator's logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Register inserts an agent into the registry keyed by its name. Last write
// wins on a name collision; the replaced agent is no longer resolvable and
// the registration order position of the name is kept.
func (c *Coordinator) Register(a core.Agent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := a.Name()
	if _, exists := c.agents[name]; exists {
		c.logger.Warn("replacing registered agent name=%s", name)
	} else {
		c.order = append(c.order, name)
	}
	c.agents[name] = a
}

// Lookup returns the registered agent for a name.
func (c *Coordinator) Lookup(name string) (core.Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.agents[name]
	return a, ok
}

// Agents returns the registered agents in registration order.
func (c *Coordinator) Agents() []core.Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Agent, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.agents[name])
	}
	return out
}

// CapabilitiesByAgent returns a mapping of agent name to capability set.
// There is exactly one entry per resolvable name.
func (c *Coordinator) CapabilitiesByAgent() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]string, len(c.agents))
	for name, a := range c.agents {
		out[name] = a.Capabilities()
	}
	return out
}

// FindByCapability returns the first agent, in registration order, whose
// capability set contains tag. The scan is O(agents).
func (c *Coordinator) FindByCapability(tag string) (core.Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, name := range c.order {
		a := c.agents[name]
		for _, cap := range a.Capabilities() {
			if cap == tag {
				return a, true
			}
		}
	}
	return nil, false
}

// Send enqueues a message. It returns once the message is queued, not once
// it is processed, and never blocks on delivery.
func (c *Coordinator) Send(msg core.Message) error {
	return c.queue.Enqueue(msg)
}

// QueueLen reports the number of messages awaiting dispatch.
func (c *Coordinator) QueueLen() int {
	return c.queue.Len()
}

// Start launches the dispatch loop in a background goroutine and returns
// immediately. It fails with ErrAlreadyRunning if a loop is active.
func (c *Coordinator) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.dispatch(loopCtx)
	}()

	c.logger.Info("coordinator started")
	return nil
}

// Stop requests loop termination and blocks until the in-flight message, if
// any, finished routing. Messages still queued are abandoned; no delivery is
// guaranteed across a stop/start cycle. Stop is a no-op on a stopped bus. A
// Start racing with Stop is serialized: the loop is either fully up or fully
// drained before the other call proceeds.
func (c *Coordinator) Stop() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if !c.running {
		return
	}
	c.cancel()
	c.wg.Wait()
	c.running = false
	c.logger.Info("coordinator stopped")
}

// AwaitResponse registers interest in the response carrying correlationID.
// The returned channel receives the response content once the dispatch loop
// routes the matching reply envelope. Callers that give up must call
// CancelWait to release the entry.
func (c *Coordinator) AwaitResponse(correlationID string) <-chan any {
	ch := make(chan any, 1)
	c.pendingMu.Lock()
	c.pending[correlationID] = ch
	c.pendingMu.Unlock()
	return ch
}

// CancelWait drops the pending entry for correlationID.
func (c *Coordinator) CancelWait(correlationID string) {
	c.pendingMu.Lock()
	delete(c.pending, correlationID)
	c.pendingMu.Unlock()
}

// resolve delivers a routed response to its waiter, if any.
func (c *Coordinator) resolve(correlationID string, content any) {
	c.pendingMu.Lock()
	ch, ok := c.pending[correlationID]
	if ok {
		delete(c.pending, correlationID)
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- content
	}
}

// dispatch is the single consumer of the queue. It pulls one message at a
// time and routes it; the next message is not dequeued until routing of the
// current one, including the agent call, has returned.
func (c *Coordinator) dispatch(ctx context.Context) {
	for {
		msg, err := c.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		c.route(ctx, msg)
	}
}

// route looks up the receiver and invokes it. Failures are isolated per
// message: an unknown receiver or a failing agent never stops the loop.
func (c *Coordinator) route(ctx context.Context, msg core.Message) {
	// Response envelopes settle their waiter before the registry lookup, so
	// external callers receive results without being registered receivers.
	if msg.Type == core.TypeResponse {
		if cid := msg.CorrelationID(); cid != "" {
			c.resolve(cid, msg.Content)
		}
	}

	start := time.Now()
	err := c.deliver(ctx, msg, start)
	if c.busLogger != nil {
		c.observer(msg).LogDispatch(msg.Receiver, msg.Type, time.Since(start), err)
	}
}

// deliver performs the registry lookup, the agent call and the reply. The
// returned error only feeds the dispatch log; the loop never acts on it.
func (c *Coordinator) deliver(ctx context.Context, msg core.Message, start time.Time) error {
	receiver, ok := c.Lookup(msg.Receiver)
	if !ok {
		if c.busLogger == nil {
			c.logger.Warn("no agent found for receiver=%s type=%s", msg.Receiver, msg.Type)
		}
		return core.ErrAgentNotFound
	}

	result, err := receiver.Process(ctx, msg.Content)
	if c.busLogger != nil {
		c.observer(msg).LogAgentCall(msg.Receiver, time.Since(start), err == nil, err)
	} else if err != nil {
		c.logger.Error("agent %s failed processing %s message: %v", msg.Receiver, msg.Type, err)
	} else {
		c.logger.Debug("agent %s processed %s message in %s", msg.Receiver, msg.Type, time.Since(start))
	}
	if err != nil {
		receiver.HandleError(ctx, err)
		return err
	}

	if msg.RequiresResponse() {
		if err := c.Send(msg.Reply(result)); err != nil {
			c.logger.Warn("dropping reply to %s: %v", msg.Sender, err)
			return err
		}
	}
	return nil
}

// observer derives the structured logger for one message, stamped with the
// message's sender and, when present, its correlation id.
func (c *Coordinator) observer(msg core.Message) *logging.BusLogger {
	l := c.busLogger.WithContext("sender", msg.Sender)
	if cid := msg.CorrelationID(); cid != "" {
		l = l.WithCorrelation(cid)
	}
	return l
}
