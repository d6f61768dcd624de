package connection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

const (
	defaultQueueSize   = 256
	defaultCallTimeout = 10 * time.Second
)

// Operation names, used in logs and metrics.
const (
	OpActionUpdate   = "action.update"
	OpActionDelete   = "action.delete"
	OpActionExecute  = "action.execute"
	OpFeedbackUpdate = "feedback.update"
	OpFeedbackDelete = "feedback.delete"
)

type message struct {
	op   string
	call func(ctx context.Context, h Host) error
	done chan error
}

type queue struct {
	ch chan message
}

// Dispatcher fans notifications out to per-connection queues. Enqueueing
// never blocks: when a queue is full the message is dropped.
type Dispatcher struct {
	resolver     Resolver
	queueSize    int
	callTimeout  time.Duration
	learnTimeout time.Duration
	logger       Logger
	metrics      Metrics

	mu     sync.Mutex
	queues map[string]*queue
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. queueSize <= 0 selects the default.
func NewDispatcher(resolver Resolver, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		resolver:     resolver,
		queueSize:    queueSize,
		callTimeout:  defaultCallTimeout,
		learnTimeout: defaultCallTimeout,
		logger:       noopLogger{},
		metrics:      noopMetrics{},
		queues:       make(map[string]*queue),
	}
}

// SetLogger sets the logger for failed and dropped notifications.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetMetrics sets the metrics sink.
func (d *Dispatcher) SetMetrics(m Metrics) {
	d.metrics = m
}

// SetLearnTimeout bounds each learn call.
func (d *Dispatcher) SetLearnTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.learnTimeout = timeout
	}
}

// ActionUpdate queues a create/update of a running action.
func (d *Dispatcher) ActionUpdate(action model.ActionModel, controlID string) Pending {
	action = action.DeepCopy()
	return d.enqueue(action.ConnectionID, OpActionUpdate, func(ctx context.Context, h Host) error {
		return h.ActionUpdate(ctx, action, controlID)
	})
}

// ActionDelete queues removal of a running action.
func (d *Dispatcher) ActionDelete(action model.ActionModel) Pending {
	action = action.DeepCopy()
	return d.enqueue(action.ConnectionID, OpActionDelete, func(ctx context.Context, h Host) error {
		return h.ActionDelete(ctx, action)
	})
}

// FeedbackUpdate queues a create/update of a running feedback.
func (d *Dispatcher) FeedbackUpdate(feedback model.FeedbackModel, controlID string) Pending {
	feedback = feedback.DeepCopy()
	return d.enqueue(feedback.ConnectionID, OpFeedbackUpdate, func(ctx context.Context, h Host) error {
		return h.FeedbackUpdate(ctx, feedback, controlID)
	})
}

// FeedbackDelete queues removal of a running feedback.
func (d *Dispatcher) FeedbackDelete(feedback model.FeedbackModel) Pending {
	feedback = feedback.DeepCopy()
	return d.enqueue(feedback.ConnectionID, OpFeedbackDelete, func(ctx context.Context, h Host) error {
		return h.FeedbackDelete(ctx, feedback)
	})
}

// ExecuteAction queues execution of an action.
func (d *Dispatcher) ExecuteAction(action model.ActionModel, extras model.RunExtras) Pending {
	action = action.DeepCopy()
	return d.enqueue(action.ConnectionID, OpActionExecute, func(ctx context.Context, h Host) error {
		err := h.ExecuteAction(ctx, action, extras)
		if err == nil {
			d.metrics.ActionExecuted(action.ConnectionID)
		}
		return err
	})
}

// ActionLearnValues asks the connection for live option values. Unlike the
// other calls this one blocks until the connection answers or times out.
func (d *Dispatcher) ActionLearnValues(ctx context.Context, action model.ActionModel, controlID string) (map[string]any, error) {
	host, ok := d.resolver.Host(action.ConnectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, action.ConnectionID)
	}
	ctx, cancel := context.WithTimeout(ctx, d.learnTimeout)
	defer cancel()
	return host.ActionLearnValues(ctx, action.DeepCopy(), controlID)
}

// FeedbackLearnValues is the feedback analog of ActionLearnValues.
func (d *Dispatcher) FeedbackLearnValues(ctx context.Context, feedback model.FeedbackModel, controlID string) (map[string]any, error) {
	host, ok := d.resolver.Host(feedback.ConnectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConnection, feedback.ConnectionID)
	}
	ctx, cancel := context.WithTimeout(ctx, d.learnTimeout)
	defer cancel()
	return host.FeedbackLearnValues(ctx, feedback.DeepCopy(), controlID)
}

func (d *Dispatcher) enqueue(connectionID, op string, call func(ctx context.Context, h Host) error) Pending {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return Done(ErrClosed)
	}
	q, ok := d.queues[connectionID]
	if !ok {
		// Queues exist only for connections the resolver knows, so ids typed
		// into a node's connection field cannot grow the queue set.
		if _, known := d.resolver.Host(connectionID); !known {
			d.mu.Unlock()
			d.logger.Debug("notification for unknown connection", "connection_id", connectionID, "op", op)
			d.metrics.NotificationFailed(connectionID, op)
			return Done(fmt.Errorf("%w: %s", ErrUnknownConnection, connectionID))
		}
		q = &queue{ch: make(chan message, d.queueSize)}
		d.queues[connectionID] = q
		d.wg.Add(1)
		go d.drain(connectionID, q)
	}

	msg := message{op: op, call: call, done: make(chan error, 1)}
	select {
	case q.ch <- msg:
		d.mu.Unlock()
		return msg.done
	default:
		d.mu.Unlock()
		d.logger.Warn("connection queue full, notification dropped", "connection_id", connectionID, "op", op)
		d.metrics.NotificationDropped(connectionID)
		return Done(ErrQueueFull)
	}
}

func (d *Dispatcher) drain(connectionID string, q *queue) {
	defer d.wg.Done()
	for msg := range q.ch {
		err := d.deliver(connectionID, msg)
		if err != nil {
			d.logger.Warn("connection notification failed", "connection_id", connectionID, "op", msg.op, "error", err)
			d.metrics.NotificationFailed(connectionID, msg.op)
		}
		msg.done <- err
		close(msg.done)
	}
}

func (d *Dispatcher) deliver(connectionID string, msg message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connection host panic: %v", r)
		}
	}()

	host, ok := d.resolver.Host(connectionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connectionID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)
	defer cancel()
	return msg.call(ctx, host)
}

// Release closes a connection's queue once its queued messages drain.
// Later notifications for the id need the resolver to know it again.
func (d *Dispatcher) Release(connectionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if q, ok := d.queues[connectionID]; ok && !d.closed {
		delete(d.queues, connectionID)
		close(q.ch)
	}
}

// Close stops accepting notifications and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q.ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
