package connection

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Host performs blocking RPC calls against a single connection.
type Host interface {
	ActionUpdate(ctx context.Context, action model.ActionModel, controlID string) error
	ActionDelete(ctx context.Context, action model.ActionModel) error
	ActionLearnValues(ctx context.Context, action model.ActionModel, controlID string) (map[string]any, error)
	FeedbackUpdate(ctx context.Context, feedback model.FeedbackModel, controlID string) error
	FeedbackDelete(ctx context.Context, feedback model.FeedbackModel) error
	FeedbackLearnValues(ctx context.Context, feedback model.FeedbackModel, controlID string) (map[string]any, error)
	ExecuteAction(ctx context.Context, action model.ActionModel, extras model.RunExtras) error
}

// Resolver finds the Host for a connection id.
type Resolver interface {
	Host(connectionID string) (Host, bool)
}

// Pending yields the outcome of a queued notification exactly once and is
// then closed. Receiving from a settled Pending returns nil.
type Pending <-chan error

// Done returns an already settled Pending.
func Done(err error) Pending {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

// Await blocks until every pending notification has settled or ctx ends,
// and returns the first failure seen.
func Await(ctx context.Context, pending []Pending) error {
	var g errgroup.Group
	for _, p := range pending {
		p := p
		if p == nil {
			continue
		}
		g.Go(func() error {
			select {
			case err := <-p:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Metrics receives dispatcher counters.
type Metrics interface {
	NotificationDropped(connectionID string)
	NotificationFailed(connectionID, op string)
	ActionExecuted(connectionID string)
}

type noopMetrics struct{}

func (noopMetrics) NotificationDropped(string)        {}
func (noopMetrics) NotificationFailed(string, string) {}
func (noopMetrics) ActionExecuted(string)             {}
