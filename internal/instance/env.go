package instance

import (
	"context"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Connections is the notification surface the tree drives.
// *connection.Dispatcher implements it.
type Connections interface {
	ActionUpdate(action model.ActionModel, controlID string) connection.Pending
	ActionDelete(action model.ActionModel) connection.Pending
	ActionLearnValues(ctx context.Context, action model.ActionModel, controlID string) (map[string]any, error)
	FeedbackUpdate(feedback model.FeedbackModel, controlID string) connection.Pending
	FeedbackDelete(feedback model.FeedbackModel) connection.Pending
	FeedbackLearnValues(ctx context.Context, feedback model.FeedbackModel, controlID string) (map[string]any, error)
}

// LearnFunc fetches a node's live option values from its connection.
type LearnFunc func(ctx context.Context) (map[string]any, error)

// Definitions resolves node kinds. *definition.Registry implements it.
type Definitions interface {
	GetActionDefinition(connectionID, kind string) *definition.ActionDefinition
	GetFeedbackDefinition(connectionID, kind string) *definition.FeedbackDefinition
}

// Variables supplies values to internal feedbacks.
type Variables interface {
	Variable(name string) (any, bool)
}

// Logger is the logging interface used by the tree.
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

// Env is shared by every node of one control's trees.
type Env struct {
	ControlID   string
	Connections Connections
	Definitions Definitions
	Logger      Logger
}

// NewEnv returns an Env with a no-op logger when logger is nil.
func NewEnv(controlID string, conns Connections, defs Definitions, logger Logger) *Env {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Env{ControlID: controlID, Connections: conns, Definitions: defs, Logger: logger}
}

func appendPending(list []connection.Pending, p connection.Pending) []connection.Pending {
	if p == nil {
		return list
	}
	return append(list, p)
}
