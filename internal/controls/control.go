package controls

import (
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/events"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
	"github.com/nerrad567/gray-logic-controls/internal/model"
	"github.com/nerrad567/gray-logic-controls/internal/runner"
)

// Broadcast channels.
const (
	ChannelLearn    = "controls.learn"
	ChannelLocation = "controls.location"
	ChannelPage     = "surfaces.page"
	ChannelTriggers = "controls.triggers"

	controlChannelPrefix = "control:"
)

// ControlChannel is the per-control state channel.
func ControlChannel(controlID string) string {
	return controlChannelPrefix + controlID
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

// Grid maps locations to bank control ids. *location.Grid implements it.
type Grid interface {
	IsPageValid(page int) bool
	IsValid(loc model.Location) bool
	GetControlIDAt(loc model.Location) string
	SetControlIDAt(loc model.Location, id string)
	GetLocationOfControlID(id string) (model.Location, bool)
}

// Definitions resolves and creates nodes. *definition.Registry implements it.
type Definitions interface {
	instance.Definitions
	CreateActionItem(connectionID, kind string) *model.ActionModel
	CreateFeedbackItem(connectionID, kind string, booleanOnly bool) *model.FeedbackModel
	CreateEventItem(eventType string) *model.EventModel
}

// Graphics re-renders a grid slot.
type Graphics interface {
	InvalidateButton(loc model.Location)
}

// Broadcaster publishes to client subscribers of a channel.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Bus carries trigger events. *events.Bus implements it.
type Bus interface {
	Subscribe(h events.Handler) (unsubscribe func())
	Publish(e events.Event)
}

// controlDeps is what every control shares with the controller.
type controlDeps struct {
	conns    instance.Connections
	defs     instance.Definitions
	executor runner.Executor
	internal runner.Internal
	serial   func(func())
	logger   Logger
	holdTick time.Duration
}

func (d controlDeps) newEnv(controlID string) *instance.Env {
	return instance.NewEnv(controlID, d.conns, d.defs, d.logger)
}

func (d controlDeps) newRunner(controlID string) *runner.Runner {
	r := runner.New(controlID, d.executor, d.internal)
	r.SetSerializer(d.serial)
	r.SetLogger(d.logger)
	return r
}

// base holds what every variant has.
type base struct {
	id       string
	variant  string
	location *model.Location
	env      *instance.Env
	run      *runner.Runner
}

func newBase(id, variant string, loc *model.Location, deps controlDeps) base {
	b := base{id: id, variant: variant, env: deps.newEnv(id), run: deps.newRunner(id)}
	b.setLocation(loc)
	return b
}

func (b *base) ID() string   { return b.id }
func (b *base) Type() string { return b.variant }

func (b *base) Capabilities() Capabilities {
	c, _ := CapabilitiesOf(b.variant)
	return c
}

func (b *base) Location() *model.Location {
	if b.location == nil {
		return nil
	}
	loc := *b.location
	return &loc
}

func (b *base) setLocation(loc *model.Location) {
	if loc == nil {
		b.location = nil
		return
	}
	cpy := *loc
	b.location = &cpy
}

func (b *base) runner() *runner.Runner { return b.run }

func (b *base) abortDelayed(bool) bool { return b.run.AbortDelayed() }

// newControl builds a control of m.Type. The trees are not subscribed.
func newControl(id string, m model.ControlModel, deps controlDeps) (Control, error) {
	switch m.Type {
	case model.TypeButton:
		return newButton(id, m, deps), nil
	case model.TypePageUp, model.TypePageDown, model.TypePageNum:
		return newPageControl(id, m, deps), nil
	case model.TypeTrigger:
		return newTrigger(id, m, deps), nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidModel, m.Type)
	}
}

// upgradeModel runs the internal upgrade transforms over a stored model.
// It reports whether anything changed.
func upgradeModel(m *model.ControlModel) bool {
	changed := false
	for i := range m.Steps {
		for setID, set := range m.Steps[i].Sets {
			if upgradeActions(set.Actions) {
				changed = true
			}
			m.Steps[i].Sets[setID] = set
		}
	}
	if upgradeActions(m.Actions) {
		changed = true
	}
	if upgradeFeedbacks(m.Feedbacks) {
		changed = true
	}
	return changed
}

func upgradeActions(list []model.ActionModel) bool {
	changed := false
	for i := range list {
		if list[i].IsInternal() && definition.UpgradeAction(&list[i]) {
			changed = true
		}
		for _, children := range list[i].Children {
			if upgradeActions(children) {
				changed = true
			}
		}
	}
	return changed
}

func upgradeFeedbacks(list []model.FeedbackModel) bool {
	changed := false
	for i := range list {
		if list[i].IsInternal() && definition.UpgradeFeedback(&list[i]) {
			changed = true
		}
		if upgradeFeedbacks(list[i].Children) {
			changed = true
		}
	}
	return changed
}

func mergeMap(base, over map[string]any) map[string]any {
	out := model.DeepCopyMap(base)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
