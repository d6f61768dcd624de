package instance

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// FeedbackInstance is one configured feedback in a control's tree.
type FeedbackInstance struct {
	env *Env

	id           string
	connectionID string
	kind         string
	options      map[string]any
	disabled     bool
	headline     string
	isInverted   bool
	style        map[string]any
	upgradeIndex *int
	children     *FeedbackList

	// value is the last value pushed by the connection.
	value any
}

// NewFeedbackInstance builds a node from a model. Children are kept only for
// internal feedbacks whose definition accepts them.
func NewFeedbackInstance(env *Env, m model.FeedbackModel) *FeedbackInstance {
	m = m.DeepCopy()
	if m.Options == nil {
		m.Options = map[string]any{}
	}
	f := &FeedbackInstance{
		env:          env,
		id:           m.ID,
		connectionID: m.ConnectionID,
		kind:         m.Type,
		options:      m.Options,
		disabled:     m.Disabled,
		headline:     m.Headline,
		isInverted:   m.IsInverted,
		style:        m.Style,
		upgradeIndex: m.UpgradeIndex,
	}
	if f.id == "" {
		f.id = model.GenerateID()
	}
	if len(m.Children) > 0 {
		if f.acceptsChildren() {
			f.children = NewFeedbackList(env, m.Children, true)
		} else {
			env.Logger.Warn("dropping children of feedback that does not accept them",
				"control_id", env.ControlID, "feedback_id", f.id, "type", f.kind)
		}
	}
	return f
}

// ID returns the node id.
func (f *FeedbackInstance) ID() string { return f.id }

// ConnectionID returns the bound connection.
func (f *FeedbackInstance) ConnectionID() string { return f.connectionID }

// Kind returns the feedback type.
func (f *FeedbackInstance) Kind() string { return f.kind }

// Disabled reports whether the node is disabled.
func (f *FeedbackInstance) Disabled() bool { return f.disabled }

// IsInverted reports whether a boolean result is inverted.
func (f *FeedbackInstance) IsInverted() bool { return f.isInverted }

// IsInternal reports whether the node is built-in logic.
func (f *FeedbackInstance) IsInternal() bool { return f.connectionID == model.InternalConnection }

// Options returns a copy of the option values.
func (f *FeedbackInstance) Options() map[string]any { return model.DeepCopyMap(f.options) }

// Children returns the child list or nil.
func (f *FeedbackInstance) Children() *FeedbackList { return f.children }

// Value returns the cached connection value.
func (f *FeedbackInstance) Value() any { return f.value }

// Model exports the node and its children.
func (f *FeedbackInstance) Model() model.FeedbackModel {
	m := f.selfModel()
	if f.children != nil {
		m.Children = f.children.Models()
	}
	return m
}

func (f *FeedbackInstance) selfModel() model.FeedbackModel {
	var idx *int
	if f.upgradeIndex != nil {
		v := *f.upgradeIndex
		idx = &v
	}
	return model.FeedbackModel{
		ID:           f.id,
		ConnectionID: f.connectionID,
		Type:         f.kind,
		Options:      model.DeepCopyMap(f.options),
		Disabled:     f.disabled,
		Headline:     f.headline,
		IsInverted:   f.isInverted,
		Style:        model.DeepCopyMap(f.style),
		UpgradeIndex: idx,
	}
}

func (f *FeedbackInstance) definition() *definition.FeedbackDefinition {
	if f.env.Definitions == nil {
		return nil
	}
	return f.env.Definitions.GetFeedbackDefinition(f.connectionID, f.kind)
}

func (f *FeedbackInstance) acceptsChildren() bool {
	def := f.definition()
	return f.IsInternal() && def != nil && def.SupportsChildFeedbacks
}

// IsBoolean reports whether the definition produces a boolean.
func (f *FeedbackInstance) IsBoolean() bool {
	return f.definition().IsBoolean()
}

// SetOption sets one option and notifies the connection.
func (f *FeedbackInstance) SetOption(key string, value any) connection.Pending {
	f.options[key] = value
	return f.notifyUpdate()
}

// SetOptions replaces every option and notifies the connection.
func (f *FeedbackInstance) SetOptions(options map[string]any) connection.Pending {
	f.options = model.DeepCopyMap(options)
	if f.options == nil {
		f.options = map[string]any{}
	}
	return f.notifyUpdate()
}

// SetHeadline changes the description.
func (f *FeedbackInstance) SetHeadline(headline string) {
	f.headline = headline
}

// SetInverted changes boolean inversion. Connections evaluate without
// inversion, so they are not told.
func (f *FeedbackInstance) SetInverted(inverted bool) {
	f.isInverted = inverted
}

// SetStyleValue sets one overridden style property.
func (f *FeedbackInstance) SetStyleValue(key string, value any) {
	if f.style == nil {
		f.style = map[string]any{}
	}
	f.style[key] = value
}

// SetStyleSelection chooses which style properties the feedback overrides.
// Newly selected properties start from base.
func (f *FeedbackInstance) SetStyleSelection(selected []string, base map[string]any) {
	style := make(map[string]any, len(selected))
	for _, key := range selected {
		if v, ok := f.style[key]; ok {
			style[key] = v
		} else {
			style[key] = base[key]
		}
	}
	f.style = style
}

// SetConnection rebinds the node: delete on the old connection, then one
// update on the new one.
func (f *FeedbackInstance) SetConnection(connectionID string) []connection.Pending {
	if connectionID == f.connectionID {
		return nil
	}
	var pending []connection.Pending
	pending = appendPending(pending, f.cleanupSelf())

	f.connectionID = connectionID
	f.value = nil
	if f.children != nil && !f.acceptsChildren() {
		f.children.Cleanup()
		f.children = nil
	}
	return append(pending, f.Subscribe(true, connectionID)...)
}

// SetEnabled enables or disables the node and its subtree.
func (f *FeedbackInstance) SetEnabled(enabled bool) []connection.Pending {
	if enabled == !f.disabled {
		return nil
	}
	if !enabled {
		f.Cleanup()
		f.disabled = true
		return nil
	}
	f.disabled = false
	return f.Subscribe(true, "")
}

// Cleanup removes the node and its subtree from their connections.
func (f *FeedbackInstance) Cleanup() {
	f.cleanupSelf()
	f.value = nil
	if f.children != nil {
		f.children.Cleanup()
	}
}

func (f *FeedbackInstance) cleanupSelf() connection.Pending {
	if f.disabled || f.IsInternal() || f.env.Connections == nil {
		return nil
	}
	return f.env.Connections.FeedbackDelete(f.selfModel())
}

// Subscribe notifies the bound connection. See ActionInstance.Subscribe.
func (f *FeedbackInstance) Subscribe(recursive bool, only string) []connection.Pending {
	if f.disabled {
		return nil
	}
	var pending []connection.Pending
	if only == "" || only == f.connectionID {
		pending = appendPending(pending, f.notifyUpdate())
	}
	if recursive && f.children != nil {
		pending = append(pending, f.children.Subscribe(true, only)...)
	}
	return pending
}

func (f *FeedbackInstance) notifyUpdate() connection.Pending {
	if f.disabled || f.IsInternal() || f.env.Connections == nil {
		return nil
	}
	return f.env.Connections.FeedbackUpdate(f.selfModel(), f.env.ControlID)
}

// GetOrCreateChildList returns the child feedback list of an internal logic
// feedback, creating it if needed.
func (f *FeedbackInstance) GetOrCreateChildList() (*FeedbackList, error) {
	if !f.acceptsChildren() {
		return nil, fmt.Errorf("%w: feedback %s (%s on %q)", ErrChildGroupNotSupported, f.id, f.kind, f.connectionID)
	}
	if f.children == nil {
		f.children = NewFeedbackList(f.env, nil, true)
	}
	return f.children, nil
}

// Learner returns a function that asks the connection for live values,
// working on a snapshot of the node. It is nil for internal nodes.
func (f *FeedbackInstance) Learner() LearnFunc {
	if f.IsInternal() || f.env.Connections == nil {
		return nil
	}
	conns, m, controlID := f.env.Connections, f.selfModel(), f.env.ControlID
	return func(ctx context.Context) (map[string]any, error) {
		values, err := conns.FeedbackLearnValues(ctx, m, controlID)
		if err != nil {
			return nil, fmt.Errorf("learning feedback %s: %w", m.ID, err)
		}
		return values, nil
	}
}

// LearnOptions asks the connection for live values and applies them.
func (f *FeedbackInstance) LearnOptions(ctx context.Context) (bool, error) {
	fetch := f.Learner()
	if fetch == nil {
		return false, nil
	}
	values, err := fetch(ctx)
	if err != nil {
		return false, err
	}
	return f.ApplyLearned(values), nil
}

// ApplyLearned merges learned option values and notifies the connection.
// It reports whether there was anything to apply.
func (f *FeedbackInstance) ApplyLearned(values map[string]any) bool {
	if len(values) == 0 {
		return false
	}
	for k, v := range values {
		f.options[k] = v
	}
	f.notifyUpdate()
	return true
}

// PostProcessImport upgrades internal nodes and subscribes external ones.
func (f *FeedbackInstance) PostProcessImport() []connection.Pending {
	var pending []connection.Pending
	if f.IsInternal() {
		m := f.selfModel()
		if definition.UpgradeFeedback(&m) {
			f.options = m.Options
			f.upgradeIndex = m.UpgradeIndex
		}
	} else {
		pending = appendPending(pending, f.notifyUpdate())
	}
	if f.children != nil {
		pending = append(pending, f.children.PostProcessImport()...)
	}
	return pending
}

// Evaluate computes the feedback's current value. Internal logic feedbacks
// are computed from their children or from vars; external ones return the
// cached connection value. Inversion applies to boolean results.
func (f *FeedbackInstance) Evaluate(vars Variables) any {
	if f.disabled {
		return nil
	}

	var v any
	switch {
	case f.IsInternal() && f.kind == definition.FeedbackLogicAnd:
		v = f.children != nil && f.children.enabledCount() > 0 && f.children.AllTrue(vars)
	case f.IsInternal() && f.kind == definition.FeedbackLogicOr:
		v = f.children != nil && f.children.AnyTrue(vars)
	case f.IsInternal() && f.kind == definition.FeedbackVariableValue:
		var opts definition.CompareOptions
		if err := definition.DecodeOptions(f.options, &opts); err != nil {
			f.env.Logger.Warn("invalid variable_value options", "feedback_id", f.id, "error", err)
			return false
		}
		var actual any
		if vars != nil {
			actual, _ = vars.Variable(opts.Variable)
		}
		v = definition.Compare(actual, opts.Op, opts.Value)
	default:
		v = f.value
	}

	if f.isInverted {
		if _, isMap := v.(map[string]any); !isMap {
			return !definition.Truthy(v)
		}
	}
	return v
}

func (f *FeedbackInstance) setEnv(env *Env) {
	f.env = env
	if f.children != nil {
		f.children.setEnv(env)
	}
}
