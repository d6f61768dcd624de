package instance

import (
	"context"
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// ActionInstance is one configured action in a control's tree.
type ActionInstance struct {
	env *Env

	id           string
	connectionID string
	kind         string
	options      map[string]any
	disabled     bool
	headline     string
	upgradeIndex *int
	children     map[string]*ActionList
}

// NewActionInstance builds a node (and its children) from a model. Child
// groups the definition does not declare are dropped.
func NewActionInstance(env *Env, m model.ActionModel) *ActionInstance {
	m = m.DeepCopy()
	if m.Options == nil {
		m.Options = map[string]any{}
	}
	a := &ActionInstance{
		env:          env,
		id:           m.ID,
		connectionID: m.ConnectionID,
		kind:         m.Action,
		options:      m.Options,
		disabled:     m.Disabled,
		headline:     m.Headline,
		upgradeIndex: m.UpgradeIndex,
	}
	if a.id == "" {
		a.id = model.GenerateID()
	}

	if len(m.Children) > 0 {
		def := a.definition()
		for group, list := range m.Children {
			if !a.IsInternal() || !def.SupportsChildGroup(group) {
				env.Logger.Warn("dropping undeclared child group",
					"control_id", env.ControlID, "action_id", a.id, "action", a.kind, "group", group)
				continue
			}
			if a.children == nil {
				a.children = make(map[string]*ActionList)
			}
			a.children[group] = NewActionList(env, list)
		}
	}
	return a
}

// ID returns the node id.
func (a *ActionInstance) ID() string { return a.id }

// ConnectionID returns the bound connection.
func (a *ActionInstance) ConnectionID() string { return a.connectionID }

// Kind returns the action kind.
func (a *ActionInstance) Kind() string { return a.kind }

// Disabled reports whether the node is disabled.
func (a *ActionInstance) Disabled() bool { return a.disabled }

// Headline returns the user-facing description.
func (a *ActionInstance) Headline() string { return a.headline }

// IsInternal reports whether the node is built-in logic.
func (a *ActionInstance) IsInternal() bool { return a.connectionID == model.InternalConnection }

// Options returns a copy of the option values.
func (a *ActionInstance) Options() map[string]any { return model.DeepCopyMap(a.options) }

// ChildGroup returns an existing child group or nil.
func (a *ActionInstance) ChildGroup(group string) *ActionList { return a.children[group] }

// ChildGroups returns the ids of existing child groups, sorted.
func (a *ActionInstance) ChildGroups() []string {
	groups := make([]string, 0, len(a.children))
	for g := range a.children {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Model exports the node and its children.
func (a *ActionInstance) Model() model.ActionModel {
	m := a.selfModel()
	if len(a.children) > 0 {
		m.Children = make(map[string][]model.ActionModel, len(a.children))
		for g, list := range a.children {
			m.Children[g] = list.Models()
		}
	}
	return m
}

func (a *ActionInstance) selfModel() model.ActionModel {
	var idx *int
	if a.upgradeIndex != nil {
		v := *a.upgradeIndex
		idx = &v
	}
	return model.ActionModel{
		ID:           a.id,
		ConnectionID: a.connectionID,
		Action:       a.kind,
		Options:      model.DeepCopyMap(a.options),
		Disabled:     a.disabled,
		Headline:     a.headline,
		UpgradeIndex: idx,
	}
}

func (a *ActionInstance) definition() *definition.ActionDefinition {
	if a.env.Definitions == nil {
		return nil
	}
	return a.env.Definitions.GetActionDefinition(a.connectionID, a.kind)
}

// SetOption sets one option and notifies the connection.
func (a *ActionInstance) SetOption(key string, value any) connection.Pending {
	a.options[key] = value
	return a.notifyUpdate()
}

// SetOptions replaces every option and notifies the connection.
func (a *ActionInstance) SetOptions(options map[string]any) connection.Pending {
	a.options = model.DeepCopyMap(options)
	if a.options == nil {
		a.options = map[string]any{}
	}
	return a.notifyUpdate()
}

// SetHeadline changes the description. Connections are not told.
func (a *ActionInstance) SetHeadline(headline string) {
	a.headline = headline
}

// SetConnection rebinds the node. The old connection receives a delete
// before the reassignment and the new one a single update after it.
// Rebinding an internal node to an external connection drops its children.
func (a *ActionInstance) SetConnection(connectionID string) []connection.Pending {
	if connectionID == a.connectionID {
		return nil
	}
	var pending []connection.Pending
	pending = appendPending(pending, a.cleanupSelf())

	a.connectionID = connectionID
	if !a.IsInternal() && len(a.children) > 0 {
		for _, list := range a.children {
			list.Cleanup()
		}
		a.children = nil
	}
	return append(pending, a.Subscribe(true, connectionID)...)
}

// SetEnabled enables or disables the node. Disabling removes the node and
// its subtree from their connections but keeps the configuration.
func (a *ActionInstance) SetEnabled(enabled bool) []connection.Pending {
	if enabled == !a.disabled {
		return nil
	}
	if !enabled {
		a.Cleanup()
		a.disabled = true
		return nil
	}
	a.disabled = false
	return a.Subscribe(true, "")
}

// Cleanup tells the connections of the node and its subtree that they are
// gone. Failures are logged by the dispatcher.
func (a *ActionInstance) Cleanup() {
	a.cleanupSelf()
	for _, list := range a.children {
		list.Cleanup()
	}
}

func (a *ActionInstance) cleanupSelf() connection.Pending {
	if a.disabled || a.IsInternal() || a.env.Connections == nil {
		return nil
	}
	return a.env.Connections.ActionDelete(a.selfModel())
}

// Subscribe notifies the bound connection of the node's configuration. It
// does nothing for disabled nodes. When only is non-empty, nodes bound to
// other connections are skipped (but still recursed into).
func (a *ActionInstance) Subscribe(recursive bool, only string) []connection.Pending {
	if a.disabled {
		return nil
	}
	var pending []connection.Pending
	if only == "" || only == a.connectionID {
		pending = appendPending(pending, a.notifyUpdate())
	}
	if recursive {
		for _, g := range a.ChildGroups() {
			pending = append(pending, a.children[g].Subscribe(true, only)...)
		}
	}
	return pending
}

func (a *ActionInstance) notifyUpdate() connection.Pending {
	if a.disabled || a.IsInternal() || a.env.Connections == nil {
		return nil
	}
	return a.env.Connections.ActionUpdate(a.selfModel(), a.env.ControlID)
}

// GetOrCreateChildGroup returns the named child list, creating it if needed.
func (a *ActionInstance) GetOrCreateChildGroup(group string) (*ActionList, error) {
	if !a.IsInternal() {
		return nil, fmt.Errorf("%w: action %s is bound to %q", ErrChildGroupNotSupported, a.id, a.connectionID)
	}
	if !a.definition().SupportsChildGroup(group) {
		return nil, fmt.Errorf("%w: %s does not accept group %q", ErrChildGroupNotSupported, a.kind, group)
	}
	if list, ok := a.children[group]; ok {
		return list, nil
	}
	if a.children == nil {
		a.children = make(map[string]*ActionList)
	}
	list := NewActionList(a.env, nil)
	a.children[group] = list
	return list, nil
}

// Learner returns a function that asks the connection for live values. It
// works on a snapshot of the node, so it may run without the lock guarding
// the node. It is nil for internal nodes or when there are no connections.
func (a *ActionInstance) Learner() LearnFunc {
	if a.IsInternal() || a.env.Connections == nil {
		return nil
	}
	conns, m, controlID := a.env.Connections, a.selfModel(), a.env.ControlID
	return func(ctx context.Context) (map[string]any, error) {
		values, err := conns.ActionLearnValues(ctx, m, controlID)
		if err != nil {
			return nil, fmt.Errorf("learning action %s: %w", m.ID, err)
		}
		return values, nil
	}
}

// LearnOptions asks the connection for live values and applies them. It
// reports whether anything was learned.
func (a *ActionInstance) LearnOptions(ctx context.Context) (bool, error) {
	fetch := a.Learner()
	if fetch == nil {
		return false, nil
	}
	values, err := fetch(ctx)
	if err != nil {
		return false, err
	}
	return a.ApplyLearned(values), nil
}

// ApplyLearned merges learned option values and notifies the connection.
// It reports whether there was anything to apply.
func (a *ActionInstance) ApplyLearned(values map[string]any) bool {
	if len(values) == 0 {
		return false
	}
	for k, v := range values {
		a.options[k] = v
	}
	a.notifyUpdate()
	return true
}

// PostProcessImport upgrades internal nodes and subscribes external ones,
// recursively. The returned notifications may be awaited.
func (a *ActionInstance) PostProcessImport() []connection.Pending {
	var pending []connection.Pending
	if a.IsInternal() {
		m := a.selfModel()
		if definition.UpgradeAction(&m) {
			a.options = m.Options
			a.upgradeIndex = m.UpgradeIndex
		}
	} else {
		pending = appendPending(pending, a.notifyUpdate())
	}
	for _, g := range a.ChildGroups() {
		pending = append(pending, a.children[g].PostProcessImport()...)
	}
	return pending
}

// owns reports whether list is one of this node's child lists at any depth.
func (a *ActionInstance) owns(list *ActionList) bool {
	for _, child := range a.children {
		if child == list || child.contains(list) {
			return true
		}
	}
	return false
}

func (a *ActionInstance) setEnv(env *Env) {
	a.env = env
	for _, list := range a.children {
		list.setEnv(env)
	}
}
