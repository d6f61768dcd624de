package instance

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// ActionList is an ordered list of actions with a single owner.
type ActionList struct {
	env   *Env
	items []*ActionInstance
}

// NewActionList builds a list from models without notifying connections.
func NewActionList(env *Env, models []model.ActionModel) *ActionList {
	l := &ActionList{env: env, items: make([]*ActionInstance, 0, len(models))}
	for _, m := range models {
		l.items = append(l.items, NewActionInstance(env, m))
	}
	return l
}

// Len returns the number of top-level actions.
func (l *ActionList) Len() int { return len(l.items) }

// Items returns the top-level actions.
func (l *ActionList) Items() []*ActionInstance {
	return append([]*ActionInstance(nil), l.items...)
}

// Models exports the list.
func (l *ActionList) Models() []model.ActionModel {
	out := make([]model.ActionModel, len(l.items))
	for i, a := range l.items {
		out[i] = a.Model()
	}
	return out
}

// Add appends a new action built from m and subscribes it.
func (l *ActionList) Add(m model.ActionModel) *ActionInstance {
	a := NewActionInstance(l.env, m)
	l.items = append(l.items, a)
	a.Subscribe(true, "")
	return a
}

// FindByID searches the list and every nested child group, pre-order.
func (l *ActionList) FindByID(id string) *ActionInstance {
	list, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return nil
	}
	return list.items[idx]
}

// FindParentAndIndex returns the list directly holding id and its position.
func (l *ActionList) FindParentAndIndex(id string) (*ActionList, int, bool) {
	for i, a := range l.items {
		if a.id == id {
			return l, i, true
		}
		for _, g := range a.ChildGroups() {
			if list, idx, ok := a.children[g].FindParentAndIndex(id); ok {
				return list, idx, true
			}
		}
	}
	return nil, -1, false
}

// Remove deletes the action (at any depth), cleaning up its subtree.
func (l *ActionList) Remove(id string) bool {
	list, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return false
	}
	a := list.items[idx]
	list.items = append(list.items[:idx], list.items[idx+1:]...)
	a.Cleanup()
	return true
}

// Duplicate inserts a copy of the action (with fresh ids throughout)
// directly after it and subscribes the copy.
func (l *ActionList) Duplicate(id string) *ActionInstance {
	list, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return nil
	}
	cpy := NewActionInstance(list.env, list.items[idx].Model().WithFreshIDs())
	list.insert(cpy, idx+1)
	cpy.Subscribe(true, "")
	return cpy
}

// MoveTo moves the action id (found anywhere under l) into dest at index.
// dest may be any list in the same control, including a child group.
// Moving a node into its own subtree fails with ErrInvalidMove and leaves
// the tree untouched.
func (l *ActionList) MoveTo(id string, dest *ActionList, index int) error {
	src, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a := src.items[idx]
	if a.owns(dest) {
		return fmt.Errorf("%w: %s", ErrInvalidMove, id)
	}

	src.items = append(src.items[:idx], src.items[idx+1:]...)
	if src == dest && index > idx {
		index--
	}

	if dest.env != a.env {
		a.Cleanup()
		a.setEnv(dest.env)
		dest.insert(a, index)
		a.Subscribe(true, "")
		return nil
	}
	dest.insert(a, index)
	return nil
}

func (l *ActionList) insert(a *ActionInstance, index int) {
	if index < 0 || index > len(l.items) {
		index = len(l.items)
	}
	l.items = append(l.items, nil)
	copy(l.items[index+1:], l.items[index:])
	l.items[index] = a
}

// Clone returns an unsubscribed copy with fresh ids bound to env.
func (l *ActionList) Clone(env *Env) *ActionList {
	models := l.Models()
	for i := range models {
		models[i] = models[i].WithFreshIDs()
	}
	return NewActionList(env, models)
}

// Subscribe subscribes every action in the list.
func (l *ActionList) Subscribe(recursive bool, only string) []connection.Pending {
	var pending []connection.Pending
	for _, a := range l.items {
		pending = append(pending, a.Subscribe(recursive, only)...)
	}
	return pending
}

// Cleanup cleans up every action in the list.
func (l *ActionList) Cleanup() {
	for _, a := range l.items {
		a.Cleanup()
	}
}

// PostProcessImport runs import processing on every action.
func (l *ActionList) PostProcessImport() []connection.Pending {
	var pending []connection.Pending
	for _, a := range l.items {
		pending = append(pending, a.PostProcessImport()...)
	}
	return pending
}

// VerifyConnectionIDs removes actions bound to connections for which known
// returns false, at any depth, without notifying anyone. It reports whether
// anything was removed.
func (l *ActionList) VerifyConnectionIDs(known func(connectionID string) bool) bool {
	changed := false
	kept := l.items[:0]
	for _, a := range l.items {
		if !a.IsInternal() && !known(a.connectionID) {
			changed = true
			continue
		}
		for _, list := range a.children {
			if list.VerifyConnectionIDs(known) {
				changed = true
			}
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(l.items); i++ {
		l.items[i] = nil
	}
	l.items = kept
	return changed
}

func (l *ActionList) contains(list *ActionList) bool {
	if l == list {
		return true
	}
	for _, a := range l.items {
		if a.owns(list) {
			return true
		}
	}
	return false
}

func (l *ActionList) setEnv(env *Env) {
	l.env = env
	for _, a := range l.items {
		a.setEnv(env)
	}
}
