package instance

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// FeedbackList is an ordered list of feedbacks with a single owner. A
// boolean-only list rejects feedbacks that do not produce booleans.
type FeedbackList struct {
	env         *Env
	booleanOnly bool
	items       []*FeedbackInstance
}

// NewFeedbackList builds a list from models without notifying connections.
func NewFeedbackList(env *Env, models []model.FeedbackModel, booleanOnly bool) *FeedbackList {
	l := &FeedbackList{env: env, booleanOnly: booleanOnly, items: make([]*FeedbackInstance, 0, len(models))}
	for _, m := range models {
		l.items = append(l.items, NewFeedbackInstance(env, m))
	}
	return l
}

// BooleanOnly reports whether the list only accepts boolean feedbacks.
func (l *FeedbackList) BooleanOnly() bool { return l.booleanOnly }

// Len returns the number of top-level feedbacks.
func (l *FeedbackList) Len() int { return len(l.items) }

// Items returns the top-level feedbacks.
func (l *FeedbackList) Items() []*FeedbackInstance {
	return append([]*FeedbackInstance(nil), l.items...)
}

// Models exports the list.
func (l *FeedbackList) Models() []model.FeedbackModel {
	out := make([]model.FeedbackModel, len(l.items))
	for i, f := range l.items {
		out[i] = f.Model()
	}
	return out
}

// Add appends a new feedback built from m and subscribes it.
func (l *FeedbackList) Add(m model.FeedbackModel) (*FeedbackInstance, error) {
	f := NewFeedbackInstance(l.env, m)
	if l.booleanOnly && !f.IsBoolean() {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotBoolean, m.ConnectionID, m.Type)
	}
	l.items = append(l.items, f)
	f.Subscribe(true, "")
	return f, nil
}

// FindByID searches the list and all nested children, pre-order.
func (l *FeedbackList) FindByID(id string) *FeedbackInstance {
	list, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return nil
	}
	return list.items[idx]
}

// FindParentAndIndex returns the list directly holding id and its position.
func (l *FeedbackList) FindParentAndIndex(id string) (*FeedbackList, int, bool) {
	for i, f := range l.items {
		if f.id == id {
			return l, i, true
		}
		if f.children != nil {
			if list, idx, ok := f.children.FindParentAndIndex(id); ok {
				return list, idx, true
			}
		}
	}
	return nil, -1, false
}

// Remove deletes the feedback (at any depth), cleaning up its subtree.
func (l *FeedbackList) Remove(id string) bool {
	list, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return false
	}
	f := list.items[idx]
	list.items = append(list.items[:idx], list.items[idx+1:]...)
	f.Cleanup()
	return true
}

// Duplicate inserts a fresh-id copy directly after the feedback.
func (l *FeedbackList) Duplicate(id string) *FeedbackInstance {
	list, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return nil
	}
	cpy := NewFeedbackInstance(list.env, list.items[idx].Model().WithFreshIDs())
	list.insert(cpy, idx+1)
	cpy.Subscribe(true, "")
	return cpy
}

// MoveTo moves the feedback id into dest at index. It fails with
// ErrInvalidMove when dest is inside the moved node, and with ErrNotBoolean
// when dest is boolean-only and the feedback is not.
func (l *FeedbackList) MoveTo(id string, dest *FeedbackList, index int) error {
	src, idx, ok := l.FindParentAndIndex(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	f := src.items[idx]
	if f.children != nil && f.children.contains(dest) {
		return fmt.Errorf("%w: %s", ErrInvalidMove, id)
	}
	if dest.booleanOnly && !f.IsBoolean() {
		return fmt.Errorf("%w: %s", ErrNotBoolean, id)
	}

	src.items = append(src.items[:idx], src.items[idx+1:]...)
	if src == dest && index > idx {
		index--
	}
	dest.insert(f, index)
	return nil
}

func (l *FeedbackList) insert(f *FeedbackInstance, index int) {
	if index < 0 || index > len(l.items) {
		index = len(l.items)
	}
	l.items = append(l.items, nil)
	copy(l.items[index+1:], l.items[index:])
	l.items[index] = f
}

// Clone returns an unsubscribed copy with fresh ids bound to env.
func (l *FeedbackList) Clone(env *Env) *FeedbackList {
	models := l.Models()
	for i := range models {
		models[i] = models[i].WithFreshIDs()
	}
	return NewFeedbackList(env, models, l.booleanOnly)
}

// Subscribe subscribes every feedback in the list.
func (l *FeedbackList) Subscribe(recursive bool, only string) []connection.Pending {
	var pending []connection.Pending
	for _, f := range l.items {
		pending = append(pending, f.Subscribe(recursive, only)...)
	}
	return pending
}

// Cleanup cleans up every feedback in the list.
func (l *FeedbackList) Cleanup() {
	for _, f := range l.items {
		f.Cleanup()
	}
}

// PostProcessImport runs import processing on every feedback.
func (l *FeedbackList) PostProcessImport() []connection.Pending {
	var pending []connection.Pending
	for _, f := range l.items {
		pending = append(pending, f.PostProcessImport()...)
	}
	return pending
}

// ForgetConnection drops cached values from a stopped connection. The
// configuration is kept. It reports whether any value was cleared.
func (l *FeedbackList) ForgetConnection(connectionID string) bool {
	changed := false
	l.walk(func(f *FeedbackInstance) {
		if f.connectionID == connectionID && f.value != nil {
			f.value = nil
			changed = true
		}
	})
	return changed
}

// SetValues stores values pushed by a connection, keyed by feedback id.
// It reports whether any cached value changed.
func (l *FeedbackList) SetValues(connectionID string, values map[string]any) bool {
	changed := false
	l.walk(func(f *FeedbackInstance) {
		if f.connectionID != connectionID {
			return
		}
		if v, ok := values[f.id]; ok && !sameValue(f.value, v) {
			f.value = v
			changed = true
		}
	})
	return changed
}

// VerifyConnectionIDs removes feedbacks bound to unknown connections,
// without notifying anyone.
func (l *FeedbackList) VerifyConnectionIDs(known func(connectionID string) bool) bool {
	changed := false
	kept := l.items[:0]
	for _, f := range l.items {
		if !f.IsInternal() && !known(f.connectionID) {
			changed = true
			continue
		}
		if f.children != nil && f.children.VerifyConnectionIDs(known) {
			changed = true
		}
		kept = append(kept, f)
	}
	for i := len(kept); i < len(l.items); i++ {
		l.items[i] = nil
	}
	l.items = kept
	return changed
}

// AllTrue reports whether every enabled feedback evaluates true. An empty
// list is true.
func (l *FeedbackList) AllTrue(vars Variables) bool {
	for _, f := range l.items {
		if f.disabled {
			continue
		}
		if !definition.Truthy(f.Evaluate(vars)) {
			return false
		}
	}
	return true
}

// AnyTrue reports whether any enabled feedback evaluates true.
func (l *FeedbackList) AnyTrue(vars Variables) bool {
	for _, f := range l.items {
		if !f.disabled && definition.Truthy(f.Evaluate(vars)) {
			return true
		}
	}
	return false
}

// Style layers each active feedback's style over base, in list order.
// Boolean feedbacks apply their own style when true; advanced feedbacks
// apply the style map the connection computed.
func (l *FeedbackList) Style(base map[string]any, vars Variables) map[string]any {
	out := model.DeepCopyMap(base)
	if out == nil {
		out = map[string]any{}
	}
	for _, f := range l.items {
		if f.disabled {
			continue
		}
		switch v := f.Evaluate(vars).(type) {
		case map[string]any:
			for k, val := range v {
				out[k] = val
			}
		default:
			if definition.Truthy(v) {
				for k, val := range f.style {
					out[k] = val
				}
			}
		}
	}
	return out
}

func (l *FeedbackList) enabledCount() int {
	n := 0
	for _, f := range l.items {
		if !f.disabled {
			n++
		}
	}
	return n
}

func (l *FeedbackList) walk(fn func(*FeedbackInstance)) {
	for _, f := range l.items {
		fn(f)
		if f.children != nil {
			f.children.walk(fn)
		}
	}
}

func (l *FeedbackList) contains(list *FeedbackList) bool {
	if l == list {
		return true
	}
	for _, f := range l.items {
		if f.children != nil && f.children.contains(list) {
			return true
		}
	}
	return false
}

func (l *FeedbackList) setEnv(env *Env) {
	l.env = env
	for _, f := range l.items {
		f.setEnv(env)
	}
}

// sameValue compares cached values. Maps and slices always count as changed.
func sameValue(a, b any) bool {
	switch a.(type) {
	case map[string]any, []any:
		return false
	}
	switch b.(type) {
	case map[string]any, []any:
		return false
	}
	return a == b
}
