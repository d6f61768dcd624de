package controls

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
)

// CapChildActions names the capability of holding nested actions.
const CapChildActions = "child actions"

// ActionListRef addresses an action list inside a control: a root list
// (by step and set; triggers ignore both) or a child group of an action
// in it.
type ActionListRef struct {
	StepID   string `json:"stepId,omitempty"`
	SetID    string `json:"setId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	Group    string `json:"group,omitempty"`
}

// capable resolves a control and checks it implements T. An unknown id is
// (zero, false, nil).
func capable[T Control](c *Controller, id, capability string) (T, bool, error) {
	var zero T
	ctl, ok := c.controls[id]
	if !ok {
		return zero, false, nil
	}
	t, ok := ctl.(T)
	if !ok {
		return zero, false, &CapabilityError{ControlID: id, Capability: capability}
	}
	return t, true, nil
}

func findAction(ac ActionsControl, actionID string) (*instance.ActionInstance, *instance.ActionList) {
	for _, l := range ac.actionLists() {
		if a := l.FindByID(actionID); a != nil {
			return a, l
		}
	}
	return nil, nil
}

// subtreeHas reports whether id is in any of a's child groups.
func subtreeHas(a *instance.ActionInstance, id string) bool {
	for _, g := range a.ChildGroups() {
		if a.ChildGroup(g).FindByID(id) != nil {
			return true
		}
	}
	return false
}

// resolveList returns the list ref points at, creating a child group if the
// parent declares it. A missing list is nil with no error.
func (c *Controller) resolveList(ac ActionsControl, ref ActionListRef) (*instance.ActionList, error) {
	root := ac.ActionList(ref.StepID, ref.SetID)
	if root == nil || ref.ParentID == "" {
		return root, nil
	}
	parent := root.FindByID(ref.ParentID)
	if parent == nil {
		return nil, nil
	}
	group := ref.Group
	if group == "" {
		group = definition.GroupDefault
	}
	list, err := parent.GetOrCreateChildGroup(group)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", &CapabilityError{ControlID: ac.ID(), Capability: CapChildActions}, err)
	}
	return list, nil
}

// ActionAdd creates an action of kind on connectionID at the end of ref.
// It returns the new action id, or "" when the list or kind is unknown.
func (c *Controller) ActionAdd(id string, ref ActionListRef, connectionID, kind string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok, err := capable[ActionsControl](c, id, CapActions)
	if !ok {
		return "", err
	}
	list, err := c.resolveList(ac, ref)
	if list == nil {
		return "", err
	}
	item := c.defs.CreateActionItem(connectionID, kind)
	if item == nil {
		return "", nil
	}
	a := list.Add(*item)
	c.commit(ac)
	return a.ID(), nil
}

// ActionRemove deletes an action and its subtree.
func (c *Controller) ActionRemove(id, actionID string) (bool, error) {
	return c.withAction(id, actionID, func(_ *instance.ActionInstance, root *instance.ActionList) bool {
		return root.Remove(actionID)
	})
}

// ActionDuplicate copies an action with fresh ids directly after it.
func (c *Controller) ActionDuplicate(id, actionID string) (string, error) {
	var newID string
	_, err := c.withAction(id, actionID, func(_ *instance.ActionInstance, root *instance.ActionList) bool {
		if cpy := root.Duplicate(actionID); cpy != nil {
			newID = cpy.ID()
		}
		return newID != ""
	})
	return newID, err
}

// ActionSetEnabled enables or disables an action.
func (c *Controller) ActionSetEnabled(id, actionID string, enabled bool) (bool, error) {
	return c.withAction(id, actionID, func(a *instance.ActionInstance, _ *instance.ActionList) bool {
		a.SetEnabled(enabled)
		return true
	})
}

// ActionSetHeadline changes an action's description.
func (c *Controller) ActionSetHeadline(id, actionID, headline string) (bool, error) {
	return c.withAction(id, actionID, func(a *instance.ActionInstance, _ *instance.ActionList) bool {
		a.SetHeadline(headline)
		return true
	})
}

// ActionSetConnection rebinds an action to another connection.
func (c *Controller) ActionSetConnection(id, actionID, connectionID string) (bool, error) {
	return c.withAction(id, actionID, func(a *instance.ActionInstance, _ *instance.ActionList) bool {
		a.SetConnection(connectionID)
		return true
	})
}

// ActionSetOption changes one option of an action.
func (c *Controller) ActionSetOption(id, actionID, key string, value any) (bool, error) {
	return c.withAction(id, actionID, func(a *instance.ActionInstance, _ *instance.ActionList) bool {
		a.SetOption(key, value)
		return true
	})
}

// ActionSetOptions replaces every option of an action.
func (c *Controller) ActionSetOptions(id, actionID string, options map[string]any) (bool, error) {
	return c.withAction(id, actionID, func(a *instance.ActionInstance, _ *instance.ActionList) bool {
		a.SetOptions(options)
		return true
	})
}

// ActionMove moves an action to index in dest, which may be another set or
// a child group. Moving an action into its own subtree is ErrInvalidMove.
func (c *Controller) ActionMove(id, actionID string, dest ActionListRef, index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok, err := capable[ActionsControl](c, id, CapActions)
	if !ok {
		return false, err
	}
	moved, root := findAction(ac, actionID)
	if moved == nil {
		return false, nil
	}
	if dest.ParentID == actionID || (dest.ParentID != "" && subtreeHas(moved, dest.ParentID)) {
		return false, fmt.Errorf("%w: %s", instance.ErrInvalidMove, actionID)
	}
	list, err := c.resolveList(ac, dest)
	if list == nil {
		return false, err
	}
	if err := root.MoveTo(actionID, list, index); err != nil {
		if errors.Is(err, instance.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	c.commit(ac)
	return true, nil
}

// withAction runs fn on an action under the lock and commits when fn
// reports a change.
func (c *Controller) withAction(id, actionID string, fn func(a *instance.ActionInstance, root *instance.ActionList) bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ac, ok, err := capable[ActionsControl](c, id, CapActions)
	if !ok {
		return false, err
	}
	a, root := findAction(ac, actionID)
	if a == nil {
		return false, nil
	}
	if !fn(a, root) {
		return false, nil
	}
	c.commit(ac)
	return true, nil
}
