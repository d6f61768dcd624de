package controls

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-controls/internal/instance"
)

// CapChildFeedbacks names the capability of holding nested feedbacks.
const CapChildFeedbacks = "child feedbacks"

// resolveFeedbackList returns the root list or the child list of parentID.
func (c *Controller) resolveFeedbackList(fc FeedbacksControl, parentID string) (*instance.FeedbackList, error) {
	root := fc.Feedbacks()
	if parentID == "" {
		return root, nil
	}
	parent := root.FindByID(parentID)
	if parent == nil {
		return nil, nil
	}
	list, err := parent.GetOrCreateChildList()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", &CapabilityError{ControlID: fc.ID(), Capability: CapChildFeedbacks}, err)
	}
	return list, nil
}

// FeedbackAdd creates a feedback of kind on connectionID at the end of the
// root list or of parentID's child list. Boolean-only lists only accept
// boolean kinds; anything else yields "".
func (c *Controller) FeedbackAdd(id, parentID, connectionID, kind string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fc, ok, err := capable[FeedbacksControl](c, id, CapFeedbacks)
	if !ok {
		return "", err
	}
	list, err := c.resolveFeedbackList(fc, parentID)
	if list == nil {
		return "", err
	}
	item := c.defs.CreateFeedbackItem(connectionID, kind, list.BooleanOnly())
	if item == nil {
		return "", nil
	}
	f, err := list.Add(*item)
	if err != nil {
		return "", err
	}
	c.commit(fc)
	return f.ID(), nil
}

// FeedbackRemove deletes a feedback and its children.
func (c *Controller) FeedbackRemove(id, feedbackID string) (bool, error) {
	return c.withFeedback(id, feedbackID, func(fc FeedbacksControl, _ *instance.FeedbackInstance) bool {
		return fc.Feedbacks().Remove(feedbackID)
	})
}

// FeedbackDuplicate copies a feedback with fresh ids directly after it.
func (c *Controller) FeedbackDuplicate(id, feedbackID string) (string, error) {
	var newID string
	_, err := c.withFeedback(id, feedbackID, func(fc FeedbacksControl, _ *instance.FeedbackInstance) bool {
		if cpy := fc.Feedbacks().Duplicate(feedbackID); cpy != nil {
			newID = cpy.ID()
		}
		return newID != ""
	})
	return newID, err
}

// FeedbackSetEnabled enables or disables a feedback.
func (c *Controller) FeedbackSetEnabled(id, feedbackID string, enabled bool) (bool, error) {
	return c.withFeedback(id, feedbackID, func(_ FeedbacksControl, f *instance.FeedbackInstance) bool {
		f.SetEnabled(enabled)
		return true
	})
}

// FeedbackSetHeadline changes a feedback's description.
func (c *Controller) FeedbackSetHeadline(id, feedbackID, headline string) (bool, error) {
	return c.withFeedback(id, feedbackID, func(_ FeedbacksControl, f *instance.FeedbackInstance) bool {
		f.SetHeadline(headline)
		return true
	})
}

// FeedbackSetConnection rebinds a feedback to another connection.
func (c *Controller) FeedbackSetConnection(id, feedbackID, connectionID string) (bool, error) {
	return c.withFeedback(id, feedbackID, func(_ FeedbacksControl, f *instance.FeedbackInstance) bool {
		f.SetConnection(connectionID)
		return true
	})
}

// FeedbackSetOption changes one option of a feedback.
func (c *Controller) FeedbackSetOption(id, feedbackID, key string, value any) (bool, error) {
	return c.withFeedback(id, feedbackID, func(_ FeedbacksControl, f *instance.FeedbackInstance) bool {
		f.SetOption(key, value)
		return true
	})
}

// FeedbackSetOptions replaces every option of a feedback.
func (c *Controller) FeedbackSetOptions(id, feedbackID string, options map[string]any) (bool, error) {
	return c.withFeedback(id, feedbackID, func(_ FeedbacksControl, f *instance.FeedbackInstance) bool {
		f.SetOptions(options)
		return true
	})
}

// FeedbackSetInverted changes boolean inversion.
func (c *Controller) FeedbackSetInverted(id, feedbackID string, inverted bool) (bool, error) {
	return c.withFeedback(id, feedbackID, func(_ FeedbacksControl, f *instance.FeedbackInstance) bool {
		f.SetInverted(inverted)
		return true
	})
}

// FeedbackSetStyleSelection chooses which style properties a feedback
// overrides. New selections start from the control's base style.
func (c *Controller) FeedbackSetStyleSelection(id, feedbackID string, selected []string) (bool, error) {
	return c.withFeedback(id, feedbackID, func(fc FeedbacksControl, f *instance.FeedbackInstance) bool {
		sc, ok := fc.(StyleControl)
		if !ok {
			return false
		}
		f.SetStyleSelection(selected, sc.Style())
		return true
	})
}

// FeedbackSetStyleValue sets one overridden style property.
func (c *Controller) FeedbackSetStyleValue(id, feedbackID, key string, value any) (bool, error) {
	return c.withFeedback(id, feedbackID, func(fc FeedbacksControl, f *instance.FeedbackInstance) bool {
		if _, ok := fc.(StyleControl); !ok {
			return false
		}
		f.SetStyleValue(key, value)
		return true
	})
}

// FeedbackMove moves a feedback to index in the root list or in parentID's
// child list. Moving a feedback into itself is ErrInvalidMove.
func (c *Controller) FeedbackMove(id, feedbackID, parentID string, index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fc, ok, err := capable[FeedbacksControl](c, id, CapFeedbacks)
	if !ok {
		return false, err
	}
	moved := fc.Feedbacks().FindByID(feedbackID)
	if moved == nil {
		return false, nil
	}
	if parentID == feedbackID || (parentID != "" && moved.Children() != nil && moved.Children().FindByID(parentID) != nil) {
		return false, fmt.Errorf("%w: %s", instance.ErrInvalidMove, feedbackID)
	}
	list, err := c.resolveFeedbackList(fc, parentID)
	if list == nil {
		return false, err
	}
	if err := fc.Feedbacks().MoveTo(feedbackID, list, index); err != nil {
		if errors.Is(err, instance.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	c.commit(fc)
	return true, nil
}

func (c *Controller) withFeedback(id, feedbackID string, fn func(fc FeedbacksControl, f *instance.FeedbackInstance) bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fc, ok, err := capable[FeedbacksControl](c, id, CapFeedbacks)
	if !ok {
		return false, err
	}
	f := fc.Feedbacks().FindByID(feedbackID)
	if f == nil {
		return false, nil
	}
	if !fn(fc, f) {
		return false, nil
	}
	c.commit(fc)
	return true, nil
}
