package controls

// withControl resolves id as T, runs fn and commits when fn reports a
// change. An unknown id is (false, nil).
func withControl[T Control](c *Controller, id, capability string, fn func(T) bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctl, ok, err := capable[T](c, id, capability)
	if !ok {
		return false, err
	}
	if !fn(ctl) {
		return false, nil
	}
	c.commit(ctl)
	return true, nil
}

// StepAdd appends a step and returns its id.
func (c *Controller) StepAdd(id string) (string, error) {
	var stepID string
	_, err := withControl(c, id, CapSteps, func(s StepsControl) bool {
		stepID = s.AddStep()
		return true
	})
	return stepID, err
}

// StepRemove deletes a step. The last step cannot be removed.
func (c *Controller) StepRemove(id, stepID string) (bool, error) {
	return withControl(c, id, CapSteps, func(s StepsControl) bool { return s.RemoveStep(stepID) })
}

// StepDuplicate copies a step with fresh action ids.
func (c *Controller) StepDuplicate(id, stepID string) (string, error) {
	var newID string
	_, err := withControl(c, id, CapSteps, func(s StepsControl) bool {
		var ok bool
		newID, ok = s.DuplicateStep(stepID)
		return ok
	})
	return newID, err
}

// StepSwap exchanges two steps.
func (c *Controller) StepSwap(id, a, b string) (bool, error) {
	return withControl(c, id, CapSteps, func(s StepsControl) bool { return s.SwapSteps(a, b) })
}

// StepSelect makes a step current.
func (c *Controller) StepSelect(id, stepID string) (bool, error) {
	return withControl(c, id, CapSteps, func(s StepsControl) bool { return s.SelectStep(stepID) })
}

// StepRename names a step.
func (c *Controller) StepRename(id, stepID, name string) (bool, error) {
	return withControl(c, id, CapSteps, func(s StepsControl) bool { return s.RenameStep(stepID, name) })
}

// SetAdd adds a press-duration set to a step and returns its id.
func (c *Controller) SetAdd(id, stepID string) (string, error) {
	var setID string
	_, err := withControl(c, id, CapActionSets, func(s ActionSetsControl) bool {
		var ok bool
		setID, ok = s.AddSet(stepID)
		return ok
	})
	return setID, err
}

// SetRemove deletes a press-duration set.
func (c *Controller) SetRemove(id, stepID, setID string) (bool, error) {
	return withControl(c, id, CapActionSets, func(s ActionSetsControl) bool { return s.RemoveSet(stepID, setID) })
}

// SetRename changes a press-duration set's threshold.
func (c *Controller) SetRename(id, stepID, oldID, newID string) (bool, error) {
	return withControl(c, id, CapActionSets, func(s ActionSetsControl) bool { return s.RenameSet(stepID, oldID, newID) })
}

// SetRunWhileHeld toggles repeat-while-held on a set.
func (c *Controller) SetRunWhileHeld(id, stepID, setID string, enabled bool) (bool, error) {
	return withControl(c, id, CapActionSets, func(s ActionSetsControl) bool {
		return s.SetRunWhileHeld(stepID, setID, enabled)
	})
}

// EventAdd adds a trigger event of eventType with default options. An
// unknown type yields "".
func (c *Controller) EventAdd(id, eventType string) (string, error) {
	var eventID string
	_, err := withControl(c, id, CapEvents, func(e EventsControl) bool {
		item := c.defs.CreateEventItem(eventType)
		if item == nil {
			return false
		}
		eventID = e.AddEvent(*item)
		return true
	})
	return eventID, err
}

// EventRemove deletes an event.
func (c *Controller) EventRemove(id, eventID string) (bool, error) {
	return withControl(c, id, CapEvents, func(e EventsControl) bool { return e.RemoveEvent(eventID) })
}

// EventDuplicate copies an event directly after it.
func (c *Controller) EventDuplicate(id, eventID string) (string, error) {
	var newID string
	_, err := withControl(c, id, CapEvents, func(e EventsControl) bool {
		var ok bool
		newID, ok = e.DuplicateEvent(eventID)
		return ok
	})
	return newID, err
}

// EventSetEnabled enables or disables an event.
func (c *Controller) EventSetEnabled(id, eventID string, enabled bool) (bool, error) {
	return withControl(c, id, CapEvents, func(e EventsControl) bool { return e.SetEventEnabled(eventID, enabled) })
}

// EventSetHeadline changes an event's description.
func (c *Controller) EventSetHeadline(id, eventID, headline string) (bool, error) {
	return withControl(c, id, CapEvents, func(e EventsControl) bool { return e.SetEventHeadline(eventID, headline) })
}

// EventSetOption changes one event option.
func (c *Controller) EventSetOption(id, eventID, key string, value any) (bool, error) {
	return withControl(c, id, CapEvents, func(e EventsControl) bool { return e.SetEventOption(eventID, key, value) })
}

// EventReorder moves an event to index.
func (c *Controller) EventReorder(id, eventID string, index int) (bool, error) {
	return withControl(c, id, CapEvents, func(e EventsControl) bool { return e.ReorderEvent(eventID, index) })
}

// OptionSet changes one control option.
func (c *Controller) OptionSet(id, key string, value any) (bool, error) {
	return withControl(c, id, CapOptions, func(o OptionsControl) bool { return o.SetOption(key, value) })
}

// StyleSet merges diff into the control's base style.
func (c *Controller) StyleSet(id string, diff map[string]any) (bool, error) {
	return withControl(c, id, CapStyle, func(s StyleControl) bool { return s.SetStyle(diff) })
}
