package controls

import (
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/events"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// PressControl presses or releases a bank control from a surface. It
// reports whether the control exists and reacted.
func (c *Controller) PressControl(id string, pressed bool, surfaceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pressLocked(id, pressed, surfaceID)
}

func (c *Controller) pressLocked(id string, pressed bool, surfaceID string) bool {
	ctl, ok := c.controls[id]
	if !ok {
		return false
	}
	if c.pressDepth >= maxPressDepth {
		c.logger.Warn("press chain too deep, ignoring", "control_id", id)
		return false
	}
	c.pressDepth++
	defer func() { c.pressDepth-- }()

	extras := model.RunExtras{ControlID: id, SurfaceID: surfaceID, Location: ctl.Location(), Timestamp: time.Now()}
	switch ctl := ctl.(type) {
	case *ButtonControl:
		if !ctl.press(pressed, extras) {
			return false
		}
		c.rendered(ctl)
	case *PageControl:
		if pressed {
			c.broadcaster.Broadcast(ChannelPage, ctl.pageChange(surfaceID))
		}
	default:
		return false
	}

	c.telemetry.RecordPress(id, surfaceID, pressed)
	if c.bus != nil {
		c.bus.Publish(events.ControlPressed{ControlID: id, SurfaceID: surfaceID, Pressed: pressed})
	}
	return true
}

// RotateControl turns an encoder on a button with rotary actions.
func (c *Controller) RotateControl(id string, right bool, surfaceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.controls[id].(*ButtonControl)
	if !ok {
		return false
	}
	extras := model.RunExtras{ControlID: id, SurfaceID: surfaceID, Location: b.Location(), Timestamp: time.Now()}
	return b.rotate(right, extras)
}

// AbortDelayedActions cancels a control's delayed and repeating actions.
// With skipUp, a button being held skips its release actions.
func (c *Controller) AbortDelayedActions(id string, skipUp bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abortLocked(id, skipUp)
}

func (c *Controller) abortLocked(id string, skipUp bool) bool {
	ctl, ok := c.controls[id]
	if !ok {
		return false
	}
	return ctl.abortDelayed(skipUp)
}

// AbortAllDelayedActions cancels delayed actions everywhere and returns how
// many controls had something to cancel.
func (c *Controller) AbortAllDelayedActions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ctl := range c.controls {
		if ctl.abortDelayed(false) {
			n++
		}
	}
	return n
}

// DelayedSummary describes a control with scheduled or repeating actions.
type DelayedSummary struct {
	ID      string `json:"id"`
	Pending int    `json:"pending"`
}

// DelayedActions lists the controls with something scheduled or held,
// sorted by id.
func (c *Controller) DelayedActions() []DelayedSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []DelayedSummary
	for id, ctl := range c.controls {
		r := ctl.runner()
		if !r.HasDelayed() {
			continue
		}
		out = append(out, DelayedSummary{ID: id, Pending: r.PendingCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TriggerTest runs a trigger's actions now, ignoring its events and
// condition.
func (c *Controller) TriggerTest(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.controls[id].(*TriggerControl)
	if !ok {
		return false
	}
	c.fire(t, time.Now(), true)
	return true
}

// TriggerReorder renumbers triggers: ids first in the given order, then the
// rest in their current order. Concurrent reorders are last-write-wins.
func (c *Controller) TriggerReorder(ids []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.reorderLocked(ids) {
		return false
	}
	c.broadcaster.Broadcast(ChannelTriggers, c.triggerSummaries())
	return true
}

func (c *Controller) reorderLocked(ids []string) bool {
	current := c.sortedTriggers()
	if len(current) == 0 {
		return false
	}
	byID := make(map[string]*TriggerControl, len(current))
	for _, t := range current {
		byID[t.id] = t
	}

	ordered := make([]*TriggerControl, 0, len(current))
	seen := make(map[string]bool, len(current))
	for _, id := range ids {
		if t, ok := byID[id]; ok && !seen[id] {
			ordered = append(ordered, t)
			seen[id] = true
		}
	}
	for _, t := range current {
		if !seen[t.id] {
			ordered = append(ordered, t)
		}
	}

	for i, t := range ordered {
		if t.SortOrder() != i {
			t.options["sortOrder"] = i
			c.save(t)
		}
	}
	return true
}

func (c *Controller) fire(t *TriggerControl, ts time.Time, isTest bool) {
	c.logger.Debug("trigger fired", "control_id", t.id, "test", isTest)
	t.execute(ts, isTest)
	c.telemetry.RecordTriggerFired(t.id, isTest)
	c.save(t)
	m := t.Model()
	c.broadcaster.Broadcast(ControlChannel(t.id), ControlUpdate{ControlID: t.id, Model: &m})
}

// handleEvent evaluates every trigger against a bus event, in sort order.
func (c *Controller) handleEvent(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if s, ok := e.(events.ConnectionStatus); ok {
		if s.Running {
			c.resubscribeLocked(s.ConnectionID)
		} else {
			c.forgetLocked(s.ConnectionID)
		}
	}

	now := time.Now()
	if tick, ok := e.(events.Tick); ok {
		now = tick.Time
	}
	for _, t := range c.sortedTriggers() {
		if t.evaluate(e, c.vars) {
			c.fire(t, now, false)
		}
	}
	if _, ok := e.(events.VariableChanged); ok {
		c.renderAll()
	}
}

// ForgetConnection drops runtime values from a stopped connection. The
// configuration is kept.
func (c *Controller) ForgetConnection(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forgetLocked(connectionID)
}

func (c *Controller) forgetLocked(connectionID string) {
	for _, ctl := range c.controls {
		changed := false
		for _, l := range ctl.feedbackLists() {
			if l.ForgetConnection(connectionID) {
				changed = true
			}
		}
		if changed {
			c.rendered(ctl)
		}
	}
}

// ResubscribeConnection tells a (re)started connection about every node
// bound to it.
func (c *Controller) ResubscribeConnection(connectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resubscribeLocked(connectionID)
}

func (c *Controller) resubscribeLocked(connectionID string) {
	n := 0
	for _, ctl := range c.controls {
		n += len(ctl.subscribe(connectionID))
	}
	c.logger.Debug("connection resubscribed", "connection_id", connectionID, "notifications", n)
}

// VerifyConnectionIDs removes nodes bound to connections known rejects.
// Nothing is notified. It returns the number of controls changed.
func (c *Controller) VerifyConnectionIDs(known func(connectionID string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, ctl := range c.controls {
		changed := false
		for _, l := range ctl.actionLists() {
			if l.VerifyConnectionIDs(known) {
				changed = true
			}
		}
		for _, l := range ctl.feedbackLists() {
			if l.VerifyConnectionIDs(known) {
				changed = true
			}
		}
		if changed {
			n++
			c.commit(ctl)
		}
	}
	if n > 0 {
		c.logger.Warn("removed nodes bound to unknown connections", "controls", n)
	}
	return n
}

// UpdateFeedbackValues stores values pushed by a connection, keyed by
// feedback id, and re-renders controls whose values changed. Triggers whose
// condition changes as a result are evaluated.
func (c *Controller) UpdateFeedbackValues(connectionID string, values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, ctl := range c.controls {
		changed := false
		for _, l := range ctl.feedbackLists() {
			if l.SetValues(connectionID, values) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		switch ctl := ctl.(type) {
		case *TriggerControl:
			if ctl.evaluate(nil, c.vars) {
				c.fire(ctl, now, false)
			}
		default:
			c.rendered(ctl)
		}
	}
}

// RenderStyle returns a button's current style with feedbacks applied.
func (c *Controller) RenderStyle(id string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.controls[id].(*ButtonControl)
	if !ok {
		return nil, false
	}
	return b.Render(c.vars), true
}

func (c *Controller) renderAll() {
	for _, ctl := range c.controls {
		if _, ok := ctl.(*ButtonControl); ok && ctl.Location() != nil {
			c.rendered(ctl)
		}
	}
}

// internalExecutor runs built-in actions. It is called from a runner walk,
// which always holds the controller lock.
type internalExecutor struct {
	c *Controller
}

func (e internalExecutor) Variable(name string) (any, bool) {
	return e.c.vars.Variable(name)
}

func (e internalExecutor) ExecuteInternal(a model.ActionModel, extras model.RunExtras) {
	c := e.c
	switch a.Action {
	case definition.ActionSetVariable:
		var opts definition.SetVariableOptions
		if err := definition.DecodeOptions(a.Options, &opts); err != nil || opts.Name == "" {
			c.logger.Warn("invalid set_variable options", "action_id", a.ID, "error", err)
			return
		}
		c.vars.Set(opts.Name, opts.Value)

	case definition.ActionButtonPress, definition.ActionButtonRelease:
		opts := targetOptions(a, extras)
		if opts.ControlID == extras.ControlID {
			c.logger.Warn("control cannot press itself", "control_id", extras.ControlID, "action_id", a.ID)
			return
		}
		c.pressLocked(opts.ControlID, a.Action == definition.ActionButtonPress, extras.SurfaceID)

	case definition.ActionAbortDelayed:
		opts := targetOptions(a, extras)
		c.abortLocked(opts.ControlID, opts.SkipUp)

	default:
		c.logger.Warn("unknown internal action", "action", a.Action, "action_id", a.ID)
	}
}

func targetOptions(a model.ActionModel, extras model.RunExtras) definition.ControlTargetOptions {
	var opts definition.ControlTargetOptions
	_ = definition.DecodeOptions(a.Options, &opts) //nolint:errcheck // zero value targets the running control
	if opts.ControlID == "" {
		opts.ControlID = extras.ControlID
	}
	return opts
}
