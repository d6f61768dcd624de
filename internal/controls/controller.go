package controls

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
	"github.com/nerrad567/gray-logic-controls/internal/model"
	"github.com/nerrad567/gray-logic-controls/internal/runner"
)

const (
	storeTimeout    = 5 * time.Second
	defaultHoldTick = 100 * time.Millisecond
	maxPressDepth   = 8
)

// LocationUpdate is broadcast on ChannelLocation when a slot changes.
type LocationUpdate struct {
	Location  model.Location `json:"location"`
	ControlID string         `json:"controlId"`
}

// ControlUpdate is broadcast on a control's channel.
type ControlUpdate struct {
	ControlID string              `json:"controlId"`
	Deleted   bool                `json:"deleted,omitempty"`
	Model     *model.ControlModel `json:"model,omitempty"`
	Style     map[string]any      `json:"style,omitempty"`
}

// LearnUpdate is broadcast on ChannelLearn.
type LearnUpdate struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// Deps are the controller's collaborators. Grid and Definitions are
// required; the rest default to no-ops.
type Deps struct {
	Grid        Grid
	Definitions Definitions
	Connections instance.Connections
	// Executor queues external actions. When nil, Connections is used if it
	// implements runner.Executor.
	Executor    runner.Executor
	Store       Store
	Graphics    Graphics
	Broadcaster Broadcaster
	Bus         Bus
	Variables   *Variables
	Telemetry   Telemetry
	Logger      Logger
	HoldTick    time.Duration
}

// Controller owns every control and serializes all commands against them.
type Controller struct {
	mu         sync.Mutex
	controls   map[string]Control
	closed     bool
	pressDepth int

	grid        Grid
	defs        Definitions
	store       Store
	graphics    Graphics
	broadcaster Broadcaster
	bus         Bus
	vars        *Variables
	telemetry   Telemetry
	logger      Logger
	deps        controlDeps
	unsubscribe func()

	learnMu     sync.Mutex
	activeLearn map[string]struct{}
}

// NewController creates a controller with no controls. Call Load to read
// the store.
func NewController(d Deps) *Controller {
	c := &Controller{
		controls:    make(map[string]Control),
		grid:        d.Grid,
		defs:        d.Definitions,
		store:       d.Store,
		graphics:    d.Graphics,
		broadcaster: d.Broadcaster,
		bus:         d.Bus,
		vars:        d.Variables,
		telemetry:   d.Telemetry,
		logger:      d.Logger,
		activeLearn: make(map[string]struct{}),
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.graphics == nil {
		c.graphics = noopGraphics{}
	}
	if c.broadcaster == nil {
		c.broadcaster = noopBroadcaster{}
	}
	if c.telemetry == nil {
		c.telemetry = noopTelemetry{}
	}
	if c.vars == nil {
		c.vars = NewVariables(c.bus)
	}

	exec := d.Executor
	if exec == nil {
		exec, _ = d.Connections.(runner.Executor)
	}
	holdTick := d.HoldTick
	if holdTick <= 0 {
		holdTick = defaultHoldTick
	}
	c.deps = controlDeps{
		conns:    d.Connections,
		defs:     d.Definitions,
		executor: recordingExecutor{next: exec, telemetry: c.telemetry},
		internal: internalExecutor{c: c},
		serial:   c.serialize,
		logger:   c.logger,
		holdTick: holdTick,
	}

	if c.bus != nil {
		c.unsubscribe = c.bus.Subscribe(c.handleEvent)
	}
	return c
}

// Variables returns the custom variable store.
func (c *Controller) Variables() *Variables { return c.vars }

// serialize runs fn under the controller lock. Timer and repeat bodies go
// through it.
func (c *Controller) serialize(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn()
}

// Load reads every stored control, upgrades it and binds bank controls to
// the grid. Nothing is subscribed; connections are told when they start.
func (c *Controller) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	stored, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("loading controls: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(stored))
	for id := range stored {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		m := stored[id]
		if !model.IsBankID(id) && !model.IsTriggerID(id) {
			c.logger.Warn("skipping control with invalid id", "control_id", id)
			continue
		}
		upgraded := upgradeModel(&m)
		if model.IsBankID(id) && m.Location != nil {
			if !c.grid.IsValid(*m.Location) || c.grid.GetControlIDAt(*m.Location) != "" {
				c.logger.Warn("control location unusable, unbinding", "control_id", id, "location", m.Location.String())
				m.Location = nil
				upgraded = true
			}
		}
		ctl, err := newControl(id, m, c.deps)
		if err != nil {
			c.logger.Warn("skipping invalid control", "control_id", id, "error", err)
			continue
		}
		c.controls[id] = ctl
		if loc := ctl.Location(); loc != nil {
			c.grid.SetControlIDAt(*loc, id)
		}
		if upgraded {
			c.save(ctl)
		}
	}

	c.logger.Info("controls loaded", "count", len(c.controls))
	return nil
}

// GetControl returns the control with id. The same instance is returned
// until the id is deleted.
func (c *Controller) GetControl(id string) (Control, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctl, ok := c.controls[id]
	return ctl, ok
}

// ControlIDs returns every control id, sorted.
func (c *Controller) ControlIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.controls))
	for id := range c.controls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExportControl returns a copy of a control's model.
func (c *Controller) ExportControl(id string) (model.ControlModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctl, ok := c.controls[id]
	if !ok {
		return model.ControlModel{}, false
	}
	return ctl.Model(), true
}

// CreateControl creates a bank control at loc, replacing any occupant.
func (c *Controller) CreateControl(loc model.Location, variant string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.grid.IsValid(loc) || !IsBankVariant(variant) {
		return "", false
	}
	if existing := c.grid.GetControlIDAt(loc); existing != "" {
		c.deleteLocked(existing)
	}

	id := model.NewBankID()
	ctl, err := newControl(id, model.ControlModel{Type: variant, Location: &loc}, c.deps)
	if err != nil {
		return "", false
	}
	c.bind(ctl, loc)
	c.logger.Info("control created", "control_id", id, "type", variant, "location", loc.String())
	return id, true
}

// CreateTrigger creates a standalone trigger placed after every other.
func (c *Controller) CreateTrigger() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := model.NewTriggerID()
	m := model.ControlModel{Type: model.TypeTrigger, Options: map[string]any{"sortOrder": c.nextSortOrder()}}
	ctl, _ := newControl(id, m, c.deps) //nolint:errcheck // trigger is a known type
	c.controls[id] = ctl
	c.commit(ctl)
	return id
}

// DeleteControl deletes a control. Deleting an unknown id is a no-op.
func (c *Controller) DeleteControl(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(id)
}

func (c *Controller) deleteLocked(id string) bool {
	ctl, ok := c.controls[id]
	if !ok {
		return false
	}
	ctl.destroy()
	delete(c.controls, id)
	c.storeDelete(id)

	if loc := ctl.Location(); loc != nil {
		if c.grid.GetControlIDAt(*loc) == id {
			c.grid.SetControlIDAt(*loc, "")
		}
		c.graphics.InvalidateButton(*loc)
		c.broadcaster.Broadcast(ChannelLocation, LocationUpdate{Location: *loc})
	}
	c.broadcaster.Broadcast(ControlChannel(id), ControlUpdate{ControlID: id, Deleted: true})
	if ctl.Type() == model.TypeTrigger {
		c.broadcaster.Broadcast(ChannelTriggers, c.triggerSummaries())
	}
	c.logger.Info("control deleted", "control_id", id)
	return true
}

// CopyControl clones the control at from into to with fresh ids throughout.
func (c *Controller) CopyControl(from, to model.Location) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if from == to || !c.grid.IsValid(to) {
		return false
	}
	src, ok := c.controls[c.grid.GetControlIDAt(from)]
	if !ok {
		return false
	}

	m := src.Model().WithFreshIDs()
	m.Location = &to
	id := model.NewBankID()
	ctl, err := newControl(id, m, c.deps)
	if err != nil {
		return false
	}
	if existing := c.grid.GetControlIDAt(to); existing != "" {
		c.deleteLocked(existing)
	}
	c.bind(ctl, to)
	ctl.subscribe("")
	return true
}

// MoveControl rebinds the control at from to to, replacing any occupant.
func (c *Controller) MoveControl(from, to model.Location) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if from == to || !c.grid.IsValid(to) {
		return false
	}
	id := c.grid.GetControlIDAt(from)
	ctl, ok := c.controls[id]
	if !ok {
		return false
	}
	if existing := c.grid.GetControlIDAt(to); existing != "" {
		c.deleteLocked(existing)
	}

	c.grid.SetControlIDAt(from, "")
	c.grid.SetControlIDAt(to, id)
	ctl.setLocation(&to)
	c.save(ctl)

	c.graphics.InvalidateButton(from)
	c.graphics.InvalidateButton(to)
	c.broadcaster.Broadcast(ChannelLocation, LocationUpdate{Location: from})
	c.broadcaster.Broadcast(ChannelLocation, LocationUpdate{Location: to, ControlID: id})
	return true
}

// SwapControls exchanges two slots. Either may be empty, but not both.
func (c *Controller) SwapControls(a, b model.Location) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a == b || !c.grid.IsValid(a) || !c.grid.IsValid(b) {
		return false
	}
	idA, idB := c.grid.GetControlIDAt(a), c.grid.GetControlIDAt(b)
	if idA == "" && idB == "" {
		return false
	}

	c.grid.SetControlIDAt(a, "")
	c.grid.SetControlIDAt(b, "")
	c.grid.SetControlIDAt(a, idB)
	c.grid.SetControlIDAt(b, idA)
	if ctl, ok := c.controls[idA]; ok {
		ctl.setLocation(&b)
		c.save(ctl)
	}
	if ctl, ok := c.controls[idB]; ok {
		ctl.setLocation(&a)
		c.save(ctl)
	}

	c.graphics.InvalidateButton(a)
	c.graphics.InvalidateButton(b)
	c.broadcaster.Broadcast(ChannelLocation, LocationUpdate{Location: a, ControlID: idB})
	c.broadcaster.Broadcast(ChannelLocation, LocationUpdate{Location: b, ControlID: idA})
	return true
}

// CloneStandalone clones a control that is not on the grid. Triggers get a
// fresh trigger id.
func (c *Controller) CloneStandalone(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctl, ok := c.cloneStandaloneLocked(id)
	if !ok {
		return "", false
	}
	c.commit(ctl)
	return ctl.ID(), true
}

// DuplicateTrigger clones a trigger and places the copy directly after it.
func (c *Controller) DuplicateTrigger(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, ok := c.controls[id].(*TriggerControl)
	if !ok {
		return "", false
	}
	ctl, ok := c.cloneStandaloneLocked(id)
	if !ok {
		return "", false
	}
	t := ctl.(*TriggerControl)
	t.options["name"] = src.TypedOptions().Name + " (copy)"
	t.options["enabled"] = false
	delete(t.options, "lastExecuted")

	ordered := c.sortedTriggers()
	ids := make([]string, 0, len(ordered))
	for _, tr := range ordered {
		if tr.id == t.id {
			continue
		}
		ids = append(ids, tr.id)
		if tr.id == id {
			ids = append(ids, t.id)
		}
	}
	c.reorderLocked(ids)
	c.commit(t)
	return t.id, true
}

func (c *Controller) cloneStandaloneLocked(id string) (Control, bool) {
	src, ok := c.controls[id]
	if !ok || src.Location() != nil {
		return nil, false
	}
	newID := model.NewBankID()
	if src.Type() == model.TypeTrigger {
		newID = model.NewTriggerID()
	}
	ctl, err := newControl(newID, src.Model().WithFreshIDs(), c.deps)
	if err != nil {
		return nil, false
	}
	c.controls[newID] = ctl
	ctl.subscribe("")
	return ctl, true
}

// ImportTrigger adds a trigger under its own id and waits for the bound
// connections to take it. An id already in use is ErrControlExists.
func (c *Controller) ImportTrigger(ctx context.Context, id string, m model.ControlModel) error {
	if !model.IsTriggerID(id) || m.Type != model.TypeTrigger {
		return fmt.Errorf("%w: %s", ErrInvalidModel, id)
	}

	c.mu.Lock()
	if _, exists := c.controls[id]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrControlExists, id)
	}
	m.Location = nil
	ctl, err := newControl(id, m, c.deps)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.controls[id] = ctl
	pending := ctl.postProcessImport()
	c.commit(ctl)
	c.mu.Unlock()

	c.settle(ctx, id, pending)
	return nil
}

// ImportControl imports a bank control into loc with fresh ids, replacing
// any occupant.
func (c *Controller) ImportControl(ctx context.Context, loc model.Location, m model.ControlModel) (string, bool) {
	if !IsBankVariant(m.Type) {
		return "", false
	}

	c.mu.Lock()
	if !c.grid.IsValid(loc) {
		c.mu.Unlock()
		return "", false
	}
	m = m.WithFreshIDs()
	m.Location = &loc
	id := model.NewBankID()
	ctl, err := newControl(id, m, c.deps)
	if err != nil {
		c.mu.Unlock()
		return "", false
	}
	if existing := c.grid.GetControlIDAt(loc); existing != "" {
		c.deleteLocked(existing)
	}
	pending := ctl.postProcessImport()
	c.bind(ctl, loc)
	c.mu.Unlock()

	c.settle(ctx, id, pending)
	return id, true
}

func (c *Controller) settle(ctx context.Context, id string, pending []connection.Pending) {
	if err := connection.Await(ctx, pending); err != nil {
		c.logger.Warn("import notifications did not settle", "control_id", id, "error", err)
	}
}

// Close aborts every delayed action, clears the active-learn set and stops
// reacting to events. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	for _, ctl := range c.controls {
		ctl.runner().AbortDelayed()
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.learnMu.Lock()
	clear(c.activeLearn)
	c.learnMu.Unlock()
}

// bind registers ctl at loc and announces it.
func (c *Controller) bind(ctl Control, loc model.Location) {
	c.controls[ctl.ID()] = ctl
	c.grid.SetControlIDAt(loc, ctl.ID())
	ctl.setLocation(&loc)
	c.save(ctl)
	c.graphics.InvalidateButton(loc)
	c.broadcaster.Broadcast(ChannelLocation, LocationUpdate{Location: loc, ControlID: ctl.ID()})
}

// commit persists a changed control and tells everyone who renders it.
func (c *Controller) commit(ctl Control) {
	c.save(ctl)
	m := ctl.Model()
	c.broadcaster.Broadcast(ControlChannel(ctl.ID()), ControlUpdate{ControlID: ctl.ID(), Model: &m})
	if loc := ctl.Location(); loc != nil {
		c.graphics.InvalidateButton(*loc)
	}
	if ctl.Type() == model.TypeTrigger {
		c.broadcaster.Broadcast(ChannelTriggers, c.triggerSummaries())
	}
}

// rendered tells renderers that runtime state changed.
func (c *Controller) rendered(ctl Control) {
	if b, ok := ctl.(*ButtonControl); ok {
		c.broadcaster.Broadcast(ControlChannel(ctl.ID()), ControlUpdate{ControlID: ctl.ID(), Style: b.Render(c.vars)})
	}
	if loc := ctl.Location(); loc != nil {
		c.graphics.InvalidateButton(*loc)
	}
}

func (c *Controller) save(ctl Control) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.Save(ctx, ctl.ID(), ctl.Model()); err != nil {
		c.logger.Error("saving control failed", "control_id", ctl.ID(), "error", err)
	}
}

func (c *Controller) storeDelete(id string) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.Delete(ctx, id); err != nil {
		c.logger.Error("deleting control failed", "control_id", id, "error", err)
	}
}

// TriggerSummary describes a trigger for list views.
type TriggerSummary struct {
	ID string `json:"id"`
	TriggerOptions
}

// Triggers lists every trigger in sort order.
func (c *Controller) Triggers() []TriggerSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggerSummaries()
}

func (c *Controller) triggerSummaries() []TriggerSummary {
	ordered := c.sortedTriggers()
	out := make([]TriggerSummary, len(ordered))
	for i, t := range ordered {
		out[i] = TriggerSummary{ID: t.id, TriggerOptions: t.TypedOptions()}
	}
	return out
}

// sortedTriggers orders triggers by sortOrder, ties by id.
func (c *Controller) sortedTriggers() []*TriggerControl {
	var out []*TriggerControl
	for _, ctl := range c.controls {
		if t, ok := ctl.(*TriggerControl); ok {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *TriggerControl) int {
		if n := cmp.Compare(a.SortOrder(), b.SortOrder()); n != 0 {
			return n
		}
		return cmp.Compare(a.id, b.id)
	})
	return out
}

func (c *Controller) nextSortOrder() int {
	next := 0
	for _, t := range c.sortedTriggers() {
		next = max(next, t.SortOrder()+1)
	}
	return next
}

type noopGraphics struct{}

func (noopGraphics) InvalidateButton(model.Location) {}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, any) {}
