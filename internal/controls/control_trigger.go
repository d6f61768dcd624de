package controls

import (
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/events"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// TriggerOptions are the typed trigger options.
type TriggerOptions struct {
	Name         string `mapstructure:"name" json:"name"`
	Enabled      bool   `mapstructure:"enabled" json:"enabled"`
	SortOrder    int    `mapstructure:"sortOrder" json:"sortOrder"`
	LastExecuted int64  `mapstructure:"lastExecuted" json:"lastExecuted,omitempty"` // unix ms
}

type intervalOptions struct {
	Seconds int `mapstructure:"seconds"`
}

type timeOfDayOptions struct {
	Time string `mapstructure:"time"`
	Days []int  `mapstructure:"days"`
}

type controlFilterOptions struct {
	ControlID string `mapstructure:"controlId"`
}

type variableFilterOptions struct {
	Variable string `mapstructure:"variable"`
}

func defaultTriggerOptions() map[string]any {
	return map[string]any{
		"name":      "New trigger",
		"enabled":   false,
		"sortOrder": 0,
	}
}

// TriggerControl is a standalone control driven by events. Its feedbacks
// are a boolean-only condition gating execution.
type TriggerControl struct {
	base

	options   map[string]any
	actions   *instance.ActionList
	condition *instance.FeedbackList
	events    []model.EventModel

	intervalLast  map[string]time.Time
	dayFired      map[string]string
	lastCondition *bool
}

func newTrigger(id string, m model.ControlModel, deps controlDeps) *TriggerControl {
	t := &TriggerControl{
		base:         newBase(id, model.TypeTrigger, nil, deps),
		options:      mergeMap(defaultTriggerOptions(), m.Options),
		intervalLast: make(map[string]time.Time),
		dayFired:     make(map[string]string),
	}
	t.actions = instance.NewActionList(t.env, m.Actions)
	t.condition = instance.NewFeedbackList(t.env, m.Feedbacks, true)
	for _, e := range m.Events {
		t.events = append(t.events, e.DeepCopy())
	}
	return t
}

// Model exports the trigger.
func (t *TriggerControl) Model() model.ControlModel {
	m := model.ControlModel{
		Type:      model.TypeTrigger,
		Options:   model.DeepCopyMap(t.options),
		Actions:   t.actions.Models(),
		Feedbacks: t.condition.Models(),
	}
	for _, e := range t.events {
		m.Events = append(m.Events, e.DeepCopy())
	}
	return m
}

// TypedOptions decodes the options.
func (t *TriggerControl) TypedOptions() TriggerOptions {
	var opts TriggerOptions
	if err := definition.DecodeOptions(t.options, &opts); err != nil {
		t.env.Logger.Warn("invalid trigger options", "control_id", t.id, "error", err)
	}
	return opts
}

// Enabled reports whether the trigger reacts to events.
func (t *TriggerControl) Enabled() bool { return t.TypedOptions().Enabled }

// SortOrder returns the trigger's position among triggers.
func (t *TriggerControl) SortOrder() int { return t.TypedOptions().SortOrder }

// LastExecuted returns when the actions last ran, or the zero time.
func (t *TriggerControl) LastExecuted() time.Time {
	ms := t.TypedOptions().LastExecuted
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// ActionList returns the trigger's action list. Both arguments are ignored.
func (t *TriggerControl) ActionList(string, string) *instance.ActionList { return t.actions }

// Feedbacks returns the condition list.
func (t *TriggerControl) Feedbacks() *instance.FeedbackList { return t.condition }

// Options returns a copy of the options.
func (t *TriggerControl) Options() map[string]any { return model.DeepCopyMap(t.options) }

// SetOption changes one option. Enabling resets event state so intervals
// start counting from the next tick.
func (t *TriggerControl) SetOption(key string, value any) bool {
	t.options[key] = value
	if key == "enabled" {
		t.resetEventState()
	}
	return true
}

func (t *TriggerControl) resetEventState() {
	clear(t.intervalLast)
	clear(t.dayFired)
	t.lastCondition = nil
}

// Events returns a copy of the events.
func (t *TriggerControl) Events() []model.EventModel {
	out := make([]model.EventModel, len(t.events))
	for i, e := range t.events {
		out[i] = e.DeepCopy()
	}
	return out
}

func (t *TriggerControl) eventIndex(eventID string) int {
	return slices.IndexFunc(t.events, func(e model.EventModel) bool { return e.ID == eventID })
}

// AddEvent appends an event, assigning an id when it has none.
func (t *TriggerControl) AddEvent(e model.EventModel) string {
	e = e.DeepCopy()
	if e.ID == "" {
		e.ID = model.GenerateID()
	}
	if e.Options == nil {
		e.Options = map[string]any{}
	}
	t.events = append(t.events, e)
	return e.ID
}

// RemoveEvent deletes an event.
func (t *TriggerControl) RemoveEvent(eventID string) bool {
	i := t.eventIndex(eventID)
	if i < 0 {
		return false
	}
	t.events = slices.Delete(t.events, i, i+1)
	delete(t.intervalLast, eventID)
	delete(t.dayFired, eventID)
	return true
}

// DuplicateEvent inserts a fresh-id copy after the event.
func (t *TriggerControl) DuplicateEvent(eventID string) (string, bool) {
	i := t.eventIndex(eventID)
	if i < 0 {
		return "", false
	}
	cpy := t.events[i].DeepCopy()
	cpy.ID = model.GenerateID()
	t.events = slices.Insert(t.events, i+1, cpy)
	return cpy.ID, true
}

// SetEventEnabled enables or disables an event.
func (t *TriggerControl) SetEventEnabled(eventID string, enabled bool) bool {
	i := t.eventIndex(eventID)
	if i < 0 {
		return false
	}
	t.events[i].Enabled = enabled
	delete(t.intervalLast, eventID)
	return true
}

// SetEventHeadline changes an event's description.
func (t *TriggerControl) SetEventHeadline(eventID, headline string) bool {
	i := t.eventIndex(eventID)
	if i < 0 {
		return false
	}
	t.events[i].Headline = headline
	return true
}

// SetEventOption changes one event option.
func (t *TriggerControl) SetEventOption(eventID, key string, value any) bool {
	i := t.eventIndex(eventID)
	if i < 0 {
		return false
	}
	if t.events[i].Options == nil {
		t.events[i].Options = map[string]any{}
	}
	t.events[i].Options[key] = value
	delete(t.intervalLast, eventID)
	delete(t.dayFired, eventID)
	return true
}

// ReorderEvent moves an event to index.
func (t *TriggerControl) ReorderEvent(eventID string, index int) bool {
	i := t.eventIndex(eventID)
	if i < 0 {
		return false
	}
	e := t.events[i]
	t.events = slices.Delete(t.events, i, i+1)
	index = max(0, min(index, len(t.events)))
	t.events = slices.Insert(t.events, index, e)
	return true
}

// evaluate reports whether e should run the actions. Ordinary events fire
// only while the condition holds; condition_true and condition_false fire on
// a change of the condition itself.
func (t *TriggerControl) evaluate(e events.Event, vars instance.Variables) bool {
	if !t.Enabled() {
		return false
	}
	fire := false
	for _, ev := range t.events {
		if ev.Enabled && t.matches(ev, e) {
			fire = true
		}
	}
	if fire && !t.condition.AllTrue(vars) {
		fire = false
	}
	if t.conditionEdge(vars) {
		fire = true
	}
	return fire
}

// conditionEdge records the condition and reports whether a condition event
// fires for the change. The first evaluation only records.
func (t *TriggerControl) conditionEdge(vars instance.Variables) bool {
	cur := t.condition.AllTrue(vars)
	prev := t.lastCondition
	t.lastCondition = &cur
	if prev == nil || *prev == cur {
		return false
	}
	want := definition.EventConditionFalse
	if cur {
		want = definition.EventConditionTrue
	}
	return slices.ContainsFunc(t.events, func(ev model.EventModel) bool {
		return ev.Enabled && ev.Type == want
	})
}

func (t *TriggerControl) matches(ev model.EventModel, e events.Event) bool {
	switch e := e.(type) {
	case events.Tick:
		switch ev.Type {
		case definition.EventInterval:
			return t.intervalDue(ev, e.Time)
		case definition.EventTimeOfDay:
			return t.timeOfDayDue(ev, e.Time)
		}
	case events.Startup:
		return ev.Type == definition.EventStartup
	case events.ControlPressed:
		if (ev.Type == definition.EventButtonPress && e.Pressed) || (ev.Type == definition.EventButtonDepress && !e.Pressed) {
			var opts controlFilterOptions
			_ = definition.DecodeOptions(ev.Options, &opts) //nolint:errcheck // zero value matches everything
			return opts.ControlID == "" || opts.ControlID == e.ControlID
		}
	case events.VariableChanged:
		if ev.Type == definition.EventVariableChanged {
			var opts variableFilterOptions
			_ = definition.DecodeOptions(ev.Options, &opts) //nolint:errcheck // zero value matches everything
			return opts.Variable == "" || opts.Variable == e.Name
		}
	}
	return false
}

func (t *TriggerControl) intervalDue(ev model.EventModel, now time.Time) bool {
	var opts intervalOptions
	if err := definition.DecodeOptions(ev.Options, &opts); err != nil || opts.Seconds <= 0 {
		return false
	}
	last, ok := t.intervalLast[ev.ID]
	if !ok {
		t.intervalLast[ev.ID] = now
		return false
	}
	if now.Sub(last) < time.Duration(opts.Seconds)*time.Second {
		return false
	}
	t.intervalLast[ev.ID] = now
	return true
}

func (t *TriggerControl) timeOfDayDue(ev model.EventModel, now time.Time) bool {
	var opts timeOfDayOptions
	if err := definition.DecodeOptions(ev.Options, &opts); err != nil {
		return false
	}
	if now.Format("15:04") != opts.Time {
		return false
	}
	if len(opts.Days) > 0 && !slices.Contains(opts.Days, int(now.Weekday())) {
		return false
	}
	day := now.Format(time.DateOnly)
	if t.dayFired[ev.ID] == day {
		return false
	}
	t.dayFired[ev.ID] = day
	return true
}

// execute runs the actions as a press would, without a location or surface.
func (t *TriggerControl) execute(ts time.Time, isTest bool) {
	t.options["lastExecuted"] = ts.UnixMilli()
	t.run.Execute(t.actions.Models(), model.RunExtras{ControlID: t.id, Timestamp: ts, IsTest: isTest})
}

func (t *TriggerControl) actionLists() []*instance.ActionList {
	return []*instance.ActionList{t.actions}
}

func (t *TriggerControl) feedbackLists() []*instance.FeedbackList {
	return []*instance.FeedbackList{t.condition}
}

func (t *TriggerControl) destroy() {
	t.run.AbortDelayed()
	t.condition.Cleanup()
	t.actions.Cleanup()
}

func (t *TriggerControl) subscribe(only string) []connection.Pending {
	return append(t.condition.Subscribe(true, only), t.actions.Subscribe(true, only)...)
}

func (t *TriggerControl) postProcessImport() []connection.Pending {
	return append(t.condition.PostProcessImport(), t.actions.PostProcessImport()...)
}
