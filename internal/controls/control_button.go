package controls

import (
	"sort"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/definition"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Step progression modes.
const (
	ProgressionAuto   = "auto"
	ProgressionManual = "manual"
)

const defaultDurationStep = 1000 // ms added for each new duration set

// ButtonOptions are the typed button options.
type ButtonOptions struct {
	StepProgression string `mapstructure:"stepProgression"`
	RotaryActions   bool   `mapstructure:"rotaryActions"`
}

func defaultButtonOptions() map[string]any {
	return map[string]any{
		"stepProgression": ProgressionAuto,
		"rotaryActions":   false,
	}
}

func defaultButtonStyle() map[string]any {
	return map[string]any{
		"text":        "",
		"size":        "auto",
		"alignment":   "center:center",
		"color":       0xffffff,
		"bgcolor":     0x000000,
		"show_topbar": "default",
	}
}

type buttonSet struct {
	runWhileHeld bool
	actions      *instance.ActionList
}

type buttonStep struct {
	id   string
	name string
	sets map[string]*buttonSet
}

// durationSet is a press-duration set ordered by its threshold.
type durationSet struct {
	id    string
	after time.Duration
	set   *buttonSet
}

// durations returns the step's press-duration sets, shortest first.
func (s *buttonStep) durations() []durationSet {
	var out []durationSet
	for id, set := range s.sets {
		if ms, ok := parseDuration(id); ok {
			out = append(out, durationSet{id: id, after: time.Duration(ms) * time.Millisecond, set: set})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].after < out[j].after })
	return out
}

// releaseSet picks what runs on release after being held for held: the
// longest duration set not exceeding it, else the up set.
func (s *buttonStep) releaseSet(held time.Duration) *buttonSet {
	var chosen *buttonSet
	for _, d := range s.durations() {
		if d.after <= held {
			chosen = d.set
		}
	}
	if chosen != nil {
		return chosen
	}
	return s.sets[model.SetUp]
}

func (s *buttonStep) setIDs() []string {
	ids := make([]string, 0, len(s.sets))
	for id := range s.sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func parseDuration(setID string) (int, bool) {
	ms, err := strconv.Atoi(setID)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return ms, true
}

// ButtonControl is a normal bank button with steps, sets and feedbacks.
type ButtonControl struct {
	base
	holdTick time.Duration

	options   map[string]any
	style     map[string]any
	feedbacks *instance.FeedbackList
	steps     []*buttonStep
	current   int

	pressed   bool
	pressedAt time.Time
	pressGen  uint64
	skipUp    bool
}

func newButton(id string, m model.ControlModel, deps controlDeps) *ButtonControl {
	b := &ButtonControl{
		base:     newBase(id, model.TypeButton, m.Location, deps),
		holdTick: deps.holdTick,
		options:  mergeMap(defaultButtonOptions(), m.Options),
		style:    mergeMap(defaultButtonStyle(), m.Style),
	}
	b.feedbacks = instance.NewFeedbackList(b.env, m.Feedbacks, false)
	for _, sm := range m.Steps {
		step := &buttonStep{id: sm.ID, name: sm.Name, sets: make(map[string]*buttonSet, len(sm.Sets))}
		for setID, set := range sm.Sets {
			step.sets[setID] = &buttonSet{runWhileHeld: set.RunWhileHeld, actions: instance.NewActionList(b.env, set.Actions)}
		}
		b.steps = append(b.steps, step)
	}
	if len(b.steps) == 0 {
		b.steps = append(b.steps, &buttonStep{id: "0", sets: map[string]*buttonSet{}})
	}
	for _, s := range b.steps {
		b.ensureSets(s)
	}
	return b
}

// ensureSets adds the sets every step must have.
func (b *ButtonControl) ensureSets(s *buttonStep) {
	required := []string{model.SetDown, model.SetUp}
	if b.typedOptions().RotaryActions {
		required = append(required, model.SetRotateLeft, model.SetRotateRight)
	}
	for _, id := range required {
		if s.sets[id] == nil {
			s.sets[id] = &buttonSet{actions: instance.NewActionList(b.env, nil)}
		}
	}
}

func (b *ButtonControl) typedOptions() ButtonOptions {
	var opts ButtonOptions
	if err := definition.DecodeOptions(b.options, &opts); err != nil {
		b.env.Logger.Warn("invalid button options", "control_id", b.id, "error", err)
	}
	return opts
}

// Model exports the button.
func (b *ButtonControl) Model() model.ControlModel {
	m := model.ControlModel{
		Type:      model.TypeButton,
		Location:  b.Location(),
		Options:   model.DeepCopyMap(b.options),
		Style:     model.DeepCopyMap(b.style),
		Feedbacks: b.feedbacks.Models(),
	}
	for _, s := range b.steps {
		sm := model.StepModel{ID: s.id, Name: s.name, Sets: make(map[string]model.SetModel, len(s.sets))}
		for id, set := range s.sets {
			sm.Sets[id] = model.SetModel{RunWhileHeld: set.runWhileHeld, Actions: set.actions.Models()}
		}
		m.Steps = append(m.Steps, sm)
	}
	return m
}

// ActionList returns the set's list. An empty stepID means the current step.
func (b *ButtonControl) ActionList(stepID, setID string) *instance.ActionList {
	s := b.step(stepID)
	if s == nil || s.sets[setID] == nil {
		return nil
	}
	return s.sets[setID].actions
}

// Feedbacks returns the feedback list.
func (b *ButtonControl) Feedbacks() *instance.FeedbackList { return b.feedbacks }

// Options returns a copy of the options.
func (b *ButtonControl) Options() map[string]any { return model.DeepCopyMap(b.options) }

// SetOption changes one option. Turning rotary actions on adds the rotate
// sets to every step.
func (b *ButtonControl) SetOption(key string, value any) bool {
	b.options[key] = value
	for _, s := range b.steps {
		b.ensureSets(s)
	}
	return true
}

// Style returns a copy of the base style.
func (b *ButtonControl) Style() map[string]any { return model.DeepCopyMap(b.style) }

// SetStyle merges diff into the base style. A nil value removes the key.
func (b *ButtonControl) SetStyle(diff map[string]any) bool {
	if len(diff) == 0 {
		return false
	}
	for k, v := range diff {
		if v == nil {
			delete(b.style, k)
			continue
		}
		b.style[k] = v
	}
	return true
}

// Render layers active feedbacks over the base style.
func (b *ButtonControl) Render(vars instance.Variables) map[string]any {
	out := b.feedbacks.Style(b.style, vars)
	out["pushed"] = b.pressed
	out["step"] = b.current
	out["steps"] = len(b.steps)
	return out
}

// Pressed reports whether the button is held down.
func (b *ButtonControl) Pressed() bool { return b.pressed }

func (b *ButtonControl) step(stepID string) *buttonStep {
	if stepID == "" {
		return b.steps[b.current]
	}
	for _, s := range b.steps {
		if s.id == stepID {
			return s
		}
	}
	return nil
}

func (b *ButtonControl) stepIndex(stepID string) int {
	for i, s := range b.steps {
		if s.id == stepID {
			return i
		}
	}
	return -1
}

// CurrentStep returns the id of the current step.
func (b *ButtonControl) CurrentStep() string { return b.steps[b.current].id }

// StepIDs returns every step id in order.
func (b *ButtonControl) StepIDs() []string {
	ids := make([]string, len(b.steps))
	for i, s := range b.steps {
		ids[i] = s.id
	}
	return ids
}

func (b *ButtonControl) nextStepID() string {
	next := 0
	for _, s := range b.steps {
		if n, err := strconv.Atoi(s.id); err == nil && n >= next {
			next = n + 1
		}
	}
	return strconv.Itoa(next)
}

// AddStep appends an empty step.
func (b *ButtonControl) AddStep() string {
	s := &buttonStep{id: b.nextStepID(), sets: map[string]*buttonSet{}}
	b.ensureSets(s)
	b.steps = append(b.steps, s)
	return s.id
}

// RemoveStep deletes a step and its actions. The last step cannot be removed.
func (b *ButtonControl) RemoveStep(stepID string) bool {
	idx := b.stepIndex(stepID)
	if idx < 0 || len(b.steps) == 1 {
		return false
	}
	for _, set := range b.steps[idx].sets {
		set.actions.Cleanup()
	}
	b.steps = append(b.steps[:idx], b.steps[idx+1:]...)
	if b.current >= len(b.steps) {
		b.current = len(b.steps) - 1
	} else if b.current > idx {
		b.current--
	}
	return true
}

// DuplicateStep inserts a fresh-id copy of a step after it.
func (b *ButtonControl) DuplicateStep(stepID string) (string, bool) {
	idx := b.stepIndex(stepID)
	if idx < 0 {
		return "", false
	}
	src := b.steps[idx]
	cpy := &buttonStep{id: b.nextStepID(), name: src.name, sets: make(map[string]*buttonSet, len(src.sets))}
	for id, set := range src.sets {
		list := set.actions.Clone(b.env)
		list.Subscribe(true, "")
		cpy.sets[id] = &buttonSet{runWhileHeld: set.runWhileHeld, actions: list}
	}
	b.steps = append(b.steps, nil)
	copy(b.steps[idx+2:], b.steps[idx+1:])
	b.steps[idx+1] = cpy
	return cpy.id, true
}

// SwapSteps exchanges the positions of two steps.
func (b *ButtonControl) SwapSteps(a, c string) bool {
	i, j := b.stepIndex(a), b.stepIndex(c)
	if i < 0 || j < 0 || i == j {
		return false
	}
	b.steps[i], b.steps[j] = b.steps[j], b.steps[i]
	switch b.current {
	case i:
		b.current = j
	case j:
		b.current = i
	}
	return true
}

// SelectStep makes a step current.
func (b *ButtonControl) SelectStep(stepID string) bool {
	idx := b.stepIndex(stepID)
	if idx < 0 {
		return false
	}
	b.current = idx
	return true
}

// RenameStep sets a step's display name.
func (b *ButtonControl) RenameStep(stepID, name string) bool {
	s := b.step(stepID)
	if s == nil || stepID == "" {
		return false
	}
	s.name = name
	return true
}

// AddSet adds a press-duration set one second longer than the longest.
func (b *ButtonControl) AddSet(stepID string) (string, bool) {
	s := b.step(stepID)
	if s == nil {
		return "", false
	}
	next := defaultDurationStep
	if ds := s.durations(); len(ds) > 0 {
		next = int(ds[len(ds)-1].after/time.Millisecond) + defaultDurationStep
	}
	id := strconv.Itoa(next)
	s.sets[id] = &buttonSet{actions: instance.NewActionList(b.env, nil)}
	return id, true
}

// RemoveSet deletes a press-duration set.
func (b *ButtonControl) RemoveSet(stepID, setID string) bool {
	s := b.step(stepID)
	if s == nil {
		return false
	}
	set := s.sets[setID]
	if _, ok := parseDuration(setID); !ok || set == nil {
		return false
	}
	set.actions.Cleanup()
	delete(s.sets, setID)
	return true
}

// RenameSet changes the threshold of a press-duration set.
func (b *ButtonControl) RenameSet(stepID, oldID, newID string) bool {
	s := b.step(stepID)
	if s == nil {
		return false
	}
	_, oldOK := parseDuration(oldID)
	ms, newOK := parseDuration(newID)
	if !oldOK || !newOK || s.sets[oldID] == nil {
		return false
	}
	newID = strconv.Itoa(ms)
	if _, taken := s.sets[newID]; taken {
		return false
	}
	s.sets[newID] = s.sets[oldID]
	delete(s.sets, oldID)
	return true
}

// SetRunWhileHeld toggles repeat-while-held on the down set or a duration set.
func (b *ButtonControl) SetRunWhileHeld(stepID, setID string, enabled bool) bool {
	s := b.step(stepID)
	if s == nil || s.sets[setID] == nil {
		return false
	}
	if _, ok := parseDuration(setID); !ok && setID != model.SetDown {
		return false
	}
	s.sets[setID].runWhileHeld = enabled
	return true
}

// press drives the press state machine. It reports whether the state changed.
func (b *ButtonControl) press(pressed bool, extras model.RunExtras) bool {
	s := b.steps[b.current]
	if pressed {
		if b.pressed {
			return false
		}
		b.pressed = true
		b.pressedAt = extras.Timestamp
		b.pressGen++
		gen := b.pressGen

		if down := s.sets[model.SetDown]; down != nil {
			if down.runWhileHeld {
				b.run.StartHeld(model.SetDown, down.actions.Models(), extras, b.holdTick)
			} else {
				b.run.Execute(down.actions.Models(), extras)
			}
		}
		for _, d := range s.durations() {
			d := d
			if !d.set.runWhileHeld {
				continue
			}
			b.run.After(d.after, func() {
				if b.pressed && b.pressGen == gen {
					b.run.StartHeld(d.id, d.set.actions.Models(), extras, b.holdTick)
				}
			})
		}
		return true
	}

	if !b.pressed {
		return false
	}
	b.pressed = false
	b.run.StopHeld()
	if b.skipUp {
		b.skipUp = false
	} else if set := s.releaseSet(extras.Timestamp.Sub(b.pressedAt)); set != nil && !set.runWhileHeld {
		b.run.Execute(set.actions.Models(), extras)
	}
	if b.typedOptions().StepProgression != ProgressionManual && len(b.steps) > 1 {
		b.current = (b.current + 1) % len(b.steps)
	}
	return true
}

// rotate runs a rotate set when rotary actions are on.
func (b *ButtonControl) rotate(right bool, extras model.RunExtras) bool {
	if !b.typedOptions().RotaryActions {
		return false
	}
	setID := model.SetRotateLeft
	if right {
		setID = model.SetRotateRight
	}
	set := b.steps[b.current].sets[setID]
	if set == nil {
		return false
	}
	b.run.Execute(set.actions.Models(), extras)
	return true
}

func (b *ButtonControl) abortDelayed(skipUp bool) bool {
	aborted := b.run.AbortDelayed()
	if skipUp && b.pressed {
		b.skipUp = true
	}
	return aborted
}

func (b *ButtonControl) actionLists() []*instance.ActionList {
	var lists []*instance.ActionList
	for _, s := range b.steps {
		for _, id := range s.setIDs() {
			lists = append(lists, s.sets[id].actions)
		}
	}
	return lists
}

func (b *ButtonControl) feedbackLists() []*instance.FeedbackList {
	return []*instance.FeedbackList{b.feedbacks}
}

func (b *ButtonControl) destroy() {
	b.run.AbortDelayed()
	b.feedbacks.Cleanup()
	for _, l := range b.actionLists() {
		l.Cleanup()
	}
}

func (b *ButtonControl) subscribe(only string) []connection.Pending {
	pending := b.feedbacks.Subscribe(true, only)
	for _, l := range b.actionLists() {
		pending = append(pending, l.Subscribe(true, only)...)
	}
	return pending
}

func (b *ButtonControl) postProcessImport() []connection.Pending {
	pending := b.feedbacks.PostProcessImport()
	for _, l := range b.actionLists() {
		pending = append(pending, l.PostProcessImport()...)
	}
	return pending
}
