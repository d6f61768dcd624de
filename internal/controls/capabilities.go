package controls

import (
	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
	"github.com/nerrad567/gray-logic-controls/internal/model"
	"github.com/nerrad567/gray-logic-controls/internal/runner"
)

// Capability names used in errors.
const (
	CapActions    = "actions"
	CapFeedbacks  = "feedbacks"
	CapActionSets = "action sets"
	CapSteps      = "steps"
	CapEvents     = "events"
	CapOptions    = "options"
	CapStyle      = "style"
)

// Capabilities are fixed per variant.
type Capabilities struct {
	Actions    bool `json:"actions"`
	Feedbacks  bool `json:"feedbacks"`
	ActionSets bool `json:"actionSets"`
	Steps      bool `json:"steps"`
	Events     bool `json:"events"`
	Options    bool `json:"options"`
	Style      bool `json:"style"`
}

var variantCapabilities = map[string]Capabilities{
	model.TypeButton: {
		Actions: true, Feedbacks: true, ActionSets: true, Steps: true, Options: true, Style: true,
	},
	model.TypePageUp:   {},
	model.TypePageDown: {},
	model.TypePageNum:  {},
	model.TypeTrigger: {
		Actions: true, Feedbacks: true, Events: true, Options: true,
	},
}

// CapabilitiesOf returns the capabilities of a variant.
func CapabilitiesOf(variant string) (Capabilities, bool) {
	c, ok := variantCapabilities[variant]
	return c, ok
}

// IsBankVariant reports whether variant lives on the grid.
func IsBankVariant(variant string) bool {
	_, ok := variantCapabilities[variant]
	return ok && variant != model.TypeTrigger
}

// Control is implemented by every variant. The unexported methods close
// the set of variants to this package.
type Control interface {
	ID() string
	Type() string
	Capabilities() Capabilities
	Location() *model.Location
	Model() model.ControlModel

	setLocation(loc *model.Location)
	runner() *runner.Runner
	abortDelayed(skipUp bool) bool
	destroy()
	subscribe(only string) []connection.Pending
	postProcessImport() []connection.Pending
	actionLists() []*instance.ActionList
	feedbackLists() []*instance.FeedbackList
}

// ActionsControl is a control that owns action lists.
type ActionsControl interface {
	Control
	// ActionList returns a root list. Buttons address lists by step and
	// set; triggers have one list and ignore both.
	ActionList(stepID, setID string) *instance.ActionList
}

// FeedbacksControl is a control that owns a feedback list.
type FeedbacksControl interface {
	Control
	Feedbacks() *instance.FeedbackList
}

// ActionSetsControl is a control whose steps hold press-duration sets.
type ActionSetsControl interface {
	Control
	AddSet(stepID string) (string, bool)
	RemoveSet(stepID, setID string) bool
	RenameSet(stepID, oldID, newID string) bool
	SetRunWhileHeld(stepID, setID string, enabled bool) bool
}

// StepsControl is a control with multiple steps.
type StepsControl interface {
	Control
	AddStep() string
	RemoveStep(stepID string) bool
	DuplicateStep(stepID string) (string, bool)
	SwapSteps(a, b string) bool
	SelectStep(stepID string) bool
	RenameStep(stepID, name string) bool
	CurrentStep() string
}

// EventsControl is a control driven by trigger events.
type EventsControl interface {
	Control
	Events() []model.EventModel
	AddEvent(e model.EventModel) string
	RemoveEvent(eventID string) bool
	DuplicateEvent(eventID string) (string, bool)
	SetEventEnabled(eventID string, enabled bool) bool
	SetEventHeadline(eventID, headline string) bool
	SetEventOption(eventID, key string, value any) bool
	ReorderEvent(eventID string, index int) bool
}

// OptionsControl is a control with editable options.
type OptionsControl interface {
	Control
	Options() map[string]any
	SetOption(key string, value any) bool
}

// StyleControl is a control with an editable base style.
type StyleControl interface {
	Control
	Style() map[string]any
	SetStyle(diff map[string]any) bool
}
