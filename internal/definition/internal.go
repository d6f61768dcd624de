package definition

import "github.com/nerrad567/gray-logic-controls/internal/model"

// Internal action kinds.
const (
	ActionWait          = "wait"
	ActionGroup         = "action_group"
	ActionLogicIf       = "logic_if"
	ActionSetVariable   = "set_variable"
	ActionButtonPress   = "button_press"
	ActionButtonRelease = "button_release"
	ActionAbortDelayed  = "abort_delayed"
)

// Internal feedback kinds.
const (
	FeedbackLogicAnd      = "logic_and"
	FeedbackLogicOr       = "logic_or"
	FeedbackVariableValue = "variable_value"
)

// Comparison operators for logic_if and variable_value.
const (
	OpEqual        = "eq"
	OpNotEqual     = "ne"
	OpGreaterThan  = "gt"
	OpLessThan     = "lt"
	OpGreaterEqual = "ge"
	OpLessEqual    = "le"
)

// WaitOptions configures the wait action.
type WaitOptions struct {
	Time int `mapstructure:"time"` // milliseconds
}

// CompareOptions configures logic_if and variable_value.
type CompareOptions struct {
	Variable string `mapstructure:"variable"`
	Op       string `mapstructure:"op"`
	Value    any    `mapstructure:"value"`
}

// SetVariableOptions configures set_variable.
type SetVariableOptions struct {
	Name  string `mapstructure:"name"`
	Value any    `mapstructure:"value"`
}

// ControlTargetOptions configures button_press, button_release and
// abort_delayed. An empty ControlID targets the control running the action.
type ControlTargetOptions struct {
	ControlID string `mapstructure:"controlId"`
	SkipUp    bool   `mapstructure:"skipUp"`
}

var compareOptionSpecs = []OptionSpec{
	{ID: "variable", Type: "textinput", Label: "Variable", Default: ""},
	{ID: "op", Type: "dropdown", Label: "Comparison", Default: OpEqual},
	{ID: "value", Type: "textinput", Label: "Value", Default: ""},
}

func internalActions() []ActionDefinition {
	return []ActionDefinition{
		{Kind: ActionWait, Label: "Wait", Options: []OptionSpec{
			{ID: "time", Type: "number", Label: "Time (ms)", Default: 1000},
		}},
		{Kind: ActionGroup, Label: "Action group", SupportsChildGroups: []string{GroupDefault}},
		{Kind: ActionLogicIf, Label: "If", Options: compareOptionSpecs, SupportsChildGroups: []string{GroupDefault, GroupElse}},
		{Kind: ActionSetVariable, Label: "Set variable", Options: []OptionSpec{
			{ID: "name", Type: "textinput", Label: "Variable", Default: ""},
			{ID: "value", Type: "textinput", Label: "Value", Default: ""},
		}},
		{Kind: ActionButtonPress, Label: "Press button", Options: []OptionSpec{
			{ID: "controlId", Type: "textinput", Label: "Control", Default: ""},
		}},
		{Kind: ActionButtonRelease, Label: "Release button", Options: []OptionSpec{
			{ID: "controlId", Type: "textinput", Label: "Control", Default: ""},
		}},
		{Kind: ActionAbortDelayed, Label: "Abort delayed actions", Options: []OptionSpec{
			{ID: "controlId", Type: "textinput", Label: "Control", Default: ""},
			{ID: "skipUp", Type: "checkbox", Label: "Skip release actions", Default: false},
		}},
	}
}

func internalFeedbacks() []FeedbackDefinition {
	return []FeedbackDefinition{
		{Kind: FeedbackLogicAnd, Label: "All true", Type: FeedbackBoolean, SupportsChildFeedbacks: true,
			DefaultStyle: map[string]any{"bgcolor": 0x00cc00}},
		{Kind: FeedbackLogicOr, Label: "Any true", Type: FeedbackBoolean, SupportsChildFeedbacks: true,
			DefaultStyle: map[string]any{"bgcolor": 0x00cc00}},
		{Kind: FeedbackVariableValue, Label: "Variable value", Type: FeedbackBoolean, Options: compareOptionSpecs,
			DefaultStyle: map[string]any{"bgcolor": 0xcc0000}},
	}
}

// Trigger event types.
const (
	EventInterval         = "interval"
	EventTimeOfDay        = "timeofday"
	EventStartup          = "startup"
	EventButtonPress      = "button_press"
	EventButtonDepress    = "button_depress"
	EventVariableChanged  = "variable_changed"
	EventConditionTrue    = "condition_true"
	EventConditionFalse   = "condition_false"
	defaultIntervalSecond = 10
)

func eventDefinitions() []EventDefinition {
	return []EventDefinition{
		{Type: EventInterval, Label: "Time interval", Options: []OptionSpec{
			{ID: "seconds", Type: "number", Label: "Every (seconds)", Default: defaultIntervalSecond},
		}},
		{Type: EventTimeOfDay, Label: "Time of day", Options: []OptionSpec{
			{ID: "time", Type: "textinput", Label: "Time (HH:MM)", Default: "08:00"},
			{ID: "days", Type: "multidropdown", Label: "Days", Default: []any{0, 1, 2, 3, 4, 5, 6}},
		}},
		{Type: EventStartup, Label: "On startup"},
		{Type: EventButtonPress, Label: "On any button press", Options: []OptionSpec{
			{ID: "controlId", Type: "textinput", Label: "Only control", Default: ""},
		}},
		{Type: EventButtonDepress, Label: "On any button release", Options: []OptionSpec{
			{ID: "controlId", Type: "textinput", Label: "Only control", Default: ""},
		}},
		{Type: EventVariableChanged, Label: "On variable change", Options: []OptionSpec{
			{ID: "variable", Type: "textinput", Label: "Variable", Default: ""},
		}},
		{Type: EventConditionTrue, Label: "On condition becoming true"},
		{Type: EventConditionFalse, Label: "On condition becoming false"},
	}
}

// newInternalAction builds an internal action with default options.
func newInternalAction(def *ActionDefinition) *model.ActionModel {
	idx := latestActionUpgrade()
	m := &model.ActionModel{
		ID:           model.GenerateID(),
		ConnectionID: model.InternalConnection,
		Action:       def.Kind,
		Options:      defaultOptions(def.Options),
		UpgradeIndex: &idx,
	}
	if len(def.SupportsChildGroups) > 0 {
		m.Children = make(map[string][]model.ActionModel, len(def.SupportsChildGroups))
		for _, g := range def.SupportsChildGroups {
			m.Children[g] = []model.ActionModel{}
		}
	}
	return m
}
