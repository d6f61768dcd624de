package definition

// Feedback types.
const (
	FeedbackBoolean  = "boolean"
	FeedbackAdvanced = "advanced"
)

// Child group ids used by internal actions.
const (
	GroupDefault = "default"
	GroupElse    = "else"
)

// OptionSpec describes one configurable option.
type OptionSpec struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Label   string `json:"label,omitempty"`
	Default any    `json:"default,omitempty"`
}

// ActionDefinition describes an action kind offered by a connection.
type ActionDefinition struct {
	ConnectionID        string       `json:"connectionId,omitempty"`
	Kind                string       `json:"id"`
	Label               string       `json:"label"`
	Options             []OptionSpec `json:"options,omitempty"`
	SupportsChildGroups []string     `json:"supportsChildGroups,omitempty"`
	HasLearn            bool         `json:"hasLearn,omitempty"`
}

// SupportsChildGroup reports whether group is a declared child group.
func (d *ActionDefinition) SupportsChildGroup(group string) bool {
	if d == nil {
		return false
	}
	for _, g := range d.SupportsChildGroups {
		if g == group {
			return true
		}
	}
	return false
}

// FeedbackDefinition describes a feedback kind offered by a connection.
type FeedbackDefinition struct {
	ConnectionID           string         `json:"connectionId,omitempty"`
	Kind                   string         `json:"id"`
	Label                  string         `json:"label"`
	Type                   string         `json:"type"`
	Options                []OptionSpec   `json:"options,omitempty"`
	DefaultStyle           map[string]any `json:"style,omitempty"`
	SupportsChildFeedbacks bool           `json:"supportsChildFeedbacks,omitempty"`
	HasLearn               bool           `json:"hasLearn,omitempty"`
}

// IsBoolean reports whether the feedback produces a boolean value.
func (d *FeedbackDefinition) IsBoolean() bool {
	return d != nil && d.Type == FeedbackBoolean
}

// EventDefinition describes a trigger condition type.
type EventDefinition struct {
	Type    string       `json:"type"`
	Label   string       `json:"label"`
	Options []OptionSpec `json:"options,omitempty"`
}

func defaultOptions(specs []OptionSpec) map[string]any {
	opts := make(map[string]any, len(specs))
	for _, s := range specs {
		opts[s.ID] = s.Default
	}
	return opts
}

func (d ActionDefinition) clone() *ActionDefinition {
	cpy := d
	cpy.Options = append([]OptionSpec(nil), d.Options...)
	cpy.SupportsChildGroups = append([]string(nil), d.SupportsChildGroups...)
	return &cpy
}

func (d FeedbackDefinition) clone() *FeedbackDefinition {
	cpy := d
	cpy.Options = append([]OptionSpec(nil), d.Options...)
	if d.DefaultStyle != nil {
		cpy.DefaultStyle = make(map[string]any, len(d.DefaultStyle))
		for k, v := range d.DefaultStyle {
			cpy.DefaultStyle[k] = v
		}
	}
	return &cpy
}
