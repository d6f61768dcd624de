package model

import (
	"fmt"
	"time"
)

// InternalConnection is the connection id of built-in logic.
const InternalConnection = "internal"

// Control variants.
const (
	TypeButton   = "button"
	TypePageUp   = "pageup"
	TypePageDown = "pagedown"
	TypePageNum  = "pagenum"
	TypeTrigger  = "trigger"
)

// Well-known set ids. Any other set id is a press duration in milliseconds.
const (
	SetDown        = "down"
	SetUp          = "up"
	SetRotateLeft  = "rotate_left"
	SetRotateRight = "rotate_right"
)

// Location addresses a grid slot. Pages are 1-based; rows and columns 0-based.
type Location struct {
	Page   int `json:"page"`
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d/%d/%d", l.Page, l.Row, l.Column)
}

// ActionModel is one configured action and its nested child groups.
type ActionModel struct {
	ID           string                   `json:"id"`
	ConnectionID string                   `json:"connectionId"`
	Action       string                   `json:"action"`
	Options      map[string]any           `json:"options"`
	Disabled     bool                     `json:"disabled,omitempty"`
	Headline     string                   `json:"headline,omitempty"`
	UpgradeIndex *int                     `json:"upgradeIndex,omitempty"`
	Children     map[string][]ActionModel `json:"children,omitempty"`
}

// IsInternal reports whether the action is built-in logic.
func (a ActionModel) IsInternal() bool {
	return a.ConnectionID == InternalConnection
}

// FeedbackModel is one configured feedback and its child feedbacks.
type FeedbackModel struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connectionId"`
	Type         string          `json:"type"`
	Options      map[string]any  `json:"options"`
	Disabled     bool            `json:"disabled,omitempty"`
	Headline     string          `json:"headline,omitempty"`
	IsInverted   bool            `json:"isInverted,omitempty"`
	Style        map[string]any  `json:"style,omitempty"`
	UpgradeIndex *int            `json:"upgradeIndex,omitempty"`
	Children     []FeedbackModel `json:"children,omitempty"`
}

// IsInternal reports whether the feedback is built-in logic.
func (f FeedbackModel) IsInternal() bool {
	return f.ConnectionID == InternalConnection
}

// EventModel is one trigger condition.
type EventModel struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Enabled  bool           `json:"enabled"`
	Headline string         `json:"headline,omitempty"`
	Options  map[string]any `json:"options"`
}

// SetModel is an action set within a step.
type SetModel struct {
	RunWhileHeld bool          `json:"runWhileHeld,omitempty"`
	Actions      []ActionModel `json:"actions"`
}

// StepModel is one stage of a multi-step button.
type StepModel struct {
	ID   string              `json:"id"`
	Name string              `json:"name,omitempty"`
	Sets map[string]SetModel `json:"sets"`
}

// ControlModel is the persisted form of a control.
//
// Buttons use Steps; triggers use Actions and Events. Location is set only
// for controls bound to the grid.
type ControlModel struct {
	Type      string          `json:"type"`
	Location  *Location       `json:"location,omitempty"`
	Options   map[string]any  `json:"options,omitempty"`
	Style     map[string]any  `json:"style,omitempty"`
	Feedbacks []FeedbackModel `json:"feedbacks,omitempty"`
	Steps     []StepModel     `json:"steps,omitempty"`
	Actions   []ActionModel   `json:"actions,omitempty"`
	Events    []EventModel    `json:"events,omitempty"`
}

// RunExtras describes why and where actions are being executed.
type RunExtras struct {
	ControlID string    `json:"controlId"`
	SurfaceID string    `json:"surfaceId,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	IsTest    bool      `json:"isTest,omitempty"`
}
