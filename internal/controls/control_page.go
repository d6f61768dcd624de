package controls

import (
	"github.com/nerrad567/gray-logic-controls/internal/connection"
	"github.com/nerrad567/gray-logic-controls/internal/instance"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// PageChange is broadcast on ChannelPage when a page control is pressed.
type PageChange struct {
	SurfaceID string `json:"surfaceId,omitempty"`
	Delta     int    `json:"delta,omitempty"`
	Home      bool   `json:"home,omitempty"`
}

// PageControl is a page-up, page-down or page-number button. It has no
// configurable behaviour.
type PageControl struct {
	base
}

func newPageControl(id string, m model.ControlModel, deps controlDeps) *PageControl {
	return &PageControl{base: newBase(id, m.Type, m.Location, deps)}
}

// Model exports the control.
func (p *PageControl) Model() model.ControlModel {
	return model.ControlModel{Type: p.variant, Location: p.Location()}
}

// pageChange returns what a press on the control asks the surface to do.
func (p *PageControl) pageChange(surfaceID string) PageChange {
	switch p.variant {
	case model.TypePageUp:
		return PageChange{SurfaceID: surfaceID, Delta: 1}
	case model.TypePageDown:
		return PageChange{SurfaceID: surfaceID, Delta: -1}
	default:
		return PageChange{SurfaceID: surfaceID, Home: true}
	}
}

func (p *PageControl) destroy()                                { p.run.AbortDelayed() }
func (p *PageControl) subscribe(string) []connection.Pending   { return nil }
func (p *PageControl) postProcessImport() []connection.Pending { return nil }
func (p *PageControl) actionLists() []*instance.ActionList     { return nil }
func (p *PageControl) feedbackLists() []*instance.FeedbackList { return nil }
