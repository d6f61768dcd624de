package model

// DeepCopy returns an independent copy of the action and its children.
func (a ActionModel) DeepCopy() ActionModel {
	cpy := a
	cpy.Options = DeepCopyMap(a.Options)
	cpy.UpgradeIndex = cloneIntPtr(a.UpgradeIndex)
	if a.Children != nil {
		cpy.Children = make(map[string][]ActionModel, len(a.Children))
		for group, list := range a.Children {
			cpy.Children[group] = CopyActions(list)
		}
	}
	return cpy
}

// WithFreshIDs returns a deep copy in which the action and every descendant
// has a newly generated id.
func (a ActionModel) WithFreshIDs() ActionModel {
	cpy := a.DeepCopy()
	cpy.ID = GenerateID()
	for group, list := range cpy.Children {
		for i := range list {
			list[i] = list[i].WithFreshIDs()
		}
		cpy.Children[group] = list
	}
	return cpy
}

// DeepCopy returns an independent copy of the feedback and its children.
func (f FeedbackModel) DeepCopy() FeedbackModel {
	cpy := f
	cpy.Options = DeepCopyMap(f.Options)
	cpy.Style = DeepCopyMap(f.Style)
	cpy.UpgradeIndex = cloneIntPtr(f.UpgradeIndex)
	cpy.Children = CopyFeedbacks(f.Children)
	return cpy
}

// WithFreshIDs returns a deep copy with new ids at every depth.
func (f FeedbackModel) WithFreshIDs() FeedbackModel {
	cpy := f.DeepCopy()
	cpy.ID = GenerateID()
	for i := range cpy.Children {
		cpy.Children[i] = cpy.Children[i].WithFreshIDs()
	}
	return cpy
}

// DeepCopy returns an independent copy of the event.
func (e EventModel) DeepCopy() EventModel {
	cpy := e
	cpy.Options = DeepCopyMap(e.Options)
	return cpy
}

// DeepCopy returns an independent copy of the control model.
func (m ControlModel) DeepCopy() ControlModel {
	cpy := m
	if m.Location != nil {
		loc := *m.Location
		cpy.Location = &loc
	}
	cpy.Options = DeepCopyMap(m.Options)
	cpy.Style = DeepCopyMap(m.Style)
	cpy.Feedbacks = CopyFeedbacks(m.Feedbacks)
	cpy.Actions = CopyActions(m.Actions)
	if m.Events != nil {
		cpy.Events = make([]EventModel, len(m.Events))
		for i, e := range m.Events {
			cpy.Events[i] = e.DeepCopy()
		}
	}
	if m.Steps != nil {
		cpy.Steps = make([]StepModel, len(m.Steps))
		for i, step := range m.Steps {
			cpy.Steps[i] = StepModel{ID: step.ID, Name: step.Name, Sets: make(map[string]SetModel, len(step.Sets))}
			for setID, set := range step.Sets {
				cpy.Steps[i].Sets[setID] = SetModel{RunWhileHeld: set.RunWhileHeld, Actions: CopyActions(set.Actions)}
			}
		}
	}
	return cpy
}

// WithFreshIDs returns a deep copy in which every action, feedback and event
// id is regenerated. Step and set ids are local to the control and kept.
func (m ControlModel) WithFreshIDs() ControlModel {
	cpy := m.DeepCopy()
	for i := range cpy.Feedbacks {
		cpy.Feedbacks[i] = cpy.Feedbacks[i].WithFreshIDs()
	}
	for i := range cpy.Actions {
		cpy.Actions[i] = cpy.Actions[i].WithFreshIDs()
	}
	for i := range cpy.Events {
		cpy.Events[i].ID = GenerateID()
	}
	for _, step := range cpy.Steps {
		for setID, set := range step.Sets {
			for i := range set.Actions {
				set.Actions[i] = set.Actions[i].WithFreshIDs()
			}
			step.Sets[setID] = set
		}
	}
	return cpy
}

// InstanceIDs returns the id of every action, feedback and event in the
// model, at every depth.
func (m ControlModel) InstanceIDs() []string {
	var ids []string
	var walkActions func([]ActionModel)
	walkActions = func(list []ActionModel) {
		for _, a := range list {
			ids = append(ids, a.ID)
			for _, children := range a.Children {
				walkActions(children)
			}
		}
	}
	var walkFeedbacks func([]FeedbackModel)
	walkFeedbacks = func(list []FeedbackModel) {
		for _, f := range list {
			ids = append(ids, f.ID)
			walkFeedbacks(f.Children)
		}
	}

	walkFeedbacks(m.Feedbacks)
	walkActions(m.Actions)
	for _, step := range m.Steps {
		for _, set := range step.Sets {
			walkActions(set.Actions)
		}
	}
	for _, e := range m.Events {
		ids = append(ids, e.ID)
	}
	return ids
}

// CopyActions deep-copies a list of actions. nil stays nil.
func CopyActions(list []ActionModel) []ActionModel {
	if list == nil {
		return nil
	}
	cpy := make([]ActionModel, len(list))
	for i, a := range list {
		cpy[i] = a.DeepCopy()
	}
	return cpy
}

// CopyFeedbacks deep-copies a list of feedbacks. nil stays nil.
func CopyFeedbacks(list []FeedbackModel) []FeedbackModel {
	if list == nil {
		return nil
	}
	cpy := make([]FeedbackModel, len(list))
	for i, f := range list {
		cpy[i] = f.DeepCopy()
	}
	return cpy
}

// DeepCopyMap recursively copies an option map.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
