package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-controls/internal/controls"
)

// patch applies each present field of an update request in turn and
// stops at the first failure.
type patch []func() (bool, error)

func (p patch) apply() (bool, error) {
	for _, fn := range p {
		ok, err := fn()
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// ─── Actions ─────────────────────────────────────────────────────────

type actionAddRequest struct {
	controls.ActionListRef
	ConnectionID string `json:"connectionId"`
	Action       string `json:"action"`
}

func (s *Server) handleActionAdd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req actionAddRequest
	if !decode(w, r, &req) {
		return
	}
	actionID, err := s.controller.ActionAdd(id, req.ActionListRef, req.ConnectionID, req.Action)
	s.replyID(w, id, actionID, err)
}

type actionUpdateRequest struct {
	Enabled      *bool   `json:"enabled"`
	Headline     *string `json:"headline"`
	ConnectionID *string `json:"connectionId"`
}

func (s *Server) handleActionUpdate(w http.ResponseWriter, r *http.Request) {
	id, actionID := chi.URLParam(r, "id"), chi.URLParam(r, "actionID")
	var req actionUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	var p patch
	if req.Enabled != nil {
		p = append(p, func() (bool, error) { return s.controller.ActionSetEnabled(id, actionID, *req.Enabled) })
	}
	if req.Headline != nil {
		p = append(p, func() (bool, error) { return s.controller.ActionSetHeadline(id, actionID, *req.Headline) })
	}
	if req.ConnectionID != nil {
		p = append(p, func() (bool, error) { return s.controller.ActionSetConnection(id, actionID, *req.ConnectionID) })
	}
	ok, err := p.apply()
	s.reply(w, id, ok, err)
}

func (s *Server) handleActionRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.ActionRemove(id, chi.URLParam(r, "actionID"))
	s.reply(w, id, ok, err)
}

func (s *Server) handleActionDuplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, err := s.controller.ActionDuplicate(id, chi.URLParam(r, "actionID"))
	s.replyID(w, id, newID, err)
}

type actionMoveRequest struct {
	Dest  controls.ActionListRef `json:"dest"`
	Index int                    `json:"index"`
}

func (s *Server) handleActionMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req actionMoveRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.ActionMove(id, chi.URLParam(r, "actionID"), req.Dest, req.Index)
	s.reply(w, id, ok, err)
}

func (s *Server) handleActionSetOption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.ActionSetOption(id, chi.URLParam(r, "actionID"), chi.URLParam(r, "key"), req.Value)
	s.reply(w, id, ok, err)
}

type optionsRequest struct {
	Options map[string]any `json:"options"`
}

// handleActionSetOptions replaces every option of an action.
func (s *Server) handleActionSetOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req optionsRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.ActionSetOptions(id, chi.URLParam(r, "actionID"), req.Options)
	s.reply(w, id, ok, err)
}

// handleActionLearn blocks until the connection answers or the learn
// times out.
func (s *Server) handleActionLearn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.ActionLearn(r.Context(), id, chi.URLParam(r, "actionID"))
	s.reply(w, id, ok, err)
}

// ─── Feedbacks ───────────────────────────────────────────────────────

type feedbackAddRequest struct {
	ParentID     string `json:"parentId"`
	ConnectionID string `json:"connectionId"`
	Type         string `json:"type"`
}

func (s *Server) handleFeedbackAdd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req feedbackAddRequest
	if !decode(w, r, &req) {
		return
	}
	feedbackID, err := s.controller.FeedbackAdd(id, req.ParentID, req.ConnectionID, req.Type)
	s.replyID(w, id, feedbackID, err)
}

type feedbackUpdateRequest struct {
	Enabled      *bool   `json:"enabled"`
	Headline     *string `json:"headline"`
	ConnectionID *string `json:"connectionId"`
	Inverted     *bool   `json:"isInverted"`
}

func (s *Server) handleFeedbackUpdate(w http.ResponseWriter, r *http.Request) {
	id, feedbackID := chi.URLParam(r, "id"), chi.URLParam(r, "feedbackID")
	var req feedbackUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	var p patch
	if req.Enabled != nil {
		p = append(p, func() (bool, error) { return s.controller.FeedbackSetEnabled(id, feedbackID, *req.Enabled) })
	}
	if req.Headline != nil {
		p = append(p, func() (bool, error) { return s.controller.FeedbackSetHeadline(id, feedbackID, *req.Headline) })
	}
	if req.ConnectionID != nil {
		p = append(p, func() (bool, error) { return s.controller.FeedbackSetConnection(id, feedbackID, *req.ConnectionID) })
	}
	if req.Inverted != nil {
		p = append(p, func() (bool, error) { return s.controller.FeedbackSetInverted(id, feedbackID, *req.Inverted) })
	}
	ok, err := p.apply()
	s.reply(w, id, ok, err)
}

func (s *Server) handleFeedbackRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.FeedbackRemove(id, chi.URLParam(r, "feedbackID"))
	s.reply(w, id, ok, err)
}

func (s *Server) handleFeedbackDuplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, err := s.controller.FeedbackDuplicate(id, chi.URLParam(r, "feedbackID"))
	s.replyID(w, id, newID, err)
}

type feedbackMoveRequest struct {
	ParentID string `json:"parentId"`
	Index    int    `json:"index"`
}

func (s *Server) handleFeedbackMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req feedbackMoveRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.FeedbackMove(id, chi.URLParam(r, "feedbackID"), req.ParentID, req.Index)
	s.reply(w, id, ok, err)
}

func (s *Server) handleFeedbackSetOption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.FeedbackSetOption(id, chi.URLParam(r, "feedbackID"), chi.URLParam(r, "key"), req.Value)
	s.reply(w, id, ok, err)
}

func (s *Server) handleFeedbackSetOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req optionsRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.FeedbackSetOptions(id, chi.URLParam(r, "feedbackID"), req.Options)
	s.reply(w, id, ok, err)
}

func (s *Server) handleFeedbackSetStyleValue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.FeedbackSetStyleValue(id, chi.URLParam(r, "feedbackID"), chi.URLParam(r, "key"), req.Value)
	s.reply(w, id, ok, err)
}

type styleSelectionRequest struct {
	Selected []string `json:"selected"`
}

func (s *Server) handleFeedbackSetStyleSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req styleSelectionRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.FeedbackSetStyleSelection(id, chi.URLParam(r, "feedbackID"), req.Selected)
	s.reply(w, id, ok, err)
}

func (s *Server) handleFeedbackLearn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.FeedbackLearn(r.Context(), id, chi.URLParam(r, "feedbackID"))
	s.reply(w, id, ok, err)
}

// ─── Steps and Sets ──────────────────────────────────────────────────

func (s *Server) handleStepAdd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stepID, err := s.controller.StepAdd(id)
	s.replyID(w, id, stepID, err)
}

func (s *Server) handleStepRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.StepRemove(id, chi.URLParam(r, "stepID"))
	s.reply(w, id, ok, err)
}

func (s *Server) handleStepDuplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, err := s.controller.StepDuplicate(id, chi.URLParam(r, "stepID"))
	s.replyID(w, id, newID, err)
}

type stepSwapRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (s *Server) handleStepSwap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req stepSwapRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.StepSwap(id, req.A, req.B)
	s.reply(w, id, ok, err)
}

func (s *Server) handleStepSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.StepSelect(id, chi.URLParam(r, "stepID"))
	s.reply(w, id, ok, err)
}

type stepRenameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleStepRename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req stepRenameRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.StepRename(id, chi.URLParam(r, "stepID"), req.Name)
	s.reply(w, id, ok, err)
}

func (s *Server) handleSetAdd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	setID, err := s.controller.SetAdd(id, chi.URLParam(r, "stepID"))
	s.replyID(w, id, setID, err)
}

func (s *Server) handleSetRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.SetRemove(id, chi.URLParam(r, "stepID"), chi.URLParam(r, "setID"))
	s.reply(w, id, ok, err)
}

type setUpdateRequest struct {
	ID           *string `json:"id"`
	RunWhileHeld *bool   `json:"runWhileHeld"`
}

// handleSetUpdate renames a duration set and toggles run-while-held. The
// toggle applies to the renamed set.
func (s *Server) handleSetUpdate(w http.ResponseWriter, r *http.Request) {
	id, stepID, setID := chi.URLParam(r, "id"), chi.URLParam(r, "stepID"), chi.URLParam(r, "setID")
	var req setUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	var p patch
	if req.ID != nil && *req.ID != setID {
		newID := *req.ID
		p = append(p, func() (bool, error) {
			ok, err := s.controller.SetRename(id, stepID, setID, newID)
			if ok {
				setID = newID
			}
			return ok, err
		})
	}
	if req.RunWhileHeld != nil {
		p = append(p, func() (bool, error) { return s.controller.SetRunWhileHeld(id, stepID, setID, *req.RunWhileHeld) })
	}
	ok, err := p.apply()
	s.reply(w, id, ok, err)
}

// ─── Events ──────────────────────────────────────────────────────────

type eventAddRequest struct {
	Type string `json:"type"`
}

func (s *Server) handleEventAdd(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req eventAddRequest
	if !decode(w, r, &req) {
		return
	}
	eventID, err := s.controller.EventAdd(id, req.Type)
	s.replyID(w, id, eventID, err)
}

type eventUpdateRequest struct {
	Enabled  *bool   `json:"enabled"`
	Headline *string `json:"headline"`
}

func (s *Server) handleEventUpdate(w http.ResponseWriter, r *http.Request) {
	id, eventID := chi.URLParam(r, "id"), chi.URLParam(r, "eventID")
	var req eventUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	var p patch
	if req.Enabled != nil {
		p = append(p, func() (bool, error) { return s.controller.EventSetEnabled(id, eventID, *req.Enabled) })
	}
	if req.Headline != nil {
		p = append(p, func() (bool, error) { return s.controller.EventSetHeadline(id, eventID, *req.Headline) })
	}
	ok, err := p.apply()
	s.reply(w, id, ok, err)
}

func (s *Server) handleEventRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.controller.EventRemove(id, chi.URLParam(r, "eventID"))
	s.reply(w, id, ok, err)
}

func (s *Server) handleEventDuplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, err := s.controller.EventDuplicate(id, chi.URLParam(r, "eventID"))
	s.replyID(w, id, newID, err)
}

type indexRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleEventMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req indexRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.EventReorder(id, chi.URLParam(r, "eventID"), req.Index)
	s.reply(w, id, ok, err)
}

func (s *Server) handleEventSetOption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.EventSetOption(id, chi.URLParam(r, "eventID"), chi.URLParam(r, "key"), req.Value)
	s.reply(w, id, ok, err)
}
